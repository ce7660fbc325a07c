package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/x/ansi"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/util/duration"

	"github.com/podscope/podscope/pkg/subscription"
)

// podTable holds the pods of the active namespace, kept current by the watch
// subscription, and renders them as the main panel.
type podTable struct {
	pods     map[string]*corev1.Pod
	order    []string // sorted names
	selected int
	offset   int
	width    int
	height   int
}

func newPodTable() *podTable {
	return &podTable{pods: map[string]*corev1.Pod{}}
}

// Apply folds one watch event into the table.
func (t *podTable) Apply(ev subscription.PodEvent) {
	name := ev.Pod.Name
	switch ev.Type {
	case "DELETED":
		delete(t.pods, name)
	default:
		t.pods[name] = ev.Pod
	}
	t.reorder()
}

// Reset drops all rows, e.g. on a namespace switch.
func (t *podTable) Reset() {
	t.pods = map[string]*corev1.Pod{}
	t.order = nil
	t.selected = 0
	t.offset = 0
}

func (t *podTable) reorder() {
	t.order = t.order[:0]
	for name := range t.pods {
		t.order = append(t.order, name)
	}
	sort.Strings(t.order)
	if t.selected >= len(t.order) {
		t.selected = max(0, len(t.order)-1)
	}
}

// Selected returns the currently highlighted pod, or nil.
func (t *podTable) Selected() *corev1.Pod {
	if t.selected < 0 || t.selected >= len(t.order) {
		return nil
	}
	return t.pods[t.order[t.selected]]
}

func (t *podTable) MoveUp() {
	if t.selected > 0 {
		t.selected--
	}
	t.clampOffset()
}

func (t *podTable) MoveDown() {
	if t.selected < len(t.order)-1 {
		t.selected++
	}
	t.clampOffset()
}

func (t *podTable) SetDimensions(w, h int) {
	t.width, t.height = w, h
	t.clampOffset()
}

func (t *podTable) clampOffset() {
	visible := t.height - 1 // header row
	if visible < 1 {
		visible = 1
	}
	if t.selected < t.offset {
		t.offset = t.selected
	}
	if t.selected >= t.offset+visible {
		t.offset = t.selected - visible + 1
	}
}

func (t *podTable) View() string {
	if t.width <= 0 || t.height <= 0 {
		return ""
	}
	nameW := max(20, t.width-38)
	header := fmt.Sprintf("%-*s %-7s %-12s %9s %6s", nameW, "NAME", "READY", "STATUS", "RESTARTS", "AGE")
	lines := []string{TableHeaderStyle.Render(truncate(header, t.width))}

	visible := t.height - 1
	end := min(len(t.order), t.offset+visible)
	for i := t.offset; i < end; i++ {
		pod := t.pods[t.order[i]]
		row := fmt.Sprintf("%-*s %-7s %-12s %9d %6s",
			nameW, truncate(pod.Name, nameW),
			readyCount(pod), podPhase(pod), restartCount(pod),
			duration.HumanDuration(time.Since(pod.CreationTimestamp.Time)))
		row = truncate(row, t.width)
		style := rowStyle(pod)
		if i == t.selected {
			style = RowSelectedStyle
		}
		lines = append(lines, style.Render(row))
	}
	return strings.Join(lines, "\n")
}

func rowStyle(pod *corev1.Pod) interface{ Render(...string) string } {
	switch podPhase(pod) {
	case "Failed", "CrashLoopBackOff", "Error":
		return RowFailedStyle
	case "Pending", "ContainerCreating", "Terminating":
		return RowPendingStyle
	default:
		return RowStyle
	}
}

// readyCount renders the READY column, e.g. "1/2".
func readyCount(pod *corev1.Pod) string {
	ready := 0
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.Ready {
			ready++
		}
	}
	return fmt.Sprintf("%d/%d", ready, len(pod.Spec.Containers))
}

// podPhase prefers the waiting reason of a broken container over the bare
// phase, matching what kubectl shows.
func podPhase(pod *corev1.Pod) string {
	if pod.DeletionTimestamp != nil {
		return "Terminating"
	}
	for _, cs := range pod.Status.ContainerStatuses {
		if cs.State.Waiting != nil && cs.State.Waiting.Reason != "" {
			return cs.State.Waiting.Reason
		}
	}
	return string(pod.Status.Phase)
}

func restartCount(pod *corev1.Pod) int {
	n := 0
	for _, cs := range pod.Status.ContainerStatuses {
		n += int(cs.RestartCount)
	}
	return n
}

// truncate clips a rendered line to w cells, ANSI-aware.
func truncate(s string, w int) string {
	if w <= 0 {
		return ""
	}
	return ansi.Truncate(s, w, "…")
}
