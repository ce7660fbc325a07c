package subscription

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/podscope/podscope/pkg/cancelgroup"
	"github.com/podscope/podscope/pkg/restclient"
)

// LogLine is one container log line with the timestamp the kubelet prefixed.
type LogLine struct {
	Time time.Time
	Text string
}

// LogHandler receives log lines, one at a time, in stream order.
type LogHandler func(LogLine)

// LogTail follows one container's log. It requests timestamps so every line
// carries a cursor; after a disconnect it reconnects with sinceTime set to
// the last observed timestamp and drops the boundary lines that are replayed.
type LogTail struct {
	client    *restclient.Client
	base      restclient.Config
	groups    *cancelgroup.Registry
	group     string
	namespace string
	pod       string
	container string
	tailLines int
	handler   LogHandler

	// OnError, if set, is invoked when resuming after a disconnect fails.
	// Set it before Start.
	OnError func(error)

	ctx context.Context

	mu       sync.Mutex
	cursor   time.Time // timestamp of the last delivered line
	boundary time.Time // cursor at the last (re)connect; replay ends past it
}

// NewLogTail creates a tail of the given pod's log. container may be empty
// for single-container pods. tailLines bounds the initial backfill.
func NewLogTail(client *restclient.Client, base restclient.Config, groups *cancelgroup.Registry, group, namespace, pod, container string, tailLines int, handler LogHandler) *LogTail {
	return &LogTail{
		client:    client,
		base:      base,
		groups:    groups,
		group:     group,
		namespace: namespace,
		pod:       pod,
		container: container,
		tailLines: tailLines,
		handler:   handler,
	}
}

// Start opens the first transport. The tail runs until ctx is cancelled or
// its cancellation group is run.
func (t *LogTail) Start(ctx context.Context) {
	t.ctx = ctx
	t.subscribe()
}

// Cursor returns the timestamp of the last delivered line.
func (t *LogTail) Cursor() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor
}

func (t *LogTail) subscribe() *restclient.Future {
	t.mu.Lock()
	t.boundary = t.cursor
	t.mu.Unlock()
	cfg := t.base.WithPath("/api/v1/namespaces/" + t.namespace + "/pods/" + t.pod + "/log").
		WithQuery("follow", "true").
		WithQuery("timestamps", "true")
	if t.container != "" {
		cfg = cfg.WithQuery("container", t.container)
	}
	if cursor := t.Cursor(); !cursor.IsZero() {
		// sinceTime has second granularity, so the boundary second is
		// replayed; consume drops lines at or before the cursor.
		cfg = cfg.WithQuery("sinceTime", cursor.UTC().Format(time.RFC3339))
	} else if t.tailLines > 0 {
		cfg = cfg.WithQuery("tailLines", strconv.Itoa(t.tailLines))
	}
	future, cancel := t.client.Stream(t.ctx, cfg, func() restclient.Consumer { return t.consume }, restclient.Eager)
	t.groups.Add(t.group, cancel)
	return future
}

func (t *LogTail) consume(s *restclient.Stream) (any, error) {
	var buf bytes.Buffer
	for {
		chunk, err := s.Recv()
		if err != nil {
			return nil, t.finish(s, err)
		}
		buf.Write(chunk)
		for {
			data := buf.Bytes()
			i := bytes.IndexByte(data, '\n')
			if i < 0 {
				break
			}
			line := string(data[:i])
			buf.Next(i + 1)
			t.handleLine(line)
		}
	}
}

func (t *LogTail) handleLine(line string) {
	if line == "" {
		return
	}
	ts, text, ok := ParseLogLine(line)
	if !ok {
		// Lines without a parseable timestamp (rare kubelet quirks) are
		// delivered as-is but do not advance the cursor.
		t.handler(LogLine{Text: line})
		return
	}
	t.mu.Lock()
	// Only lines at or before the reconnect boundary are replays; comparing
	// against the live cursor instead would drop a second distinct line that
	// shares its predecessor's timestamp mid-stream.
	replay := !ts.After(t.boundary)
	if !replay && ts.After(t.cursor) {
		t.cursor = ts
	}
	t.mu.Unlock()
	if replay {
		return
	}
	t.handler(LogLine{Time: ts, Text: text})
}

func (t *LogTail) finish(s *restclient.Stream, term error) error {
	if s.Context().Err() != nil {
		return nil
	}
	klog.V(4).InfoS("log tail disconnected, resuming", "pod", t.pod, "cursor", t.Cursor(), "reason", term)
	if _, err := t.subscribe().Wait(t.ctx); err != nil {
		err = fmt.Errorf("resume log tail for %s/%s: %w", t.namespace, t.pod, err)
		if t.OnError != nil {
			t.OnError(err)
		}
		return err
	}
	return nil
}

// ParseLogLine splits a kubelet log line into its RFC 3339 timestamp prefix
// and the remaining text. ok is false when the line has no such prefix.
func ParseLogLine(line string) (ts time.Time, text string, ok bool) {
	i := strings.IndexByte(line, ' ')
	if i < 0 {
		return time.Time{}, "", false
	}
	ts, err := time.Parse(time.RFC3339Nano, line[:i])
	if err != nil {
		return time.Time{}, "", false
	}
	return ts, line[i+1:], true
}
