package subscription

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"k8s.io/klog/v2"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/podscope/podscope/pkg/cancelgroup"
	"github.com/podscope/podscope/pkg/restclient"
)

// PodEvent is one observed pod change.
type PodEvent struct {
	Type string // ADDED, MODIFIED, DELETED
	Pod  *corev1.Pod
}

// PodHandler receives pod events. It is called from the subscription's
// consumer goroutine, one event at a time.
type PodHandler func(PodEvent)

// PodWatch is a resumable watch over the pods of one namespace. When the
// server closes the connection (the API server drops watches after roughly an
// hour) the consumer's terminal path reissues the request from the last
// observed resourceVersion and registers the new transport's cancel handle
// under the same group, so group-level cancellation still reaches it.
type PodWatch struct {
	client    *restclient.Client
	base      restclient.Config
	groups    *cancelgroup.Registry
	group     string
	namespace string
	handler   PodHandler

	// OnError, if set, is invoked when resuming after a disconnect fails.
	// Set it before Start.
	OnError func(error)

	ctx context.Context

	mu     sync.Mutex
	cursor string // last observed resourceVersion, "" means relist
}

// NewPodWatch creates a watch for the pods of namespace. base must carry the
// resolved endpoint and credentials; group names the cancellation group every
// transport of this subscription registers under.
func NewPodWatch(client *restclient.Client, base restclient.Config, groups *cancelgroup.Registry, group, namespace string, handler PodHandler) *PodWatch {
	return &PodWatch{
		client:    client,
		base:      base,
		groups:    groups,
		group:     group,
		namespace: namespace,
		handler:   handler,
	}
}

// Start opens the first transport. The watch runs until ctx is cancelled or
// its cancellation group is run.
func (w *PodWatch) Start(ctx context.Context) {
	w.ctx = ctx
	w.subscribe()
}

// Cursor returns the current resume cursor.
func (w *PodWatch) Cursor() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cursor
}

func (w *PodWatch) setCursor(rv string) {
	w.mu.Lock()
	w.cursor = rv
	w.mu.Unlock()
}

// subscribe issues one physical watch request continuing from the cursor and
// registers its cancel handle under the subscription's group.
func (w *PodWatch) subscribe() *restclient.Future {
	cfg := w.base.WithPath("/api/v1/namespaces/" + w.namespace + "/pods").
		WithQuery("watch", "true").
		WithQuery("allowWatchBookmarks", "true")
	if rv := w.Cursor(); rv != "" {
		cfg = cfg.WithQuery("resourceVersion", rv)
	}
	future, cancel := w.client.Stream(w.ctx, cfg, func() restclient.Consumer { return w.consume }, restclient.Eager)
	w.groups.Add(w.group, cancel)
	return future
}

// consume pulls body chunks, reframes them into JSON lines and dispatches
// watch events until the transport ends, then decides whether to resume.
func (w *PodWatch) consume(s *restclient.Stream) (any, error) {
	var buf bytes.Buffer
	for {
		chunk, err := s.Recv()
		if err != nil {
			return nil, w.finish(s, err)
		}
		buf.Write(chunk)
		for {
			data := buf.Bytes()
			i := bytes.IndexByte(data, '\n')
			if i < 0 {
				break
			}
			line := append([]byte(nil), data[:i]...)
			buf.Next(i + 1)
			w.handleLine(line)
		}
	}
}

func (w *PodWatch) handleLine(line []byte) {
	if len(bytes.TrimSpace(line)) == 0 {
		return
	}
	var ev metav1.WatchEvent
	if err := json.Unmarshal(line, &ev); err != nil {
		klog.ErrorS(err, "malformed watch event", "namespace", w.namespace)
		return
	}
	switch ev.Type {
	case "ERROR":
		var status metav1.Status
		_ = json.Unmarshal(ev.Object.Raw, &status)
		if status.Code == http.StatusGone {
			// Watch history expired; the next reconnect must relist.
			w.setCursor("")
		}
		klog.ErrorS(nil, "watch error event", "namespace", w.namespace, "message", status.Message, "code", status.Code)
	case "BOOKMARK":
		var pod corev1.Pod
		if err := json.Unmarshal(ev.Object.Raw, &pod); err == nil && pod.ResourceVersion != "" {
			w.setCursor(pod.ResourceVersion)
		}
	default:
		var pod corev1.Pod
		if err := json.Unmarshal(ev.Object.Raw, &pod); err != nil {
			klog.ErrorS(err, "malformed pod in watch event", "namespace", w.namespace)
			return
		}
		// A reconnect from resourceVersion may re-deliver the boundary
		// event; drop it instead of handing it to the handler twice.
		if pod.ResourceVersion == w.Cursor() {
			return
		}
		w.setCursor(pod.ResourceVersion)
		w.handler(PodEvent{Type: ev.Type, Pod: &pod})
	}
}

// finish handles the terminal signal. Client-initiated cancellation ends the
// subscription; anything else, the server's hourly disconnect included,
// resumes from the cursor. The old consumer terminates silently once the new
// transport's headers arrived; if recovery setup itself fails, the fault
// propagates out of the consumer and lands on the diagnostic log.
func (w *PodWatch) finish(s *restclient.Stream, term error) error {
	if s.Context().Err() != nil {
		return nil
	}
	klog.V(4).InfoS("pod watch disconnected, resuming", "namespace", w.namespace, "cursor", w.Cursor(), "reason", term)
	if _, err := w.subscribe().Wait(w.ctx); err != nil {
		err = fmt.Errorf("resume pod watch for %s: %w", w.namespace, err)
		if w.OnError != nil {
			w.OnError(err)
		}
		return err
	}
	return nil
}
