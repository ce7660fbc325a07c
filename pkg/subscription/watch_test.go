package subscription

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	pstesting "github.com/podscope/podscope/internal/testing"
	"github.com/podscope/podscope/internal/testlog"
	"github.com/podscope/podscope/pkg/cancelgroup"
	"github.com/podscope/podscope/pkg/restclient"
)

func TestMain(m *testing.M) {
	testlog.Setup()
	os.Exit(m.Run())
}

func testConfig(t *testing.T, srv *httptest.Server) restclient.Config {
	t.Helper()
	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatalf("parse test server URL: %v", err)
	}
	port, _ := strconv.Atoi(u.Port())
	return restclient.Config{Scheme: "http", Host: u.Hostname(), Port: port}
}

func watchEvent(typ, name, rv string) string {
	return fmt.Sprintf(`{"type":%q,"object":{"metadata":{"name":%q,"resourceVersion":%q}}}`+"\n", typ, name, rv)
}

func TestPodWatchResumesFromCursorAndStaysCancellable(t *testing.T) {
	queries := make(chan url.Values, 4)
	var conns atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queries <- r.URL.Query()
		fl := w.(http.Flusher)
		switch conns.Add(1) {
		case 1:
			fmt.Fprint(w, watchEvent("ADDED", "pod-a", "101"))
			fmt.Fprint(w, watchEvent("ADDED", "pod-b", "102"))
			fl.Flush()
			time.Sleep(20 * time.Millisecond)
			panic(http.ErrAbortHandler) // server-side disconnect mid-watch
		default:
			fmt.Fprint(w, watchEvent("ADDED", "pod-c", "103"))
			fl.Flush()
			<-r.Context().Done() // stream held open until cancelled
		}
	}))
	defer srv.Close()

	events := make(chan PodEvent, 16)
	groups := cancelgroup.New()
	w := NewPodWatch(restclient.New(), testConfig(t, srv), groups, "ns/test", "test",
		func(ev PodEvent) { events <- ev })
	w.Start(context.Background())

	waitEvent := func(wantName string) {
		t.Helper()
		select {
		case ev := <-events:
			if ev.Pod.Name != wantName {
				t.Fatalf("event pod = %q, want %q", ev.Pod.Name, wantName)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for %s", wantName)
		}
	}

	q1 := <-queries
	if q1.Get("watch") != "true" {
		t.Errorf("first request not a watch: %v", q1)
	}
	if q1.Get("resourceVersion") != "" {
		t.Errorf("first request must not carry a cursor: %v", q1)
	}
	waitEvent("pod-a")
	waitEvent("pod-b")

	// Disconnect happens; the resumed request must continue from the last
	// observed resourceVersion.
	q2 := <-queries
	if got := q2.Get("resourceVersion"); got != "102" {
		t.Errorf("resume cursor = %q, want %q", got, "102")
	}
	waitEvent("pod-c")

	// Both physical transports registered under the subscription's group;
	// the dead one is a no-op, the live one must die on group cancel.
	pstesting.Eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		return groups.Len("ns/test") == 2
	}, "second transport registered in group")
	groups.Run("ns/test")

	// Cancellation is client-initiated: no further reconnect.
	select {
	case q := <-queries:
		t.Errorf("unexpected reconnect after group cancel: %v", q)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestHandleLineUpdatesCursor(t *testing.T) {
	w := NewPodWatch(nil, restclient.Config{}, cancelgroup.New(), "g", "ns", func(PodEvent) {})

	w.handleLine([]byte(watchEvent("ADDED", "pod-a", "7")))
	if got := w.Cursor(); got != "7" {
		t.Errorf("cursor = %q, want %q", got, "7")
	}

	// Bookmarks advance the cursor without emitting an event.
	delivered := 0
	w.handler = func(PodEvent) { delivered++ }
	w.handleLine([]byte(watchEvent("BOOKMARK", "", "9")))
	if got := w.Cursor(); got != "9" {
		t.Errorf("cursor after bookmark = %q, want %q", got, "9")
	}
	if delivered != 0 {
		t.Errorf("bookmark delivered %d events, want 0", delivered)
	}
}

func TestHandleLineDropsBoundaryReplay(t *testing.T) {
	var got []string
	w := NewPodWatch(nil, restclient.Config{}, cancelgroup.New(), "g", "ns",
		func(ev PodEvent) { got = append(got, ev.Pod.Name) })

	w.handleLine([]byte(watchEvent("ADDED", "pod-a", "5")))
	// Reconnect replays the boundary event with the same resourceVersion.
	w.handleLine([]byte(watchEvent("ADDED", "pod-a", "5")))
	w.handleLine([]byte(watchEvent("MODIFIED", "pod-a", "6")))

	if len(got) != 2 || got[0] != "pod-a" || got[1] != "pod-a" {
		t.Errorf("delivered %v, want exactly two events", got)
	}
	if w.Cursor() != "6" {
		t.Errorf("cursor = %q, want %q", w.Cursor(), "6")
	}
}

func TestHandleLineGoneClearsCursor(t *testing.T) {
	w := NewPodWatch(nil, restclient.Config{}, cancelgroup.New(), "g", "ns", func(PodEvent) {})
	w.setCursor("41")

	line := `{"type":"ERROR","object":{"kind":"Status","code":410,"message":"too old resource version"}}`
	w.handleLine([]byte(line))
	if w.Cursor() != "" {
		t.Errorf("cursor = %q, want cleared after 410", w.Cursor())
	}
}
