package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
)

// ToastMsg shows a transient error banner.
type ToastMsg struct {
	Text string
	TTL  time.Duration
}

type toastTickMsg struct{}

// ToastLogger wraps log-style calls and emits transient toasts in the UI for
// errors, with rate limiting to avoid storms.
type ToastLogger struct {
	send        func(tea.Msg)
	mu          sync.Mutex
	lastToast   time.Time
	minInterval time.Duration
	lastText    string
}

func NewToastLogger(send func(tea.Msg), minInterval time.Duration) *ToastLogger {
	return &ToastLogger{send: send, minInterval: minInterval}
}

// Errorf shows a red toast for the formatted error message if allowed by the
// rate limiter.
func (l *ToastLogger) Errorf(format string, args ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, args...))
	l.mu.Lock()
	now := time.Now()
	// Suppress duplicates of the same text for 30s to avoid storms.
	suppressDup := msg == l.lastText && now.Sub(l.lastToast) < 30*time.Second
	allow := now.Sub(l.lastToast) >= l.minInterval && !suppressDup
	if allow {
		l.lastToast = now
		l.lastText = msg
	}
	l.mu.Unlock()
	if allow && l.send != nil {
		l.send(ToastMsg{Text: msg, TTL: 5 * time.Second})
	}
}
