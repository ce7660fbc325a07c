package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
)

func TestToastLoggerRateLimits(t *testing.T) {
	var sent []tea.Msg
	l := NewToastLogger(func(msg tea.Msg) { sent = append(sent, msg) }, time.Hour)

	l.Errorf("boom %d", 1)
	l.Errorf("boom %d", 2) // inside the rate window
	if len(sent) != 1 {
		t.Fatalf("sent %d toasts, want 1", len(sent))
	}
	toast, ok := sent[0].(ToastMsg)
	if !ok {
		t.Fatalf("sent %T, want ToastMsg", sent[0])
	}
	if toast.Text != "boom 1" {
		t.Errorf("text = %q, want %q", toast.Text, "boom 1")
	}
}

func TestToastLoggerSuppressesDuplicates(t *testing.T) {
	var sent []tea.Msg
	l := NewToastLogger(func(msg tea.Msg) { sent = append(sent, msg) }, 0)

	l.Errorf("same error")
	l.Errorf("same error") // duplicate within the suppression window
	l.Errorf("different error")
	if len(sent) != 2 {
		t.Fatalf("sent %d toasts, want 2", len(sent))
	}
}
