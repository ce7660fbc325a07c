package testlog

import (
	"os"

	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	klog "k8s.io/klog/v2"
)

// Setup points klog at a shared logr. Defaults to quiet (nop) unless DEBUG
// is set, in which case a dev zap logger writes to stderr.
func Setup() {
	logger := zap.NewNop()
	if os.Getenv("DEBUG") != "" {
		logger, _ = zap.NewDevelopment()
	}
	klog.SetLogger(zapr.NewLogger(logger))
}
