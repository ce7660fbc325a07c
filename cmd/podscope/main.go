package main

import (
	goflag "flag"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	klog "k8s.io/klog/v2"

	"github.com/podscope/podscope/internal/ui"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	var (
		opts        ui.Options
		showVersion = flag.Bool("version", false, "Show version information")
	)
	flag.StringVar(&opts.Kubeconfig, "kubeconfig", "", "Path to the kubeconfig file (default: KUBECONFIG or ~/.kube/config)")
	flag.StringVar(&opts.Context, "context", "", "Kubeconfig context to use (default: current context)")
	flag.StringVarP(&opts.Namespace, "namespace", "n", "", "Namespace to watch (default: the context's namespace)")
	flag.StringVarP(&opts.Container, "container", "c", "", "Container to tail in multi-container pods")

	klogFlags := goflag.NewFlagSet("klog", goflag.ContinueOnError)
	klog.InitFlags(klogFlags)
	flag.CommandLine.AddGoFlagSet(klogFlags)
	flag.Parse()

	if *showVersion {
		fmt.Printf("podscope version %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Date: %s\n", date)
		return
	}

	if err := ui.Run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
