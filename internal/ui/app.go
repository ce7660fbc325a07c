package ui

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"

	"github.com/podscope/podscope/pkg/appconfig"
	"github.com/podscope/podscope/pkg/cancelgroup"
	"github.com/podscope/podscope/pkg/kubeconfig"
	"github.com/podscope/podscope/pkg/restclient"
	"github.com/podscope/podscope/pkg/subscription"
)

// Options configures the dashboard at startup.
type Options struct {
	Kubeconfig string
	Context    string
	Namespace  string
	Container  string
}

// Messages crossing from subscriptions into the bubbletea loop.
type (
	podEventMsg   struct{ ev subscription.PodEvent }
	logLineMsg    struct{ line subscription.LogLine }
	namespacesMsg struct{ names []string }
	podYAMLMsg    struct{ title, text string }
	errMsg        struct{ err error }
	ageTickMsg    struct{}
)

// App is the dashboard model: one pod watch for the active namespace, at most
// one log tail, and the overlays on top.
type App struct {
	client  *restclient.Client
	base    restclient.Config
	groups  *cancelgroup.Registry
	data    *dataSource
	cfg     *appconfig.Config
	options Options

	ctx    context.Context
	cancel context.CancelFunc
	send   func(tea.Msg)
	toast  *ToastLogger

	namespace  string
	namespaces []string
	table      *podTable
	logs       *logPane
	tailPod    string

	nsModal *NamespaceModel
	viewer  *YAMLViewer

	toastText  string
	toastUntil time.Time

	width, height int
}

// NewApp wires the dashboard against a resolved client config.
func NewApp(base restclient.Config, namespace string, cfg *appconfig.Config, opts Options) *App {
	ctx, cancel := context.WithCancel(context.Background())
	client := restclient.New()
	return &App{
		client:    client,
		base:      base,
		groups:    cancelgroup.New(),
		data:      &dataSource{client: client, base: base},
		cfg:       cfg,
		options:   opts,
		ctx:       ctx,
		cancel:    cancel,
		namespace: namespace,
		table:     newPodTable(),
		logs:      newLogPane(cfg.Logs.Scrollback),
	}
}

func (a *App) watchGroup() string { return "ns/" + a.namespace }
func (a *App) tailGroup() string  { return "ns/" + a.namespace + "/logs" }

func (a *App) Init() tea.Cmd {
	a.startNamespace(a.namespace)
	return tea.Batch(
		a.fetchNamespaces(),
		tea.Tick(time.Second, func(time.Time) tea.Msg { return ageTickMsg{} }),
	)
}

// startNamespace tears down every transport of the previous namespace and
// opens the pod watch for the new one.
func (a *App) startNamespace(ns string) {
	a.groups.Run(a.tailGroup())
	a.groups.Run(a.watchGroup())
	a.namespace = ns
	a.tailPod = ""
	a.table.Reset()
	a.logs.Reset("")
	watch := subscription.NewPodWatch(a.client, a.base, a.groups, a.watchGroup(), ns, func(ev subscription.PodEvent) {
		if a.send != nil {
			a.send(podEventMsg{ev: ev})
		}
	})
	watch.OnError = a.subscriptionError
	watch.Start(a.ctx)
}

// startTail replaces the active log tail with one for the given pod.
func (a *App) startTail(pod string) {
	a.groups.Run(a.tailGroup())
	a.tailPod = pod
	a.logs.Reset(a.namespace + "/" + pod)
	tail := subscription.NewLogTail(a.client, a.base, a.groups, a.tailGroup(),
		a.namespace, pod, a.options.Container, a.cfg.Logs.TailLines,
		func(line subscription.LogLine) {
			if a.send != nil {
				a.send(logLineMsg{line: line})
			}
		})
	tail.OnError = a.subscriptionError
	tail.Start(a.ctx)
}

// subscriptionError surfaces resume failures as a toast. Called from
// subscription goroutines.
func (a *App) subscriptionError(err error) {
	if a.toast != nil {
		a.toast.Errorf("%v", err)
	}
}

func (a *App) fetchNamespaces() tea.Cmd {
	return func() tea.Msg {
		names, err := a.data.ListNamespaces(a.ctx)
		if err != nil {
			return errMsg{err: err}
		}
		return namespacesMsg{names: names}
	}
}

func (a *App) viewPodYAML(pod string) tea.Cmd {
	ns := a.namespace
	return func() tea.Msg {
		text, err := a.data.FetchPodYAML(a.ctx, ns, pod)
		if err != nil {
			return errMsg{err: err}
		}
		return podYAMLMsg{title: ns + "/" + pod, text: text}
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.layout()
		return a, nil

	case podEventMsg:
		a.table.Apply(msg.ev)
		return a, nil

	case logLineMsg:
		a.logs.Append(msg.line)
		return a, nil

	case namespacesMsg:
		a.namespaces = msg.names
		if a.nsModal != nil {
			a.nsModal.SetNamespaces(msg.names)
		}
		return a, nil

	case podYAMLMsg:
		a.viewer = NewYAMLViewer(msg.title, msg.text, a.cfg.Viewer.Theme)
		a.viewer.SetDimensions(a.width, a.height-1)
		return a, nil

	case errMsg:
		a.showToast(msg.err.Error(), 5*time.Second)
		return a, tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg { return toastTickMsg{} })

	case ToastMsg:
		a.showToast(msg.Text, msg.TTL)
		return a, tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg { return toastTickMsg{} })

	case toastTickMsg:
		if a.toastText != "" && time.Now().After(a.toastUntil) {
			a.toastText = ""
			return a, nil
		}
		if a.toastText != "" {
			return a, tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg { return toastTickMsg{} })
		}
		return a, nil

	case ageTickMsg:
		// Ages in the pod table move on their own; re-render once a second.
		return a, tea.Tick(time.Second, func(time.Time) tea.Msg { return ageTickMsg{} })

	case NamespaceSelectedMsg:
		a.nsModal = nil
		if msg.Confirm && msg.Name != "" && msg.Name != a.namespace {
			a.startNamespace(msg.Name)
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Overlays swallow input while open.
	if a.nsModal != nil {
		_, cmd := a.nsModal.Update(msg)
		return a, cmd
	}
	if a.viewer != nil {
		switch msg.String() {
		case "esc", "q", "f3":
			a.viewer = nil
			return a, nil
		}
		_, cmd := a.viewer.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "ctrl+c", "q", "f10":
		return a, tea.Quit
	case "up":
		a.table.MoveUp()
	case "down":
		a.table.MoveDown()
	case "enter":
		if pod := a.table.Selected(); pod != nil {
			a.startTail(pod.Name)
		}
	case "f3", "y":
		if pod := a.table.Selected(); pod != nil {
			return a, a.viewPodYAML(pod.Name)
		}
	case "f2", "n":
		a.nsModal = NewNamespaceModel(a.namespaces)
		a.nsModal.SetDimensions(a.width/2, a.height/2)
		return a, a.fetchNamespaces()
	case "pgup":
		a.logs.ScrollUp(5)
	case "pgdown":
		a.logs.ScrollDown(5)
	}
	return a, nil
}

func (a *App) layout() {
	logHeight := a.height * 2 / 5
	a.table.SetDimensions(a.width, a.height-logHeight-2)
	a.logs.SetDimensions(a.width, logHeight)
	if a.viewer != nil {
		a.viewer.SetDimensions(a.width, a.height-1)
	}
	if a.nsModal != nil {
		a.nsModal.SetDimensions(a.width/2, a.height/2)
	}
}

func (a *App) showToast(text string, ttl time.Duration) {
	a.toastText = text
	a.toastUntil = time.Now().Add(ttl)
}

func (a *App) View() string {
	if a.width <= 0 || a.height <= 0 {
		return ""
	}
	if a.viewer != nil {
		return a.viewer.View()
	}

	header := HeaderStyle.Width(a.width).Render(truncate(" podscope  namespace: "+a.namespace, a.width))
	footer := FooterStyle.Width(a.width).Render(truncate(" enter:tail  y:yaml  n:namespace  pgup/pgdn:scroll  q:quit", a.width))
	body := lipgloss.JoinVertical(lipgloss.Top, header, a.table.View(), a.logs.View(), footer)

	if a.nsModal != nil {
		body = lipgloss.JoinVertical(lipgloss.Top, header, a.nsModal.View())
	}
	if a.toastText != "" {
		toast := ToastStyle.Render(truncate(" "+a.toastText+" ", a.width))
		body = lipgloss.JoinVertical(lipgloss.Top, toast, body)
	}
	return body
}

// Run resolves configuration, builds the app and drives the bubbletea
// program until quit.
func Run(opts Options) error {
	cfg, err := appconfig.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config warning: %v\n", err)
	}
	base, defaultNS, err := kubeconfig.Resolve(opts.Kubeconfig, opts.Context)
	if err != nil {
		return err
	}
	namespace := opts.Namespace
	if namespace == "" {
		namespace = defaultNS
	}

	app := NewApp(base, namespace, cfg, opts)
	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithoutSignalHandler(),
	)
	app.send = p.Send
	app.toast = NewToastLogger(p.Send, time.Second)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		p.Quit()
	}()

	_, err = p.Run()
	// Tear down every in-flight transport before exiting.
	app.groups.Run(app.tailGroup())
	app.groups.Run(app.watchGroup())
	app.cancel()
	return err
}
