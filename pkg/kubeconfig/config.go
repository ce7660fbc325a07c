// Package kubeconfig resolves cluster endpoints and credentials from
// kubeconfig files into the restclient.Config consumed by the streaming
// client. It is the only place client-go is used.
package kubeconfig

import (
	"fmt"
	"net/url"
	"strconv"

	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/podscope/podscope/pkg/restclient"
)

// Context is one resolved kubeconfig context.
type Context struct {
	Name      string
	Cluster   string
	Namespace string
}

// Resolve loads a kubeconfig (explicit path, or the usual KUBECONFIG/~/.kube
// chain when path is empty), selects contextName (or the file's current
// context when empty) and returns the resolved client config plus the
// context's default namespace.
func Resolve(path, contextName string) (restclient.Config, string, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if path != "" {
		rules = &clientcmd.ClientConfigLoadingRules{ExplicitPath: path}
	}
	loader := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		rules,
		&clientcmd.ConfigOverrides{CurrentContext: contextName},
	)

	restCfg, err := loader.ClientConfig()
	if err != nil {
		return restclient.Config{}, "", fmt.Errorf("failed to load client config: %w", err)
	}
	namespace, _, err := loader.Namespace()
	if err != nil || namespace == "" {
		namespace = "default"
	}

	cfg, err := FromRESTConfig(restCfg)
	if err != nil {
		return restclient.Config{}, "", err
	}
	return cfg, namespace, nil
}

// Contexts lists the contexts of a kubeconfig for selection UIs.
func Contexts(path string) ([]Context, error) {
	rules := clientcmd.NewDefaultClientConfigLoadingRules()
	if path != "" {
		rules = &clientcmd.ClientConfigLoadingRules{ExplicitPath: path}
	}
	raw, err := rules.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}
	contexts := make([]Context, 0, len(raw.Contexts))
	for name, kctx := range raw.Contexts {
		namespace := kctx.Namespace
		if namespace == "" {
			namespace = "default"
		}
		contexts = append(contexts, Context{Name: name, Cluster: kctx.Cluster, Namespace: namespace})
	}
	return contexts, nil
}

// FromRESTConfig converts a resolved client-go rest.Config into the
// self-contained restclient.Config the streaming client consumes: parsed
// endpoint, bearer token, and fully materialized TLS settings.
func FromRESTConfig(restCfg *rest.Config) (restclient.Config, error) {
	u, err := url.Parse(restCfg.Host)
	if err != nil {
		return restclient.Config{}, fmt.Errorf("failed to parse server URL %q: %w", restCfg.Host, err)
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	host := u.Hostname()
	if host == "" {
		host = u.Path // "host:port" without scheme parses into Path
	}
	port := 443
	if scheme == "http" {
		port = 80
	}
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return restclient.Config{}, fmt.Errorf("failed to parse server port %q: %w", p, err)
		}
	}

	tlsCfg, err := rest.TLSConfigFor(restCfg)
	if err != nil {
		return restclient.Config{}, fmt.Errorf("failed to build TLS config: %w", err)
	}

	return restclient.Config{
		Scheme:      scheme,
		Host:        host,
		Port:        port,
		BearerToken: restCfg.BearerToken,
		TLS:         tlsCfg,
	}, nil
}
