package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	corev1 "k8s.io/api/core/v1"
	yaml "sigs.k8s.io/yaml"

	"github.com/podscope/podscope/pkg/restclient"
)

// dataSource wraps the buffered side of the API client: one-shot GETs the
// dashboard needs besides its streams.
type dataSource struct {
	client *restclient.Client
	base   restclient.Config
}

// ListNamespaces fetches all namespace names, sorted.
func (d *dataSource) ListNamespaces(ctx context.Context) ([]string, error) {
	resp, err := d.client.Do(ctx, d.base.WithPath("/api/v1/namespaces"))
	if err != nil {
		return nil, fmt.Errorf("list namespaces: %w", err)
	}
	var list corev1.NamespaceList
	if err := json.Unmarshal(resp.Body, &list); err != nil {
		return nil, fmt.Errorf("decode namespace list: %w", err)
	}
	names := make([]string, 0, len(list.Items))
	for _, ns := range list.Items {
		names = append(names, ns.Name)
	}
	sort.Strings(names)
	return names, nil
}

// FetchPodYAML fetches one pod and renders it as YAML for the viewer.
func (d *dataSource) FetchPodYAML(ctx context.Context, namespace, name string) (string, error) {
	resp, err := d.client.Do(ctx, d.base.WithPath("/api/v1/namespaces/"+namespace+"/pods/"+name))
	if err != nil {
		return "", fmt.Errorf("get pod %s/%s: %w", namespace, name, err)
	}
	var obj map[string]any
	if err := json.Unmarshal(resp.Body, &obj); err != nil {
		return "", fmt.Errorf("decode pod %s/%s: %w", namespace, name, err)
	}
	// The API server serializes managedFields verbosely; not useful in a viewer.
	if meta, ok := obj["metadata"].(map[string]any); ok {
		delete(meta, "managedFields")
	}
	out, err := yaml.Marshal(obj)
	if err != nil {
		return "", fmt.Errorf("render pod %s/%s: %w", namespace, name, err)
	}
	return string(out), nil
}
