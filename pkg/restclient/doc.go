// Package restclient is a minimal streaming client for the Kubernetes API
// surface podscope needs: buffered GETs, chunked follow/watch streams, and
// WebSocket-upgraded connections, all consumed through a single pull-based
// consumer protocol with explicit cancellation.
//
// It deliberately does not use client-go's transport or watch machinery;
// client-go is only used upstream to resolve credentials into a Config.
package restclient
