package restclient

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/url"
	"strconv"
)

// Config describes one request against the API server. Values are copied on
// use; mutating a Config after a request started has no effect on that
// request. Derive per-request variants with WithPath/WithQuery.
type Config struct {
	// Scheme is "http" or "https".
	Scheme string
	Host   string
	Port   int

	Method string
	Path   string
	Query  url.Values
	Header http.Header

	// BearerToken, if non-empty, is sent as an Authorization header.
	BearerToken string

	// TLS carries resolved client cert/key, CA pool and the verification
	// flag. Only consulted when Scheme is "https".
	TLS *tls.Config

	// Upgrade requests a WebSocket upgrade; the response must be 101 and the
	// body is then decoded as RFC 6455 frames.
	Upgrade bool
}

// URL assembles the request URL.
func (c Config) URL() string {
	u := url.URL{
		Scheme:   c.Scheme,
		Host:     net.JoinHostPort(c.Host, strconv.Itoa(c.Port)),
		Path:     c.Path,
		RawQuery: c.Query.Encode(),
	}
	return u.String()
}

// WithPath returns a copy of c with the given path and a fresh query.
func (c Config) WithPath(path string) Config {
	c.Path = path
	c.Query = url.Values{}
	return c
}

// WithQuery returns a copy of c with one query parameter set. The query map
// is cloned so the receiver is not shared.
func (c Config) WithQuery(key, value string) Config {
	q := url.Values{}
	for k, vs := range c.Query {
		q[k] = append([]string(nil), vs...)
	}
	q.Set(key, value)
	c.Query = q
	return c
}

