package restclient

import (
	"context"
	"io"
	"net/http"

	"github.com/go-logr/logr"
	"k8s.io/klog/v2"
)

// Response is a fully buffered reply. Streaming requests deliver bytes to
// their consumer instead; an eager future carries a Response with a nil Body.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Client issues buffered and streaming requests. The zero value is not
// usable; construct with New.
type Client struct {
	log logr.Logger
}

// Option configures Client.
type Option func(*Client)

// WithLogger sets the logger used for background stream diagnostics.
func WithLogger(l logr.Logger) Option { return func(c *Client) { c.log = l } }

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{log: klog.Background()}
	for _, fn := range opts {
		fn(c)
	}
	return c
}

// Do issues a buffered request: the whole body is read before returning.
// Transport failures surface as *TransportError, responses with status >= 400
// as *RequestFailedError carrying status, headers and the body read so far.
func (c *Client) Do(ctx context.Context, cfg Config) (*Response, error) {
	resp, _, transport, err := c.open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	defer transport.CloseIdleConnections()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read body", Err: err}
	}
	if resp.StatusCode >= 400 {
		return nil, &RequestFailedError{Status: resp.StatusCode, Header: resp.Header, Body: body}
	}
	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// Stream issues a streaming request driven through the consumer built by
// factory. The returned cancel handle hard-aborts the transport; it is
// idempotent and safe after completion. How the future settles depends on
// mode; see DeliveryMode.
func (c *Client) Stream(ctx context.Context, cfg Config, factory ConsumerFactory, mode DeliveryMode) (*Future, CancelFunc) {
	ctx, cancel := context.WithCancel(ctx)
	future := newFuture()
	go c.run(ctx, cfg, factory, mode, future)
	return future, onceCancel(cancel)
}

func (c *Client) run(ctx context.Context, cfg Config, factory ConsumerFactory, mode DeliveryMode, future *Future) {
	c.log.V(5).Info("opening stream", "url", cfg.URL(), "upgrade", cfg.Upgrade, "mode", mode)
	resp, key, transport, err := c.open(ctx, cfg)
	if err != nil {
		future.reject(err)
		return
	}
	defer transport.CloseIdleConnections()
	defer resp.Body.Close()

	// Status gate: nothing reaches a consumer unless the response is
	// acceptable. Failed upgrades and >= 400 both die here.
	if cfg.Upgrade {
		if resp.StatusCode != http.StatusSwitchingProtocols {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			future.reject(&RequestFailedError{Status: resp.StatusCode, Header: resp.Header, Body: body})
			return
		}
		if err := validateUpgrade(resp, key); err != nil {
			future.reject(&RequestFailedError{Status: resp.StatusCode, Header: resp.Header, Reason: err.Error()})
			return
		}
	} else if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		future.reject(&RequestFailedError{Status: resp.StatusCode, Header: resp.Header, Body: body})
		return
	}

	if mode == Eager {
		future.resolve(&Response{Status: resp.StatusCode, Header: resp.Header})
	}

	d := newDriver(ctx, mode, future)
	d.start(factory())

	if cfg.Upgrade {
		c.pumpFrames(d, resp.Body)
	} else {
		c.pumpBody(d, resp.Body)
	}
}

// pumpBody feeds flat HTTP body chunks to the consumer in arrival order.
func (c *Client) pumpBody(d *driver, body io.Reader) {
	buf := make([]byte, 32*1024)
	for {
		n, err := body.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			if !d.feed(chunk) {
				// Consumer finished mid-stream: drop the chunk, stop
				// reading, settle with its value.
				d.terminate(ErrEndOfStream)
				return
			}
		}
		if err == io.EOF {
			d.terminate(ErrEndOfStream)
			return
		}
		if err != nil {
			d.terminate(&AbortError{Cause: err})
			return
		}
	}
}

// pumpFrames feeds reassembled WebSocket payloads to the consumer. A close
// frame ends the stream gracefully; decode failures abort the connection.
func (c *Client) pumpFrames(d *driver, body io.Reader) {
	fr := newFrameReader(body)
	for {
		payload, err := fr.Next()
		if err == io.EOF {
			d.terminate(ErrEndOfStream)
			return
		}
		if err != nil {
			d.terminate(&AbortError{Cause: err})
			return
		}
		if !d.feed(payload) {
			d.terminate(ErrEndOfStream)
			return
		}
	}
}

// open performs the HTTP round trip and returns the raw response, the
// Sec-WebSocket-Key used (upgrade requests only) and the transport to tear
// down afterwards.
func (c *Client) open(ctx context.Context, cfg Config) (*http.Response, string, *http.Transport, error) {
	method := cfg.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, cfg.URL(), nil)
	if err != nil {
		return nil, "", nil, &TransportError{Op: "build request", Err: err}
	}
	for k, vs := range cfg.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}
	if cfg.BearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+cfg.BearerToken)
	}

	var key string
	if cfg.Upgrade {
		key, err = secWebSocketKey()
		if err != nil {
			return nil, "", nil, &TransportError{Op: "handshake", Err: err}
		}
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		req.Header.Set("Sec-WebSocket-Version", "13")
		req.Header.Set("Sec-WebSocket-Key", key)
	}

	// HTTP/2 has no protocol upgrade and multiplexes streams we want to
	// hard-abort individually, so the client pins HTTP/1.1.
	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		TLSClientConfig:   cfg.TLS,
		ForceAttemptHTTP2: false,
	}
	resp, err := (&http.Client{Transport: transport}).Do(req)
	if err != nil {
		transport.CloseIdleConnections()
		return nil, "", nil, &TransportError{Op: "round trip", Err: err}
	}
	return resp, key, transport, nil
}
