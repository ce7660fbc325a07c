package restclient

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

// RFC 6455 §1.3 handshake GUID.
const websocketGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

func secWebSocketKey() (string, error) {
	var nonce [16]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("websocket nonce: %w", err)
	}
	return base64.StdEncoding.EncodeToString(nonce[:]), nil
}

func secWebSocketAccept(key string) string {
	sum := sha1.Sum([]byte(key + websocketGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// validateUpgrade checks the server's side of the handshake on a 101
// response: Upgrade/Connection headers and the accept key derived from ours.
func validateUpgrade(resp *http.Response, key string) error {
	if !strings.EqualFold(resp.Header.Get("Upgrade"), "websocket") {
		return fmt.Errorf("server did not upgrade to websocket (Upgrade: %q)", resp.Header.Get("Upgrade"))
	}
	if !strings.EqualFold(resp.Header.Get("Connection"), "upgrade") {
		return fmt.Errorf("server did not keep the connection (Connection: %q)", resp.Header.Get("Connection"))
	}
	if got, want := resp.Header.Get("Sec-Websocket-Accept"), secWebSocketAccept(key); got != want {
		return fmt.Errorf("Sec-WebSocket-Accept mismatch: got %q", got)
	}
	return nil
}
