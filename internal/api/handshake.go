package api

import (
	"fmt"
	"net/http"
	"strings"
)

// isWebSocketUpgrade reports whether r asks to switch to WebSocket: Upgrade
// must be "websocket" and Connection must mention "upgrade", both compared
// case-insensitively.
func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(strings.TrimSpace(r.Header.Get("Upgrade")), "websocket") &&
		strings.Contains(strings.ToLower(r.Header.Get("Connection")), "upgrade")
}

// checkHandshake validates an upgrade request before any session state exists.
func checkHandshake(r *http.Request) error {
	if r.Method != http.MethodGet {
		return fmt.Errorf("%w: method %s", ErrHandshakeRejected, r.Method)
	}
	if !isWebSocketUpgrade(r) {
		return fmt.Errorf("%w: upgrade=%q connection=%q",
			ErrHandshakeRejected, r.Header.Get("Upgrade"), r.Header.Get("Connection"))
	}
	return nil
}
