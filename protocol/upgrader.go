// File: protocol/upgrader.go
// Package protocol builds the client upgrade request.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Only the plain ws:// scheme is understood; there is no TLS and no
// general header negotiation.

package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/momentics/pollws/api"
)

// DefaultPort is used when a URL carries no explicit port.
const DefaultPort = 80

// Limits applied to client supplied upgrade parameters.
const (
	MaxURLLen    = 127
	MaxOriginLen = 199
)

// URL is a parsed ws:// address. Path has no leading slash.
type URL struct {
	Host string
	Port int
	Path string
}

// String renders u back to ws:// form.
func (u URL) String() string {
	return fmt.Sprintf("ws://%s:%d/%s", u.Host, u.Port, u.Path)
}

// HostHeader renders the Host value; the default port is left implicit.
func (u URL) HostHeader() string {
	if u.Port == DefaultPort {
		return u.Host
	}
	return u.Host + ":" + strconv.Itoa(u.Port)
}

// ParseURL accepts ws://host, ws://host:port, ws://host/path and
// ws://host:port/path.
func ParseURL(raw string) (URL, error) {
	var u URL
	if len(raw) > MaxURLLen {
		return u, api.NewError(api.ErrCodeInvalidArgument, "url too long").WithContext("url", raw)
	}
	rest, ok := strings.CutPrefix(raw, "ws://")
	if !ok {
		return u, api.NewError(api.ErrCodeNotSupported, "unsupported url scheme").WithContext("url", raw)
	}

	hostPort, path, _ := strings.Cut(rest, "/")
	host, port, hasPort := strings.Cut(hostPort, ":")
	if host == "" {
		return u, api.NewError(api.ErrCodeInvalidArgument, "missing host").WithContext("url", raw)
	}
	u.Host, u.Path, u.Port = host, path, DefaultPort
	if hasPort {
		p, err := strconv.Atoi(port)
		if err != nil || p <= 0 || p > 65535 {
			return URL{}, api.NewError(api.ErrCodeInvalidArgument, "invalid port").WithContext("url", raw)
		}
		u.Port = p
	}
	return u, nil
}

// UpgradeRequest renders the HTTP upgrade request for target. origin is
// omitted when empty or longer than MaxOriginLen.
func UpgradeRequest(target URL, origin string) []byte {
	var b strings.Builder
	b.WriteString("GET /" + target.Path + " HTTP/1.1\r\n")
	b.WriteString("Host: " + target.HostHeader() + "\r\n")
	b.WriteString("Upgrade: websocket\r\n")
	b.WriteString("Connection: Upgrade\r\n")
	if origin != "" && len(origin) <= MaxOriginLen {
		b.WriteString("Origin: " + origin + "\r\n")
	}
	b.WriteString("Sec-WebSocket-Key: " + ClientKey + "\r\n")
	b.WriteString("Sec-WebSocket-Version: 13\r\n")
	b.WriteString("\r\n")
	return []byte(b.String())
}
