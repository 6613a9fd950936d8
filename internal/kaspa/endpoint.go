package kaspa

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// DefaultPort is the kaspad RPC port used when the URL names none.
const DefaultPort = 16110

// Endpoint is the node address a bridge talks to. It is derived once from the
// configured URL and never changes.
type Endpoint struct {
	Host string
	Port int
	TLS  bool
}

var schemes = []string{"http://", "https://", "grpc://"}

// ParseEndpoint strips the scheme and any path from rawURL and splits the
// remainder into host and port.
func ParseEndpoint(rawURL string) (Endpoint, error) {
	s := strings.TrimSpace(rawURL)
	var ep Endpoint
	for _, scheme := range schemes {
		if strings.HasPrefix(s, scheme) {
			ep.TLS = scheme == "https://"
			s = s[len(scheme):]
			break
		}
	}
	if i := strings.IndexByte(s, '/'); i >= 0 {
		s = s[:i]
	}

	parts := strings.Split(s, ":")
	if len(parts) > 2 {
		return Endpoint{}, fmt.Errorf("parse endpoint %q: too many ':' separators", rawURL)
	}
	ep.Host = parts[0]
	if ep.Host == "" {
		return Endpoint{}, fmt.Errorf("parse endpoint %q: missing host", rawURL)
	}

	ep.Port = DefaultPort
	if len(parts) == 2 && parts[1] != "" {
		port, err := strconv.Atoi(parts[1])
		if err != nil || port < 1 || port > 65535 {
			return Endpoint{}, fmt.Errorf("parse endpoint %q: invalid port %q", rawURL, parts[1])
		}
		ep.Port = port
	}
	return ep, nil
}

// Addr returns host:port.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// URL returns the HTTP URL JSON-RPC requests are posted to.
func (e Endpoint) URL() string {
	scheme := "http"
	if e.TLS {
		scheme = "https"
	}
	return scheme + "://" + e.Addr() + "/"
}

func (e Endpoint) String() string { return e.Addr() }
