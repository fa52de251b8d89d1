// Package safeurl guards the fetcher against server-side request forgery.
// It rejects non-HTTP(S) URLs and any target that is, or resolves to, a
// private, loopback or link-local address.
package safeurl

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Sentinel reasons for rejected URLs.
var (
	ErrUnsupportedScheme = errors.New("only http and https URLs are allowed")
	ErrPrivateIP         = errors.New("private IP address blocked")
)

// Resolver looks up IP addresses for a host. Matches net.Resolver.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Gate validates URLs before any network contact.
type Gate struct {
	resolver Resolver
}

// New creates a Gate using the default DNS resolver.
func New() *Gate {
	return &Gate{resolver: net.DefaultResolver}
}

// NewWithResolver creates a Gate with a custom resolver, used in tests.
func NewWithResolver(resolver Resolver) *Gate {
	return &Gate{resolver: resolver}
}

// Check returns nil when the URL is safe to fetch. An IP-literal host is
// matched against the blocklist directly; a hostname is resolved and every
// returned address must pass (DNS-rebinding guard). DNS failure is not
// fatal: the fetch will fail on its own.
func (g *Gate) Check(ctx context.Context, rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ErrUnsupportedScheme
	}

	host := parsed.Hostname()
	if host == "" {
		return fmt.Errorf("no host in url %q", rawURL)
	}

	if ip := net.ParseIP(host); ip != nil {
		if isBlockedIP(ip) {
			return ErrPrivateIP
		}
		return nil
	}

	addrs, err := g.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return nil
	}

	for _, addr := range addrs {
		if isBlockedIP(addr.IP) {
			return ErrPrivateIP
		}
	}

	return nil
}

// isBlockedIP reports whether the address falls in a range the crawler must
// never touch: loopback, RFC1918, link-local, unique-local and 0.0.0.0/8.
func isBlockedIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsPrivate() {
		return true
	}

	if ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}

	if ip.IsUnspecified() {
		return true
	}

	// 0.0.0.0/8 beyond the unspecified address itself.
	if v4 := ip.To4(); v4 != nil && v4[0] == 0 {
		return true
	}

	// fc00::/7 unique-local.
	if v4 := ip.To4(); v4 == nil && len(ip) == net.IPv6len && ip[0]&0xfe == 0xfc {
		return true
	}

	return false
}
