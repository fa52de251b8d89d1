package email

import (
	"context"
	"net"
	"strings"
)

// MXLookup resolves MX records for a domain. Matches net.Resolver.
type MXLookup func(ctx context.Context, domain string) ([]*net.MX, error)

// MXChecker validates that an email's domain can receive mail. The check
// is advisory: it never changes classification, only the mxValid flag on
// the evidence.
type MXChecker struct {
	enabled bool
	lookup  MXLookup
}

// NewMXChecker creates a checker. When disabled, Check always returns true.
func NewMXChecker(enabled bool) *MXChecker {
	return &MXChecker{
		enabled: enabled,
		lookup:  net.DefaultResolver.LookupMX,
	}
}

// NewMXCheckerWithLookup creates a checker with a custom resolver for tests.
func NewMXCheckerWithLookup(enabled bool, lookup MXLookup) *MXChecker {
	return &MXChecker{enabled: enabled, lookup: lookup}
}

// Check reports whether the email's domain has at least one MX record.
func (c *MXChecker) Check(ctx context.Context, email string) bool {
	if !c.enabled {
		return true
	}

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}

	records, err := c.lookup(ctx, email[at+1:])
	if err != nil {
		return false
	}

	return len(records) > 0
}
