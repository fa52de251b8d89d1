// Package suppress holds the runtime-mutable Do-Not-Contact and
// terms-of-service suppression lists.
package suppress

import (
	"strings"
	"sync"
)

// DNCReason is recorded on sites skipped by the Do-Not-Contact list.
const DNCReason = "Domain on Do-Not-Contact list"

// DNCList is a set of domains the operator commits never to crawl. A host
// matches when it equals a listed domain or is a dot-suffix of one.
type DNCList struct {
	mu      sync.RWMutex
	domains map[string]struct{}
}

// NewDNCList creates a list seeded with the given domains.
func NewDNCList(domains ...string) *DNCList {
	l := &DNCList{domains: make(map[string]struct{}, len(domains))}
	for _, d := range domains {
		l.Add(d)
	}
	return l
}

// Add inserts a domain.
func (l *DNCList) Add(domain string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.domains[strings.ToLower(strings.TrimSpace(domain))] = struct{}{}
}

// Remove deletes a domain.
func (l *DNCList) Remove(domain string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.domains, strings.ToLower(strings.TrimSpace(domain)))
}

// Has reports whether host is suppressed.
func (l *DNCList) Has(host string) bool {
	host = strings.ToLower(host)

	l.mu.RLock()
	defer l.mu.RUnlock()

	for d := range l.domains {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}

	return false
}

// TOSList maps domain fragments to advisory reasons. A match does not stop
// the crawl; the reason is appended to the site's errors.
type TOSList struct {
	mu      sync.RWMutex
	reasons map[string]string
}

// NewTOSList creates a list pre-seeded with platforms whose terms forbid
// automated contact harvesting.
func NewTOSList() *TOSList {
	return &TOSList{reasons: map[string]string{
		"linkedin.com":  "LinkedIn terms of service prohibit scraping",
		"facebook.com":  "Facebook terms of service prohibit scraping",
		"instagram.com": "Instagram terms of service prohibit scraping",
		"twitter.com":   "Twitter terms of service prohibit scraping",
		"x.com":         "X terms of service prohibit scraping",
	}}
}

// Add inserts or replaces a domain fragment with its reason.
func (l *TOSList) Add(domain, reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reasons[strings.ToLower(strings.TrimSpace(domain))] = reason
}

// Remove deletes a domain fragment.
func (l *TOSList) Remove(domain string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.reasons, strings.ToLower(strings.TrimSpace(domain)))
}

// Check returns the advisory reason for a host, if any. The match is a
// substring match, unlike the strict DNC suffix match.
func (l *TOSList) Check(host string) (string, bool) {
	host = strings.ToLower(host)

	l.mu.RLock()
	defer l.mu.RUnlock()

	for d, reason := range l.reasons {
		if strings.Contains(host, d) {
			return reason, true
		}
	}

	return "", false
}
