package safeurl_test

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/jonesrussell/contactcrawl/internal/safeurl"
)

// fakeResolver returns fixed addresses for every lookup.
type fakeResolver struct {
	addrs []net.IPAddr
	err   error
}

func (f *fakeResolver) LookupIPAddr(_ context.Context, _ string) ([]net.IPAddr, error) {
	return f.addrs, f.err
}

func resolverFor(ips ...string) *fakeResolver {
	addrs := make([]net.IPAddr, len(ips))
	for i, ip := range ips {
		addrs[i] = net.IPAddr{IP: net.ParseIP(ip)}
	}
	return &fakeResolver{addrs: addrs}
}

func TestCheck_SchemeFilter(t *testing.T) {
	t.Parallel()

	gate := safeurl.NewWithResolver(resolverFor("93.184.216.34"))

	if err := gate.Check(context.Background(), "ftp://example.se/"); !errors.Is(err, safeurl.ErrUnsupportedScheme) {
		t.Errorf("ftp: got %v, want ErrUnsupportedScheme", err)
	}

	if err := gate.Check(context.Background(), "https://example.se/"); err != nil {
		t.Errorf("https: got %v, want nil", err)
	}
}

func TestCheck_IPLiterals(t *testing.T) {
	t.Parallel()

	gate := safeurl.NewWithResolver(resolverFor())

	blocked := []string{
		"http://127.0.0.1/",
		"http://10.0.0.5/",
		"http://172.16.0.1/",
		"http://192.168.1.1/",
		"http://169.254.10.10/",
		"http://0.0.0.0/",
		"http://0.1.2.3/",
		"http://[::1]/",
		"http://[fe80::1]/",
		"http://[fc00::1]/",
	}

	for _, u := range blocked {
		if err := gate.Check(context.Background(), u); !errors.Is(err, safeurl.ErrPrivateIP) {
			t.Errorf("Check(%q) = %v, want ErrPrivateIP", u, err)
		}
	}

	if err := gate.Check(context.Background(), "http://93.184.216.34/"); err != nil {
		t.Errorf("public IP rejected: %v", err)
	}
}

func TestCheck_DNSRebindingGuard(t *testing.T) {
	t.Parallel()

	// evil.com resolves to one public and one private address.
	gate := safeurl.NewWithResolver(resolverFor("93.184.216.34", "10.0.0.5"))

	err := gate.Check(context.Background(), "https://evil.com/")
	if !errors.Is(err, safeurl.ErrPrivateIP) {
		t.Errorf("got %v, want ErrPrivateIP", err)
	}
}

func TestCheck_DNSFailureAllows(t *testing.T) {
	t.Parallel()

	gate := safeurl.NewWithResolver(&fakeResolver{err: errors.New("no such host")})

	if err := gate.Check(context.Background(), "https://unresolvable.se/"); err != nil {
		t.Errorf("DNS failure should allow the URL, got %v", err)
	}
}
