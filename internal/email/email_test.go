package email_test

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/jonesrussell/contactcrawl/internal/domain"
	"github.com/jonesrussell/contactcrawl/internal/email"
)

func TestClean(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{"kept and lowercased", "  Info@Acme.SE ", "info@acme.se", true},
		{"com tld", "vd@acme.com", "vd@acme.com", true},
		{"nu tld", "hej@acme.nu", "hej@acme.nu", true},
		{"disallowed tld", "info@acme.xyz", "", false},
		{"noreply junk", "noreply@acme.se", "", false},
		{"donotreply junk", "donotreply@acme.se", "", false},
		{"example domain", "info@example.com", "", false},
		{"test localpart", "test@acme.se", "", false},
		{"placeholder", "placeholder@acme.se", "", false},
		{"escaped html junk", "info@acme.seu003e", "", false},
		{"bad format", "not-an-email", "", false},
		{"double dots", "a..b@acme.se", "", false},
		{"empty", "   ", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := email.Clean(tc.raw)
			if ok != tc.ok {
				t.Fatalf("Clean(%q) ok = %v, want %v", tc.raw, ok, tc.ok)
			}

			if got != tc.want {
				t.Errorf("Clean(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		email    string
		siteHost string
		want     domain.EmailType
	}{
		{"info is role", "info@acme.se", "acme.se", domain.EmailTypeRole},
		{"kontakt is role", "kontakt@other.se", "acme.se", domain.EmailTypeRole},
		{"gmail is personal", "anna.svensson@gmail.com", "acme.se", domain.EmailTypePersonal},
		{"icloud is personal", "bo@icloud.com", "acme.se", domain.EmailTypePersonal},
		{"named on company domain is role", "anna@acme.se", "acme.se", domain.EmailTypeRole},
		{"initials on company domain is generic", "ab@acme.se", "acme.se", domain.EmailTypeGeneric},
		{"subdomain site matches", "anna@acme.se", "shop.acme.se", domain.EmailTypeRole},
		{"foreign domain is unknown", "anna@other.se", "acme.se", domain.EmailTypeUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := email.Classify(tc.email, tc.siteHost); got != tc.want {
				t.Errorf("Classify(%q, %q) = %q, want %q", tc.email, tc.siteHost, got, tc.want)
			}
		})
	}
}

func TestScore(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		email    string
		siteHost string
		want     int
	}{
		// 50 + 30 company + 20 role + 10 role localpart.
		{"role on company domain", "info@acme.se", "acme.se", 100},
		// 50 + 20 role + 10 role localpart.
		{"role off domain", "info@other.se", "acme.se", 80},
		// 50 - 10 personal.
		{"personal", "anna@gmail.com", "acme.se", 40},
		// 50 + 30 company - 20 generic.
		{"generic on company domain", "ab@acme.se", "acme.se", 60},
		// 50 + 0 unknown.
		{"unknown", "anna@other.se", "acme.se", 50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			emailType := email.Classify(tc.email, tc.siteHost)

			if got := email.Score(tc.email, tc.siteHost, emailType); got != tc.want {
				t.Errorf("Score(%q) = %d, want %d", tc.email, got, tc.want)
			}
		})
	}
}

func TestScore_Clamped(t *testing.T) {
	t.Parallel()

	// noreply and test penalties together drive the raw score below zero.
	got := email.Score("noreply-test@other.xyz", "acme.se", domain.EmailTypeGeneric)
	if got < 0 || got > 100 {
		t.Errorf("Score = %d, want within [0,100]", got)
	}

	if got != 0 {
		t.Errorf("Score = %d, want 0", got)
	}
}

func TestConfidence(t *testing.T) {
	t.Parallel()

	if got := email.Confidence(90); got != 0.9 {
		t.Errorf("Confidence(90) = %v, want 0.9", got)
	}
}

func TestMXChecker(t *testing.T) {
	t.Parallel()

	hasMX := email.NewMXCheckerWithLookup(true, func(_ context.Context, _ string) ([]*net.MX, error) {
		return []*net.MX{{Host: "mail.acme.se"}}, nil
	})

	if !hasMX.Check(context.Background(), "info@acme.se") {
		t.Error("expected MX check to pass")
	}

	noMX := email.NewMXCheckerWithLookup(true, func(_ context.Context, _ string) ([]*net.MX, error) {
		return nil, errors.New("no such domain")
	})

	if noMX.Check(context.Background(), "info@acme.se") {
		t.Error("expected MX check to fail")
	}

	disabled := email.NewMXCheckerWithLookup(false, func(_ context.Context, _ string) ([]*net.MX, error) {
		return nil, errors.New("should not be called")
	})

	if !disabled.Check(context.Background(), "info@acme.se") {
		t.Error("disabled checker must always pass")
	}
}
