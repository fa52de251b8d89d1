package extract_test

import (
	"reflect"
	"testing"

	"github.com/jonesrussell/contactcrawl/internal/domain"
	"github.com/jonesrussell/contactcrawl/internal/extract"
)

func TestPage_Mailto(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<a href="mailto:info@acme.se">Maila oss</a>
		<a href="mailto:sales@acme.se?subject=Offert">Offert</a>
	</body></html>`

	ev, err := extract.Page("https://acme.se/", html)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}

	got := hitsBySource(ev.Emails, domain.SourceMailto)
	want := []string{"info@acme.se", "sales@acme.se"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("mailto emails = %v, want %v", got, want)
	}

	for _, hit := range ev.Emails {
		if hit.Source == domain.SourceMailto && hit.Confidence != 0.85 {
			t.Errorf("mailto confidence = %v, want 0.85", hit.Confidence)
		}
	}
}

func TestPage_FooterScopesSeparately(t *testing.T) {
	t.Parallel()

	// A footer mailto is reported by both the mailto and the footer
	// sub-extractors; the merge step picks per-email precedence later.
	html := `<html><body>
		<footer><a href="mailto:info@acme.se">info@acme.se</a></footer>
	</body></html>`

	ev, err := extract.Page("https://acme.se/", html)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}

	if got := hitsBySource(ev.Emails, domain.SourceMailto); len(got) != 1 {
		t.Errorf("mailto hits = %v, want one", got)
	}

	if got := hitsBySource(ev.Emails, domain.SourceFooter); len(got) != 1 {
		t.Errorf("footer hits = %v, want one", got)
	}
}

func TestPage_InlineConfidenceByPath(t *testing.T) {
	t.Parallel()

	html := `<html><body><p>Kontakta oss: info@acme.se</p></body></html>`

	cases := []struct {
		name string
		url  string
		want float64
	}{
		{"contact page", "https://acme.se/kontakt", 0.70},
		{"about page", "https://acme.se/om-oss", 0.70},
		{"root page", "https://acme.se/", 0.50},
		{"product page", "https://acme.se/produkter", 0.50},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ev, err := extract.Page(tc.url, html)
			if err != nil {
				t.Fatalf("Page: %v", err)
			}

			var found bool
			for _, hit := range ev.Emails {
				if hit.Source != domain.SourceInline {
					continue
				}
				found = true
				if hit.Confidence != tc.want {
					t.Errorf("inline confidence = %v, want %v", hit.Confidence, tc.want)
				}
			}

			if !found {
				t.Error("expected an inline hit")
			}
		})
	}
}

func TestPage_JSONLD(t *testing.T) {
	t.Parallel()

	html := `<html><head>
	<script type="application/ld+json">
	{
		"@context": "https://schema.org",
		"@type": "LocalBusiness",
		"name": "Acme AB",
		"email": "mailto:info@acme.se",
		"telephone": "08-400 222 70",
		"sameAs": ["https://www.linkedin.com/company/acme", "https://x.com/acme"],
		"contactPoint": {"email": "support@acme.se", "telephone": "070-123 45 67"}
	}
	</script>
	</head><body></body></html>`

	ev, err := extract.Page("https://acme.se/", html)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}

	got := hitsBySource(ev.Emails, domain.SourceJSONLD)
	want := []string{"info@acme.se", "support@acme.se"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("json-ld emails = %v, want %v", got, want)
	}

	for _, hit := range ev.Emails {
		if hit.Source == domain.SourceJSONLD && hit.Confidence != 0.95 {
			t.Errorf("json-ld confidence = %v, want 0.95", hit.Confidence)
		}
	}

	wantPhones := []string{"+46840022270", "+46701234567"}
	if !reflect.DeepEqual(ev.Phones, wantPhones) {
		t.Errorf("phones = %v, want %v", ev.Phones, wantPhones)
	}

	if ev.Socials.LinkedIn != "https://www.linkedin.com/company/acme" {
		t.Errorf("LinkedIn = %q", ev.Socials.LinkedIn)
	}

	if ev.Socials.X != "https://x.com/acme" {
		t.Errorf("X = %q", ev.Socials.X)
	}
}

func TestPage_JSONLDGraphAndNonOrganization(t *testing.T) {
	t.Parallel()

	html := `<html><head>
	<script type="application/ld+json">
	{
		"@graph": [
			{"@type": "WebSite", "email": "ignored@acme.se"},
			{"@type": ["Thing", "Organization"], "email": "info@acme.se"}
		]
	}
	</script>
	<script type="application/ld+json">not json at all</script>
	</head><body></body></html>`

	ev, err := extract.Page("https://acme.se/", html)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}

	got := hitsBySource(ev.Emails, domain.SourceJSONLD)
	want := []string{"info@acme.se"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("json-ld emails = %v, want %v", got, want)
	}
}

func TestPage_Phones(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<a href="tel:08-400 222 70">Ring oss</a>
		<p>Växel: 08-400 222 70. Mobil: 070-123 45 67.</p>
	</body></html>`

	ev, err := extract.Page("https://acme.se/", html)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}

	want := []string{"+46840022270", "+46701234567"}
	if !reflect.DeepEqual(ev.Phones, want) {
		t.Errorf("phones = %v, want %v", ev.Phones, want)
	}
}

func TestContactLinks(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<a href="/kontakt">Kontakt</a>
		<a href="/om-oss">Om oss</a>
		<a href="/kontakt">Kontakt igen</a>
		<a href="/produkter">Produkter</a>
		<a href="/ledning#team">Ledning</a>
		<a href="https://other.se/kontakt">Extern</a>
	</body></html>`

	got := extract.ContactLinks("https://acme.se/", html)
	want := []string{
		"https://acme.se/kontakt",
		"https://acme.se/om-oss",
		"https://acme.se/ledning",
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ContactLinks = %v, want %v", got, want)
	}
}

func TestContactLinks_MatchesLinkText(t *testing.T) {
	t.Parallel()

	html := `<html><body><a href="/sida-7">Kontakta oss</a></body></html>`

	got := extract.ContactLinks("https://acme.se/", html)
	want := []string{"https://acme.se/sida-7"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("ContactLinks = %v, want %v", got, want)
	}
}

func TestContactLinks_Cap(t *testing.T) {
	t.Parallel()

	html := `<html><body>
		<a href="/kontakt-1">k</a><a href="/kontakt-2">k</a>
		<a href="/kontakt-3">k</a><a href="/kontakt-4">k</a>
		<a href="/kontakt-5">k</a><a href="/kontakt-6">k</a>
	</body></html>`

	if got := extract.ContactLinks("https://acme.se/", html); len(got) != 5 {
		t.Errorf("len = %d, want 5", len(got))
	}
}

func hitsBySource(hits []domain.EmailHit, source string) []string {
	var emails []string
	for _, hit := range hits {
		if hit.Source == source {
			emails = append(emails, hit.Email)
		}
	}
	return emails
}
