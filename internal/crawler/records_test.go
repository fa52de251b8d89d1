package crawler_test

import (
	"context"
	"testing"
	"time"

	"github.com/jonesrussell/contactcrawl/internal/crawler"
	"github.com/jonesrussell/contactcrawl/internal/domain"
)

type fakeMX struct{ valid map[string]bool }

func (m fakeMX) Check(_ context.Context, email string) bool { return m.valid[email] }

func siteResult(t *testing.T) *domain.SiteResult {
	t.Helper()

	result := domain.NewSiteResult(mustSite(t, "acme.se"))
	result.Emails["info@acme.se"] = &domain.EmailInfo{
		Type:          domain.EmailTypeRole,
		Confidence:    1.0,
		Sources:       []string{domain.SourceMailto, domain.SourceInline},
		DiscoveryPath: domain.SourceMailto,
	}
	result.Emails["anna.svensson@acme.se"] = &domain.EmailInfo{
		Type:          domain.EmailTypeUnknown,
		Confidence:    0.8,
		Sources:       []string{domain.SourceInline},
		DiscoveryPath: domain.SourceInline,
	}
	result.Phones["+46840022270"] = struct{}{}
	result.Phones["+46701234567"] = struct{}{}
	result.Socials.LinkedIn = "https://www.linkedin.com/company/acme"
	result.SourcePages = []string{"https://acme.se", "https://acme.se/kontakt"}

	return result
}

func TestRecords(t *testing.T) {
	t.Parallel()

	c := newCrawler(t, crawler.Deps{Fetcher: &fakeFetcher{}})
	records := c.Records(context.Background(), siteResult(t), domain.CrawlConfig{Tags: "batch-7"})

	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}

	// Lexical email order.
	if records[0].Email != "anna.svensson@acme.se" || records[1].Email != "info@acme.se" {
		t.Errorf("order = %q, %q", records[0].Email, records[1].Email)
	}

	rec := records[1]

	if rec.SourceURL != "https://acme.se" || rec.Domain != "acme.se" {
		t.Errorf("source = %q domain = %q", rec.SourceURL, rec.Domain)
	}

	// First phone in lexical order.
	if rec.Phone != "+46701234567" {
		t.Errorf("phone = %q", rec.Phone)
	}

	if rec.ContactPage != "https://acme.se/kontakt" {
		t.Errorf("contactPage = %q", rec.ContactPage)
	}

	if rec.DiscoveryPath != domain.SourceMailto {
		t.Errorf("discoveryPath = %q, want mailto", rec.DiscoveryPath)
	}

	if rec.RawEvidence != "found via mailto, inline" {
		t.Errorf("rawEvidence = %q", rec.RawEvidence)
	}

	if rec.Tags != "batch-7" {
		t.Errorf("tags = %q", rec.Tags)
	}

	if rec.MXValid != nil {
		t.Error("MXValid must be unset when the check is disabled")
	}

	if time.Since(rec.Timestamp) > time.Minute || rec.Timestamp.Location() != time.UTC {
		t.Errorf("timestamp = %v", rec.Timestamp)
	}
}

func TestRecords_MXCheck(t *testing.T) {
	t.Parallel()

	c := newCrawler(t, crawler.Deps{
		Fetcher: &fakeFetcher{},
		MX:      fakeMX{valid: map[string]bool{"info@acme.se": true}},
	})

	records := c.Records(context.Background(), siteResult(t), domain.CrawlConfig{})

	for _, rec := range records {
		if rec.MXValid == nil {
			t.Fatalf("MXValid unset for %s", rec.Email)
		}

		want := rec.Email == "info@acme.se"
		if *rec.MXValid != want {
			t.Errorf("MXValid(%s) = %v, want %v", rec.Email, *rec.MXValid, want)
		}
	}
}

func TestRecords_EmptyResult(t *testing.T) {
	t.Parallel()

	c := newCrawler(t, crawler.Deps{Fetcher: &fakeFetcher{}})
	result := domain.NewSiteResult(mustSite(t, "acme.se"))

	if records := c.Records(context.Background(), result, domain.CrawlConfig{}); records != nil {
		t.Errorf("records = %v, want nil", records)
	}
}
