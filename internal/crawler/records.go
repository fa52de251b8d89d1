package crawler

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jonesrussell/contactcrawl/internal/domain"
)

// contactPagePattern picks the site's contact page out of the source pages.
var contactPagePattern = regexp.MustCompile(`(?i)kontakt|contact`)

// Records builds one ContactRecord per aggregated email, in lexical email
// order so output is stable across runs. The optional MX check runs here,
// on the final addresses only; a failed check flags the record but never
// drops it.
func (c *Crawler) Records(ctx context.Context, result *domain.SiteResult, cfg domain.CrawlConfig) []domain.ContactRecord {
	if len(result.Emails) == 0 {
		return nil
	}

	emails := make([]string, 0, len(result.Emails))
	for e := range result.Emails {
		emails = append(emails, e)
	}
	sort.Strings(emails)

	var phone string
	if phones := result.SortedPhones(); len(phones) > 0 {
		phone = phones[0]
	}

	contactPage := firstContactPage(result.SourcePages)
	now := time.Now().UTC()

	records := make([]domain.ContactRecord, 0, len(emails))
	for _, addr := range emails {
		info := result.Emails[addr]

		record := domain.ContactRecord{
			SourceURL:     result.Website,
			Domain:        result.Domain,
			Email:         addr,
			EmailType:     info.Type,
			Confidence:    info.Confidence,
			DiscoveryPath: info.DiscoveryPath,
			Phone:         phone,
			ContactPage:   contactPage,
			Social:        result.Socials,
			RawEvidence:   "found via " + strings.Join(info.Sources, ", "),
			Tags:          cfg.Tags,
			Timestamp:     now,
		}

		if c.mxOn {
			valid := c.deps.MX.Check(ctx, addr)
			record.MXValid = &valid
		}

		records = append(records, record)
	}

	return records
}

// firstContactPage returns the first crawled page that looks like a contact
// page, or empty.
func firstContactPage(pages []string) string {
	for _, p := range pages {
		if contactPagePattern.MatchString(p) {
			return p
		}
	}
	return ""
}
