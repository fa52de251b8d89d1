// Package extract pulls contact evidence out of parsed HTML documents.
// Four independent email sub-extractors run per page, each tagging its
// evidence with a discovery source and confidence.
package extract

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/contactcrawl/internal/domain"
	"github.com/jonesrussell/contactcrawl/internal/phone"
)

// Sub-extractor confidences.
const (
	confidenceJSONLD     = 0.95
	confidenceMailto     = 0.85
	confidenceFooter     = 0.60
	confidenceInlineHigh = 0.70
	confidenceInlineLow  = 0.50
)

// maxContactLinks caps contact-page discovery per page.
const maxContactLinks = 5

// inlineEmailPattern matches email addresses in running text.
var inlineEmailPattern = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,24}`)

// keyPagePattern identifies contact-like paths and link texts.
var keyPagePattern = regexp.MustCompile(`(?i)(kontakt|kontakta|about|om|team|medarbetare|personal|ledning|contact)`)

// Evidence is the raw extraction outcome for one page. Emails are
// uncleaned; phones are already normalized to E.164.
type Evidence struct {
	Emails  []domain.EmailHit
	Phones  []string
	Socials domain.Socials
}

// Page parses HTML and runs every sub-extractor. pageURL scopes the inline
// extractor's confidence: contact-like paths yield stronger evidence.
func Page(pageURL, html string) (*Evidence, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	ev := &Evidence{}

	extractJSONLD(doc, ev)
	extractMailto(doc, ev)
	extractFooterMailto(doc, ev)
	extractInline(doc, pageURL, ev)
	extractPhones(doc, ev)

	return ev, nil
}

// extractMailto collects every mailto anchor on the page.
func extractMailto(doc *goquery.Document, ev *Evidence) {
	doc.Find(`a[href^="mailto:"]`).Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if email := cleanMailto(href); email != "" {
			ev.Emails = append(ev.Emails, domain.EmailHit{
				Email:      email,
				Source:     domain.SourceMailto,
				Confidence: confidenceMailto,
			})
		}
	})
}

// extractFooterMailto collects mailto anchors scoped to the page footer.
func extractFooterMailto(doc *goquery.Document, ev *Evidence) {
	doc.Find(`footer a[href^="mailto:"]`).Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if email := cleanMailto(href); email != "" {
			ev.Emails = append(ev.Emails, domain.EmailHit{
				Email:      email,
				Source:     domain.SourceFooter,
				Confidence: confidenceFooter,
			})
		}
	})
}

// extractInline scans the body text for address-shaped strings.
func extractInline(doc *goquery.Document, pageURL string, ev *Evidence) {
	confidence := confidenceInlineLow
	if isContactLikePath(pageURL) {
		confidence = confidenceInlineHigh
	}

	text := doc.Find("body").Text()
	for _, match := range inlineEmailPattern.FindAllString(text, -1) {
		ev.Emails = append(ev.Emails, domain.EmailHit{
			Email:      match,
			Source:     domain.SourceInline,
			Confidence: confidence,
		})
	}
}

// extractPhones collects tel: hrefs and scans body text for candidates.
func extractPhones(doc *goquery.Document, ev *Evidence) {
	seen := make(map[string]struct{})

	add := func(e164 string) {
		if _, dup := seen[e164]; dup {
			return
		}
		seen[e164] = struct{}{}
		ev.Phones = append(ev.Phones, e164)
	}

	doc.Find(`a[href^="tel:"]`).Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		candidate := strings.TrimPrefix(href, "tel:")
		if e164, ok := phone.Normalize(candidate); ok {
			add(e164)
		}
	})

	for _, e164 := range phone.Extract(doc.Find("body").Text()) {
		add(e164)
	}
}

// ContactLinks discovers same-host anchors pointing at contact-like pages.
// Results are deduplicated and capped.
func ContactLinks(pageURL string, html string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var links []string
	seen := make(map[string]struct{})

	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")

		resolved, err := base.Parse(href)
		if err != nil || resolved.Hostname() != base.Hostname() {
			return true
		}

		if !keyPagePattern.MatchString(resolved.Path) && !keyPagePattern.MatchString(sel.Text()) {
			return true
		}

		resolved.Fragment = ""
		link := resolved.String()

		if _, dup := seen[link]; dup {
			return true
		}
		seen[link] = struct{}{}
		links = append(links, link)

		return len(links) < maxContactLinks
	})

	return links
}

// cleanMailto strips the scheme and any query from a mailto href.
func cleanMailto(href string) string {
	email := strings.TrimPrefix(href, "mailto:")
	if i := strings.Index(email, "?"); i >= 0 {
		email = email[:i]
	}
	return strings.TrimSpace(email)
}

// isContactLikePath reports whether the URL path looks like a contact or
// about page.
func isContactLikePath(pageURL string) bool {
	parsed, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	return keyPagePattern.MatchString(parsed.Path)
}
