package domain

import "sort"

// Discovery source names, in the order extractors run.
const (
	SourceJSONLD = "json-ld"
	SourceMailto = "mailto"
	SourceFooter = "footer"
	SourceInline = "inline"
)

// EmailHit is one piece of email evidence emitted by an extractor.
type EmailHit struct {
	Email      string  `json:"email"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
}

// Socials holds per-site social profile links. First non-empty value wins.
type Socials struct {
	LinkedIn string `json:"linkedin,omitempty"`
	Facebook string `json:"facebook,omitempty"`
	X        string `json:"x,omitempty"`
}

// Adopt fills empty fields from other, never overwriting a set field.
func (s *Socials) Adopt(other Socials) {
	if s.LinkedIn == "" {
		s.LinkedIn = other.LinkedIn
	}
	if s.Facebook == "" {
		s.Facebook = other.Facebook
	}
	if s.X == "" {
		s.X = other.X
	}
}

// PageResult is the cacheable outcome of crawling one URL. Pure value.
type PageResult struct {
	Emails  []EmailHit `json:"emails"`
	Phones  []string   `json:"phones"`
	Socials Socials    `json:"socials"`
}

// EmailInfo is the aggregated, classified view of one email within a site
// result. Classification happens once, on first sighting; later sightings
// only append sources.
type EmailInfo struct {
	Type          EmailType `json:"emailType"`
	Confidence    float64   `json:"confidence"`
	Sources       []string  `json:"sources"`
	DiscoveryPath string    `json:"discoveryPath"`
}

// SiteError records a per-URL or per-site failure reason.
type SiteError struct {
	URL    string `json:"url,omitempty"`
	Reason string `json:"reason"`
}

// SiteResult aggregates everything discovered for one site.
type SiteResult struct {
	CompanyName string                `json:"companyName"`
	Website     string                `json:"website"`
	Domain      string                `json:"domain"`
	Emails      map[string]*EmailInfo `json:"emails"`
	Phones      map[string]struct{}   `json:"phones"`
	Socials     Socials               `json:"socials"`
	SourcePages []string              `json:"sourcePages"`
	Errors      []SiteError           `json:"errors"`
}

// NewSiteResult creates an empty aggregate for the given site.
func NewSiteResult(site Site) *SiteResult {
	return &SiteResult{
		CompanyName: site.CompanyName,
		Website:     site.RootURL,
		Domain:      site.Host,
		Emails:      make(map[string]*EmailInfo),
		Phones:      make(map[string]struct{}),
	}
}

// RecordError appends a failure to the site's error list.
func (r *SiteResult) RecordError(url, reason string) {
	r.Errors = append(r.Errors, SiteError{URL: url, Reason: reason})
}

// SortedPhones returns the phone set in lexical order, so downstream output
// is stable across runs.
func (r *SiteResult) SortedPhones() []string {
	phones := make([]string, 0, len(r.Phones))
	for p := range r.Phones {
		phones = append(phones, p)
	}
	sort.Strings(phones)
	return phones
}
