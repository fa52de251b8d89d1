package extract

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jonesrussell/contactcrawl/internal/domain"
	"github.com/jonesrussell/contactcrawl/internal/phone"
)

// organizationTypes are the schema.org types whose contact details we trust.
var organizationTypes = map[string]struct{}{
	"Organization":        {},
	"LocalBusiness":       {},
	"Corporation":         {},
	"Store":               {},
	"ProfessionalService": {},
}

// jsonldEntity is the subset of schema.org fields the extractor reads.
// Fields that may be a single value or an array are raw messages.
type jsonldEntity struct {
	Type         json.RawMessage `json:"@type"`
	Graph        []jsonldEntity  `json:"@graph"`
	Email        string          `json:"email"`
	Telephone    string          `json:"telephone"`
	SameAs       json.RawMessage `json:"sameAs"`
	ContactPoint json.RawMessage `json:"contactPoint"`
}

// jsonldContactPoint is a schema.org ContactPoint.
type jsonldContactPoint struct {
	Email     string `json:"email"`
	Telephone string `json:"telephone"`
}

// extractJSONLD parses every ld+json script block and collects contact
// details from organization-typed entities, including @graph members.
func extractJSONLD(doc *goquery.Document, ev *Evidence) {
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		raw := strings.TrimSpace(sel.Text())
		if raw == "" {
			return
		}

		for _, entity := range parseEntities([]byte(raw)) {
			collectEntity(entity, ev)
		}
	})
}

// parseEntities decodes a script body that may hold a single entity or an
// array of them. Malformed JSON is skipped silently.
func parseEntities(raw []byte) []jsonldEntity {
	var single jsonldEntity
	if err := json.Unmarshal(raw, &single); err == nil {
		return []jsonldEntity{single}
	}

	var many []jsonldEntity
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}

	return nil
}

func collectEntity(entity jsonldEntity, ev *Evidence) {
	for _, nested := range entity.Graph {
		collectEntity(nested, ev)
	}

	if !isOrganization(entity.Type) {
		return
	}

	addJSONLDEmail(entity.Email, ev)
	addJSONLDPhone(entity.Telephone, ev)

	for _, link := range stringOrSlice(entity.SameAs) {
		ev.Socials.Adopt(socialsFromLink(link))
	}

	for _, cp := range contactPoints(entity.ContactPoint) {
		addJSONLDEmail(cp.Email, ev)
		addJSONLDPhone(cp.Telephone, ev)
	}
}

// isOrganization accepts @type given as a string or an array of strings.
func isOrganization(raw json.RawMessage) bool {
	for _, t := range stringOrSlice(raw) {
		if _, ok := organizationTypes[t]; ok {
			return true
		}
	}
	return false
}

func addJSONLDEmail(email string, ev *Evidence) {
	email = strings.TrimSpace(strings.TrimPrefix(email, "mailto:"))
	if email == "" {
		return
	}

	ev.Emails = append(ev.Emails, domain.EmailHit{
		Email:      email,
		Source:     domain.SourceJSONLD,
		Confidence: confidenceJSONLD,
	})
}

func addJSONLDPhone(candidate string, ev *Evidence) {
	e164, ok := phone.Normalize(candidate)
	if !ok {
		return
	}

	for _, existing := range ev.Phones {
		if existing == e164 {
			return
		}
	}

	ev.Phones = append(ev.Phones, e164)
}

// socialsFromLink maps a sameAs URL onto the social profile it names.
func socialsFromLink(link string) domain.Socials {
	lower := strings.ToLower(link)

	var s domain.Socials
	switch {
	case strings.Contains(lower, "linkedin.com"):
		s.LinkedIn = link
	case strings.Contains(lower, "facebook.com"):
		s.Facebook = link
	case strings.Contains(lower, "twitter.com"), strings.Contains(lower, "x.com"):
		s.X = link
	}

	return s
}

// contactPoints decodes a contactPoint field that may be a single object or
// an array.
func contactPoints(raw json.RawMessage) []jsonldContactPoint {
	if len(raw) == 0 {
		return nil
	}

	var single jsonldContactPoint
	if err := json.Unmarshal(raw, &single); err == nil {
		return []jsonldContactPoint{single}
	}

	var many []jsonldContactPoint
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}

	return nil
}

// stringOrSlice decodes a JSON value that may be a string or a string array.
func stringOrSlice(raw json.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}

	return nil
}
