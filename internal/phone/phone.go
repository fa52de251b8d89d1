// Package phone discovers phone-number candidates in text and normalizes
// them to E.164. Sweden is the default region: numbers written with a
// national leading zero are rewritten to +46.
package phone

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// defaultRegion is the region assumed for nationally formatted numbers.
const defaultRegion = "SE"

// candidatePattern matches loosely formatted phone numbers in text.
var candidatePattern = regexp.MustCompile(`(\+?\d[\d\s().\-]{5,}\d)`)

// separators are stripped from candidates before parsing.
var separators = strings.NewReplacer("(", "", ")", "", " ", "", ".", "", "-", "", "\u00a0", "")

// E.164 length bounds, "+" included.
const (
	minE164Len = 9
	maxE164Len = 15
)

// repeatedDigits rejects junk like +4600000000. Spelled out per digit
// because RE2 has no backreferences.
var repeatedDigits = regexp.MustCompile(`0{7,}|1{7,}|2{7,}|3{7,}|4{7,}|5{7,}|6{7,}|7{7,}|8{7,}|9{7,}`)

// FindCandidates returns raw phone-number candidates found in text.
func FindCandidates(text string) []string {
	return candidatePattern.FindAllString(text, -1)
}

// Normalize parses one candidate and returns its E.164 form. Candidates
// that do not validate as Swedish numbers are dropped.
func Normalize(candidate string) (string, bool) {
	cleaned := separators.Replace(strings.TrimSpace(candidate))
	if cleaned == "" {
		return "", false
	}

	if strings.HasPrefix(cleaned, "0") {
		cleaned = "+46" + cleaned[1:]
	}

	if !strings.HasPrefix(cleaned, "+") {
		return "", false
	}

	parsed, err := phonenumbers.Parse(cleaned, defaultRegion)
	if err != nil {
		return "", false
	}

	if !phonenumbers.IsValidNumber(parsed) {
		return "", false
	}

	if phonenumbers.GetRegionCodeForNumber(parsed) != defaultRegion {
		return "", false
	}

	e164 := phonenumbers.Format(parsed, phonenumbers.E164)
	if len(e164) < minE164Len || len(e164) > maxE164Len {
		return "", false
	}

	if repeatedDigits.MatchString(e164) {
		return "", false
	}

	return e164, true
}

// Extract finds, normalizes and deduplicates all phone numbers in text.
func Extract(text string) []string {
	var phones []string
	seen := make(map[string]struct{})

	for _, candidate := range FindCandidates(text) {
		e164, ok := Normalize(candidate)
		if !ok {
			continue
		}

		if _, dup := seen[e164]; dup {
			continue
		}

		seen[e164] = struct{}{}
		phones = append(phones, e164)
	}

	return phones
}
