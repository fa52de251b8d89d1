// Package email cleans, validates, classifies and scores extracted email
// addresses.
package email

import (
	"regexp"
	"strings"

	"github.com/jonesrussell/contactcrawl/internal/domain"
)

// roleLocalparts matches shared functional mailboxes.
var roleLocalparts = regexp.MustCompile(
	`^(info|kontakt|support|sales|kundtjanst|office|hej|hello|contact|admin|webmaster|inquiry|service)$`)

// personalDomains matches free-mail providers.
var personalDomains = regexp.MustCompile(
	`@(gmail|hotmail|outlook|yahoo|live|icloud|protonmail|me\.com|aol|gmx|mail\.com)`)

// noReplyLocalparts matches machine mailboxes on company domains.
var noReplyLocalparts = regexp.MustCompile(`^no-?reply`)

// junkPatterns reject placeholder and machine addresses during cleaning.
var junkPatterns = regexp.MustCompile(
	`example\.com|user@domain\.com|noreply|donotreply|no-reply|test@|placeholder|u003e`)

// noReplyScore and placeholderScore are the scoring-time penalties.
var (
	noReplyScore     = regexp.MustCompile(`noreply|no-reply|donotreply`)
	placeholderScore = regexp.MustCompile(`test|example|placeholder`)
)

// formatPattern is a strict RFC-ish address shape. Validation runs on
// lowercased input.
var formatPattern = regexp.MustCompile(
	`^[a-z0-9!#$%&'*+/=?^_` + "`" + `{|}~.-]+@[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`)

// allowedTLDs is the allowlist an email must end in to produce a record.
var allowedTLDs = map[string]struct{}{
	"se": {}, "com": {}, "info": {}, "nu": {}, "org": {}, "net": {},
}

// ValidFormat reports whether the address passes the strict shape check.
func ValidFormat(email string) bool {
	if strings.Count(email, "@") != 1 {
		return false
	}
	if strings.Contains(email, "..") {
		return false
	}
	return formatPattern.MatchString(email)
}

// Clean normalizes one extracted address and reports whether it survives
// the cleaning pipeline: lowercase and trim, junk-pattern rejection, format
// validation, TLD allowlisting.
func Clean(raw string) (string, bool) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", false
	}

	if junkPatterns.MatchString(email) {
		return "", false
	}

	if !ValidFormat(email) {
		return "", false
	}

	at := strings.LastIndex(email, "@")
	emailDomain := email[at+1:]

	dot := strings.LastIndex(emailDomain, ".")
	tld := emailDomain[dot+1:]

	if _, ok := allowedTLDs[tld]; !ok {
		return "", false
	}

	return email, true
}

// Classify determines the email type relative to the crawled site's host.
// Precedence: role localpart, personal provider, company-domain heuristics,
// unknown.
func Classify(email, siteHost string) domain.EmailType {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return domain.EmailTypeUnknown
	}

	local := email[:at]
	emailDomain := email[at+1:]

	if roleLocalparts.MatchString(local) {
		return domain.EmailTypeRole
	}

	if personalDomains.MatchString(email) {
		return domain.EmailTypePersonal
	}

	if isCompanyDomain(emailDomain, siteHost) {
		if isShortLocal(local) || noReplyLocalparts.MatchString(local) {
			return domain.EmailTypeGeneric
		}
		return domain.EmailTypeRole
	}

	return domain.EmailTypeUnknown
}

// Score computes the integer quality score, clamped to [0,100].
func Score(email, siteHost string, emailType domain.EmailType) int {
	score := 50

	at := strings.LastIndex(email, "@")
	if at < 0 {
		return score
	}

	local := email[:at]
	emailDomain := email[at+1:]

	if isCompanyDomain(emailDomain, siteHost) {
		score += 30
	}

	switch emailType {
	case domain.EmailTypeRole:
		score += 20
	case domain.EmailTypePersonal:
		score -= 10
	case domain.EmailTypeGeneric:
		score -= 20
	case domain.EmailTypeUnknown:
	}

	if roleLocalparts.MatchString(local) {
		score += 10
	}

	if noReplyScore.MatchString(email) {
		score -= 50
	}

	if placeholderScore.MatchString(email) {
		score -= 50
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}

	return score
}

// Confidence converts a score to the [0,1] confidence carried on records.
func Confidence(score int) float64 {
	return float64(score) / 100
}

// isCompanyDomain reports whether the email domain and site host belong to
// the same organization: one is a suffix of the other.
func isCompanyDomain(emailDomain, siteHost string) bool {
	if emailDomain == "" || siteHost == "" {
		return false
	}
	return strings.HasSuffix(siteHost, emailDomain) || strings.HasSuffix(emailDomain, siteHost)
}

// isShortLocal reports whether the localpart is one or two letters.
func isShortLocal(local string) bool {
	if len(local) == 0 || len(local) > 2 {
		return false
	}

	for _, r := range local {
		if r < 'a' || r > 'z' {
			return false
		}
	}

	return true
}
