// Package captcha detects challenge pages in fetched HTML so the crawler
// can skip them instead of extracting garbage.
package captcha

import "strings"

// patterns are matched case-insensitively against the page body.
var patterns = []string{
	"recaptcha",
	"g-recaptcha",
	"grecaptcha",
	"hcaptcha",
	"cloudflare",
	"cf-browser-verification",
	"challenge-platform",
	"just a moment",
	"attention required",
}

// typePatterns resolve the challenge vendor, checked in order.
var typePatterns = []struct {
	needle string
	name   string
}{
	{"recaptcha", "recaptcha"},
	{"hcaptcha", "hcaptcha"},
	{"cloudflare", "cloudflare"},
}

// Detection describes a matched challenge page.
type Detection struct {
	// Skip is true when the page should not be processed.
	Skip bool
	// Reason is the human-readable skip reason.
	Reason string
}

// Detect scans HTML for challenge markers.
func Detect(html string) Detection {
	lower := strings.ToLower(html)

	matched := false
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			matched = true
			break
		}
	}

	if !matched {
		return Detection{}
	}

	name := "unknown"
	for _, tp := range typePatterns {
		if strings.Contains(lower, tp.needle) {
			name = tp.name
			break
		}
	}

	return Detection{
		Skip:   true,
		Reason: "Captcha detected (" + name + ")",
	}
}
