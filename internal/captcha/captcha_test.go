package captcha_test

import (
	"testing"

	"github.com/jonesrussell/contactcrawl/internal/captcha"
)

func TestDetect(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		html       string
		wantSkip   bool
		wantReason string
	}{
		{
			name:       "recaptcha widget",
			html:       `<div class="g-recaptcha" data-sitekey="x"></div>`,
			wantSkip:   true,
			wantReason: "Captcha detected (recaptcha)",
		},
		{
			name:       "hcaptcha widget",
			html:       `<div class="h-captcha"><script src="https://js.hcaptcha.com/1/api.js"></script></div>`,
			wantSkip:   true,
			wantReason: "Captcha detected (hcaptcha)",
		},
		{
			name:       "cloudflare interstitial",
			html:       `<html><title>Just a moment...</title><p>Checking your browser - Cloudflare</p></html>`,
			wantSkip:   true,
			wantReason: "Captcha detected (cloudflare)",
		},
		{
			name:       "case insensitive",
			html:       `<title>ATTENTION REQUIRED</title>`,
			wantSkip:   true,
			wantReason: "Captcha detected (unknown)",
		},
		{
			name:     "plain page",
			html:     `<html><body><a href="mailto:info@acme.se">Kontakta oss</a></body></html>`,
			wantSkip: false,
		},
		{
			name:     "empty page",
			html:     "",
			wantSkip: false,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := captcha.Detect(tc.html)

			if got.Skip != tc.wantSkip {
				t.Fatalf("Skip = %v, want %v", got.Skip, tc.wantSkip)
			}

			if tc.wantSkip && got.Reason != tc.wantReason {
				t.Errorf("Reason = %q, want %q", got.Reason, tc.wantReason)
			}
		})
	}
}
