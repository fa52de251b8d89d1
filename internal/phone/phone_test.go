package phone_test

import (
	"reflect"
	"testing"

	"github.com/jonesrussell/contactcrawl/internal/phone"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		candidate string
		want      string
		ok        bool
	}{
		{"national with leading zero", "08-400 222 70", "+46840022270", true},
		{"mobile national", "070-123 45 67", "+46701234567", true},
		{"already international", "+46 8 400 222 70", "+46840022270", true},
		{"dots and parens", "(08) 400.222.70", "+46840022270", true},
		{"boundary case from ingress", "0812345678", "+46812345678", true},
		{"no plus after cleaning", "46701234567", "", false},
		{"repeated digits", "+4600000000", "", false},
		{"too short", "+4612", "", false},
		{"foreign number", "+1 212 555 0100", "", false},
		{"garbage", "123", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := phone.Normalize(tc.candidate)
			if ok != tc.ok {
				t.Fatalf("Normalize(%q) ok = %v, want %v (got %q)", tc.candidate, ok, tc.ok, got)
			}

			if got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.candidate, got, tc.want)
			}
		})
	}
}

func TestNormalize_RoundTrip(t *testing.T) {
	t.Parallel()

	// A normalized number must normalize to itself.
	first, ok := phone.Normalize("08-400 222 70")
	if !ok {
		t.Fatal("expected valid number")
	}

	second, ok := phone.Normalize(first)
	if !ok || second != first {
		t.Errorf("round trip: %q -> %q", first, second)
	}
}

func TestExtract_Deduplicates(t *testing.T) {
	t.Parallel()

	text := `Ring oss på 08-400 222 70 eller +46 8 400 222 70.
	Växel: 070-123 45 67.`

	got := phone.Extract(text)
	want := []string{"+46840022270", "+46701234567"}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Extract = %v, want %v", got, want)
	}
}

func TestExtract_EmptyText(t *testing.T) {
	t.Parallel()

	if got := phone.Extract("Inga nummer här."); len(got) != 0 {
		t.Errorf("Extract = %v, want empty", got)
	}
}
