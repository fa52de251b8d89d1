package egress_test

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/jonesrussell/contactcrawl/internal/domain"
	"github.com/jonesrussell/contactcrawl/internal/egress"
)

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	valid := true
	records := []domain.ContactRecord{
		{
			SourceURL:     "https://acme.se",
			Domain:        "acme.se",
			Email:         "info@acme.se",
			EmailType:     domain.EmailTypeRole,
			Confidence:    1.0,
			DiscoveryPath: "https://acme.se/kontakt",
			Phone:         "+46840022270",
			ContactPage:   "https://acme.se/kontakt",
			Social:        domain.Socials{LinkedIn: "https://www.linkedin.com/company/acme"},
			RawEvidence:   "found via mailto",
			Tags:          "batch-7",
			MXValid:       &valid,
			Timestamp:     time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
		},
		{
			Domain:    "bolag.se",
			Email:     "anna@bolag.se",
			EmailType: domain.EmailTypeUnknown,
			Timestamp: time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC),
		},
	}

	var buf bytes.Buffer
	if err := egress.WriteCSV(&buf, records); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}

	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}

	if rows[0][0] != "sourceUrl" || rows[0][2] != "email" {
		t.Errorf("header = %v", rows[0])
	}

	first := rows[1]
	if first[2] != "info@acme.se" || first[3] != "role" || first[4] != "1.00" {
		t.Errorf("row = %v", first)
	}
	if first[8] != "https://www.linkedin.com/company/acme" {
		t.Errorf("linkedin = %q", first[8])
	}
	if first[13] != "true" {
		t.Errorf("mxValid = %q", first[13])
	}
	if first[14] != "2026-08-24T12:00:00Z" {
		t.Errorf("timestamp = %q", first[14])
	}

	// No MX check ran for the second record.
	if rows[2][13] != "" {
		t.Errorf("mxValid = %q, want empty", rows[2][13])
	}
}

func TestWriteCSV_Empty(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := egress.WriteCSV(&buf, nil); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	if lines := strings.Count(buf.String(), "\n"); lines != 1 {
		t.Errorf("lines = %d, want header only", lines)
	}
}

func TestWriteSummary(t *testing.T) {
	t.Parallel()

	result := &domain.JobResult{
		Stats: domain.JobStats{
			TotalSites:        3,
			TotalRecords:      4,
			TotalErrors:       1,
			AvgRecordsPerSite: 1.33,
		},
		Errors: []domain.HostErrors{
			{Host: "down.se", Errors: []domain.SiteError{{Reason: "request timed out"}}},
		},
	}

	var buf bytes.Buffer
	egress.WriteSummary(&buf, result)

	// Header text is uppercased by the table style.
	out := strings.ToUpper(buf.String())
	for _, want := range []string{"SITES", "RECORDS", "DOWN.SE", "REQUEST TIMED OUT"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q:\n%s", want, buf.String())
		}
	}
}
