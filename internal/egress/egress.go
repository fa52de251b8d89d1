// Package egress writes enrichment output: a CSV file of contact records
// and a human-readable summary table for the CLI.
package egress

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/jonesrussell/contactcrawl/internal/domain"
)

// csvHeader is the column order of emitted record files.
var csvHeader = []string{
	"sourceUrl", "domain", "email", "emailType", "confidence", "discoveryPath",
	"phone", "contactPage", "linkedin", "facebook", "x", "rawEvidence",
	"tags", "mxValid", "timestamp",
}

// WriteCSV emits one row per contact record.
func WriteCSV(w io.Writer, records []domain.ContactRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(csvHeader); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}

	for _, r := range records {
		mxValid := ""
		if r.MXValid != nil {
			mxValid = strconv.FormatBool(*r.MXValid)
		}

		row := []string{
			r.SourceURL,
			r.Domain,
			r.Email,
			string(r.EmailType),
			strconv.FormatFloat(r.Confidence, 'f', 2, 64),
			r.DiscoveryPath,
			r.Phone,
			r.ContactPage,
			r.Social.LinkedIn,
			r.Social.Facebook,
			r.Social.X,
			r.RawEvidence,
			r.Tags,
			mxValid,
			r.Timestamp.Format(time.RFC3339),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write record for %s: %w", r.Email, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush CSV: %w", err)
	}

	return nil
}

// WriteSummary renders the job outcome as tables: overall statistics first,
// then the per-host failures if any.
func WriteSummary(w io.Writer, result *domain.JobResult) {
	stats := table.NewWriter()
	stats.SetOutputMirror(w)
	stats.SetStyle(table.StyleLight)

	stats.AppendHeader(table.Row{"Sites", "Records", "Errors", "Records/Site"})
	stats.AppendRow(table.Row{
		result.Stats.TotalSites,
		result.Stats.TotalRecords,
		result.Stats.TotalErrors,
		strconv.FormatFloat(result.Stats.AvgRecordsPerSite, 'f', 2, 64),
	})
	stats.Render()

	if len(result.Errors) == 0 {
		return
	}

	failures := table.NewWriter()
	failures.SetOutputMirror(w)
	failures.SetStyle(table.StyleLight)

	failures.AppendHeader(table.Row{"Host", "Reason"})
	for _, hostErrs := range result.Errors {
		for _, e := range hostErrs.Errors {
			failures.AppendRow(table.Row{hostErrs.Host, e.Reason})
		}
	}
	failures.Render()
}
