// Package ingress parses uploaded CSV batches into crawl sites. Columns
// are inferred from the header row, and rows pointing at directories or
// social platforms are rejected up front.
package ingress

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jonesrussell/contactcrawl/internal/domain"
)

// websiteColumns are header fragments that mark the website column.
var websiteColumns = []string{
	"website", "webb", "hemsida", "url", "site", "domän", "domain", "www", "web", "link",
}

// companyColumns are header fragments that mark the company-name column.
var companyColumns = []string{
	"företag", "company", "bolag", "organisation", "org", "brand", "name", "namn", "title", "företagsnamn",
}

// blockedDirectories are host fragments we refuse to crawl: aggregator and
// platform sites, not company websites.
var blockedDirectories = []string{
	"facebook", "instagram", "linkedin", "bokadirekt", "reco",
	"hitta", "eniro", "allabolag", "yelp", "maps.google",
}

// Rejection explains why one input row produced no site.
type Rejection struct {
	// Row is the 1-based data row number, header excluded.
	Row     int    `json:"row"`
	Website string `json:"website"`
	Reason  string `json:"reason"`
}

// Batch is the parsed outcome of one CSV upload.
type Batch struct {
	Sites      []domain.Site
	Rejections []Rejection
}

// Parse reads a CSV batch. The delimiter is sniffed from the header line;
// the website column is required, the company column optional.
func Parse(r io.Reader) (*Batch, error) {
	buffered := bufio.NewReader(r)

	delimiter, err := sniffDelimiter(buffered)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(buffered)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read CSV header: %w", err)
	}

	websiteCol := inferColumn(header, websiteColumns)
	if websiteCol < 0 {
		return nil, errors.New("no website column found in CSV header")
	}

	companyCol := inferColumn(header, companyColumns)

	batch := &Batch{}
	seen := make(map[string]struct{})

	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV row %d: %w", row, err)
		}

		if websiteCol >= len(record) {
			continue
		}

		website := strings.TrimSpace(record[websiteCol])
		if website == "" {
			batch.Rejections = append(batch.Rejections, Rejection{
				Row: row, Reason: "empty website value",
			})
			continue
		}

		company := ""
		if companyCol >= 0 && companyCol < len(record) {
			company = record[companyCol]
		}

		site, err := domain.NewSite(website, company)
		if err != nil {
			batch.Rejections = append(batch.Rejections, Rejection{
				Row: row, Website: website, Reason: err.Error(),
			})
			continue
		}

		if fragment, blocked := blockedDirectory(site.Host); blocked {
			batch.Rejections = append(batch.Rejections, Rejection{
				Row: row, Website: website,
				Reason: "directory or platform site (" + fragment + ")",
			})
			continue
		}

		if _, dup := seen[site.Host]; dup {
			batch.Rejections = append(batch.Rejections, Rejection{
				Row: row, Website: website, Reason: "duplicate host",
			})
			continue
		}

		seen[site.Host] = struct{}{}
		batch.Sites = append(batch.Sites, site)
	}

	return batch, nil
}

// sniffDelimiter peeks at the header line and picks semicolon when it
// outnumbers commas, since Swedish spreadsheet exports default to it.
func sniffDelimiter(r *bufio.Reader) (rune, error) {
	line, err := r.Peek(4096)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return 0, fmt.Errorf("peek CSV header: %w", err)
	}

	if i := strings.IndexByte(string(line), '\n'); i >= 0 {
		line = line[:i]
	}

	header := string(line)
	if strings.Count(header, ";") > strings.Count(header, ",") {
		return ';', nil
	}

	return ',', nil
}

// inferColumn returns the index of the first header cell containing one of
// the fragments, or -1.
func inferColumn(header []string, fragments []string) int {
	for i, cell := range header {
		lower := strings.ToLower(strings.TrimSpace(cell))
		for _, fragment := range fragments {
			if strings.Contains(lower, fragment) {
				return i
			}
		}
	}
	return -1
}

// blockedDirectory reports whether the host belongs to a blocked platform.
func blockedDirectory(host string) (string, bool) {
	for _, fragment := range blockedDirectories {
		if strings.Contains(host, fragment) {
			return fragment, true
		}
	}
	return "", false
}
