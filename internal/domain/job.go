package domain

// Job is one enrichment batch consumed from the broker.
type Job struct {
	ID     string      `json:"jobId"`
	Sites  []Site      `json:"sites"`
	Config CrawlConfig `json:"config"`
}

// JobProgress is reported at least once per completed site.
type JobProgress struct {
	// Percentage of sites finished, in [0,100].
	Percentage int `json:"percentage"`
	// Current is the host being crawled, empty when idle.
	Current string `json:"current,omitempty"`
	// Processed is the number of sites finished so far.
	Processed int `json:"processed"`
	// Total is the number of sites in the job.
	Total int `json:"total"`
	// Found is the number of contact records discovered so far.
	Found int `json:"found"`
}

// HostErrors groups a site's failures for the job result envelope.
type HostErrors struct {
	Host   string      `json:"host"`
	Errors []SiteError `json:"errors"`
}

// JobStats summarizes a finished job.
type JobStats struct {
	TotalSites        int     `json:"totalSites"`
	TotalRecords      int     `json:"totalRecords"`
	TotalErrors       int     `json:"totalErrors"`
	AvgRecordsPerSite float64 `json:"avgRecordsPerSite"`
}

// JobResult is the envelope returned for every job, partial results
// included. Enrichment jobs always resolve; errors ride alongside records.
type JobResult struct {
	Records []ContactRecord `json:"records"`
	Errors  []HostErrors    `json:"errors"`
	Stats   JobStats        `json:"stats"`
}
