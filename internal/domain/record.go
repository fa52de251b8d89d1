package domain

import "time"

// EmailType classifies an email address by mailbox kind.
type EmailType string

const (
	// EmailTypeRole is a shared functional mailbox (info@, kontakt@).
	EmailTypeRole EmailType = "role"
	// EmailTypePersonal is a free-mail provider address.
	EmailTypePersonal EmailType = "personal"
	// EmailTypeGeneric is a machine mailbox on the company domain.
	EmailTypeGeneric EmailType = "generic"
	// EmailTypeUnknown is everything else.
	EmailTypeUnknown EmailType = "unknown"
)

// ContactRecord is one emitted contact. A record exists only for emails
// that survived format validation and TLD allowlisting.
type ContactRecord struct {
	SourceURL     string    `json:"sourceUrl"`
	Domain        string    `json:"domain"`
	Email         string    `json:"email"`
	EmailType     EmailType `json:"emailType"`
	Confidence    float64   `json:"confidence"`
	DiscoveryPath string    `json:"discoveryPath"`
	Phone         string    `json:"phone,omitempty"`
	ContactPage   string    `json:"contactPage,omitempty"`
	Social        Socials   `json:"social,omitempty"`
	RawEvidence   string    `json:"rawEvidence,omitempty"`
	Tags          string    `json:"tags,omitempty"`
	MXValid       *bool     `json:"mxValid,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}
