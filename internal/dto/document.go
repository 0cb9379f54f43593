package dto

import "time"

// DocumentLink is a signed, expiring download reference to a generated
// document.
type DocumentLink struct {
	DocumentID string    `json:"document_id"`
	Filename   string    `json:"filename"`
	Token      string    `json:"token"`
	ExpiresAt  time.Time `json:"expires_at"`
}
