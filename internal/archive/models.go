package archive

import "encoding/json"

// Activity is one entry of the outbox. Object holds a Note for "Create"
// activities and a bare URL string for boosts.
type Activity struct {
	ID        string          `json:"id"`        // Unique activity identifier
	Type      string          `json:"type"`      // "Create", "Announce", ...
	Published string          `json:"published"` // ISO-8601 publish timestamp
	Object    json.RawMessage `json:"object"`
}

// Note is the toot carried by a "Create" activity.
type Note struct {
	Content     string       `json:"content"`                // HTML body
	Sensitive   bool         `json:"sensitive"`              // Media marked sensitive
	SpoilerText *string      `json:"spoiler_text,omitempty"` // Content warning (legacy key)
	Summary     *string      `json:"summary,omitempty"`      // Content warning (ActivityPub key)
	Attachments []Attachment `json:"attachment"`
}

// Attachment describes a media file shipped inside the archive.
type Attachment struct {
	Type      string `json:"type,omitempty"`
	MediaType string `json:"mediaType"`      // MIME type
	URL       string `json:"url"`            // Path relative to the archive root
	Name      string `json:"name,omitempty"` // Alt text
}

// Record is a toot ready to be republished.
type Record struct {
	ID          string
	Payload     string
	Attachments []Attachment
	Sensitive   bool
	SpoilerText string
}

// spoiler returns the content warning, preferring the legacy key.
func (n *Note) spoiler() string {
	if n.SpoilerText != nil {
		return *n.SpoilerText
	}
	if n.Summary != nil {
		return *n.Summary
	}
	return ""
}
