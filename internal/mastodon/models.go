package mastodon

// Application is the response of POST /api/v1/apps.
type Application struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// Account is the authenticated user.
type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Acct     string `json:"acct"`
	URL      string `json:"url"`
}

// MediaAttachment is an uploaded media file. URL is empty while the server
// is still processing it.
type MediaAttachment struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// Status is a published toot.
type Status struct {
	ID         string     `json:"id"`
	URL        string     `json:"url"`
	CreatedAt  string     `json:"created_at"`
	Visibility Visibility `json:"visibility"`
}

// StatusParams are the fields sent to POST /api/v1/statuses.
type StatusParams struct {
	Status      string     `json:"status"`
	MediaIDs    []string   `json:"media_ids,omitempty"`
	Visibility  Visibility `json:"visibility"`
	Sensitive   bool       `json:"sensitive"`
	SpoilerText string     `json:"spoiler_text,omitempty"`
}

// MediaParams describes a file for POST /api/v2/media.
type MediaParams struct {
	Filename    string
	MediaType   string
	Description string
	Data        []byte
}
