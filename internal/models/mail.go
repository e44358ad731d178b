package models

// Mail is a plain-text outbound message.
type Mail struct {
	To      string `json:"to"`
	ReplyTo string `json:"reply_to,omitempty"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// SiteInfo is the public site metadata shown in page chrome.
type SiteInfo struct {
	Year              int               `json:"year"`
	YearsOfExperience int               `json:"yearsOfExperience"`
	Links             map[string]string `json:"links"`
}
