package domain

import "strings"

// Notification types understood by the aggregator and the renderer.
const (
	TypeInfo         = "info"
	TypeCommon       = "common"
	TypeGuideline    = "guideline"
	TypeDepartmental = "departmental"
	TypeUrgent       = "urgent"
	TypeUpcoming     = "upcoming"
	TypeArchive      = "archive"
)

// Wildcard matches every department or year in audience lists.
const Wildcard = "all"

// Notification is a single notice as published by the board API.
type Notification struct {
	ID            string   `json:"id,omitempty"`
	Title         string   `json:"title"`
	Body          string   `json:"body"`
	Type          string   `json:"type,omitempty"`
	Department    []string `json:"department,omitempty"`
	Year          []string `json:"year,omitempty"`
	AttachmentURL string   `json:"attachment_url,omitempty"`
	IsPopup       bool     `json:"is_popup,omitempty"`
	StartDatetime string   `json:"start_datetime,omitempty"`
	EndDatetime   string   `json:"end_datetime,omitempty"`
}

// Category returns the visual category class, "info" when the type is unset.
func (n Notification) Category() string {
	if t := strings.TrimSpace(n.Type); t != "" {
		return t
	}
	return TypeInfo
}

// HasAttachment reports whether an attachment link should be shown.
func (n Notification) HasAttachment() bool {
	return strings.TrimSpace(n.AttachmentURL) != ""
}

// Payload is the aggregated response of GET /api/notifications.
type Payload struct {
	Guidelines   []Notification `json:"guidelines"`
	Common       []Notification `json:"common"`
	Departmental []Notification `json:"departmental"`
	Archive      []Notification `json:"archive"`
}

// Selection is the department/year pair chosen by the viewer.
type Selection struct {
	Department string
	Year       string
}

// Scoped reports whether both fields are set.
func (s Selection) Scoped() bool {
	return s.Department != "" && s.Year != ""
}
