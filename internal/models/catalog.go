package models

import "time"

type Organization struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName,omitempty"`
}

type Device struct {
	ID          string `json:"id"`
	OrgID       string `json:"orgId"`
	DisplayName string `json:"displayName,omitempty"`
}

// Descriptor is the optional _metadata.json sidecar stored at an
// organization or device prefix.
type Descriptor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SessionQuery filters and pages a device's session list. Zero values mean
// "no filter"; Limit 0 returns everything after Offset.
type SessionQuery struct {
	From         *time.Time `json:"from,omitempty"`
	To           *time.Time `json:"to,omitempty"`
	CompleteOnly bool       `json:"completeOnly,omitempty"`
	Search       string     `json:"search,omitempty"`
	Offset       int        `json:"offset,omitempty"`
	Limit        int        `json:"limit,omitempty"`
}

type SessionPage struct {
	Sessions          []Session `json:"sessions"`
	Total             int       `json:"total"`
	Offset            int       `json:"offset"`
	Limit             int       `json:"limit"`
	OrgDisplayName    string    `json:"orgDisplayName,omitempty"`
	DeviceDisplayName string    `json:"deviceDisplayName,omitempty"`
}

// CalendarDay buckets a device's sessions by calendar date.
type CalendarDay struct {
	Date     string `json:"date"`
	Sessions int    `json:"sessions"`
	Complete int    `json:"complete"`
}

// SessionDetail is a session plus time-limited read URLs for its files,
// keyed by role.
type SessionDetail struct {
	Session Session         `json:"session"`
	URLs    map[Role]string `json:"urls"`
}
