package audit

import (
	"time"

	"github.com/google/uuid"
)

// TimelineFilters narrows the audit timeline.
type TimelineFilters struct {
	From      time.Time
	To        time.Time
	CompanyID *uuid.UUID
	ActorID   *uuid.UUID
	Entity    string
	Action    string
	Page      int
	PageSize  int
}

// TimelineRow is one audit_logs record.
type TimelineRow struct {
	At        time.Time      `json:"at"`
	ActorID   *uuid.UUID     `json:"actorId,omitempty"`
	CompanyID *uuid.UUID     `json:"companyId,omitempty"`
	Action    string         `json:"action"`
	Entity    string         `json:"entity"`
	EntityID  string         `json:"entityId"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// PagingInfo holds simple page metadata.
type PagingInfo struct {
	Page     int  `json:"page"`
	PageSize int  `json:"pageSize"`
	HasNext  bool `json:"hasNext"`
	PrevPage int  `json:"prevPage,omitempty"`
	NextPage int  `json:"nextPage,omitempty"`
}

// Result wraps a page of timeline rows.
type Result struct {
	Rows   []TimelineRow `json:"rows"`
	Paging PagingInfo    `json:"paging"`
}
