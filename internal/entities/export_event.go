package entities

import "time"

type ExportStatus string

const (
	ExportStatusSuccess ExportStatus = "success"
	ExportStatusSkipped ExportStatus = "skipped"
	ExportStatusFailed  ExportStatus = "failed"
)

type ExportOrigin string

const (
	ExportOriginHTTP     ExportOrigin = "http"
	ExportOriginCLI      ExportOrigin = "cli"
	ExportOriginTask     ExportOrigin = "task"
	ExportOriginSnapshot ExportOrigin = "snapshot"
	ExportOriginWatch    ExportOrigin = "watch"
)

// ExportEvent is one persisted export outcome.
type ExportEvent struct {
	ID         uint         `gorm:"primaryKey" json:"id"`
	Origin     ExportOrigin `gorm:"index;size:20" json:"origin"`
	Filename   string       `gorm:"size:255" json:"filename"`
	Platform   string       `gorm:"size:50" json:"platform"`
	Status     ExportStatus `gorm:"index;size:20" json:"status"`
	Message    string       `gorm:"size:100" json:"message"`
	ErrorMsg   string       `gorm:"size:500" json:"error_msg,omitempty"`
	Rows       int          `json:"rows"`
	Bytes      int          `json:"bytes"`
	DurationMs int64        `json:"duration_ms"`
	CreatedAt  time.Time    `gorm:"index" json:"created_at"`
}

func (ExportEvent) TableName() string {
	return "export_events"
}
