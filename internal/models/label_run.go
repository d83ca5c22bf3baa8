package models

import (
	"time"

	"gorm.io/datatypes"
)

// Label run statuses.
const (
	RunStatusOK      = "ok"      // at least one label from every selected rule
	RunStatusPartial = "partial" // at least one selected rule produced zero labels
	RunStatusEmpty   = "empty"   // the run completed but produced no labels at all
)

// LabelRun is the audit record for one pipeline execution.
type LabelRun struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement" json:"-"`
	RunID      string `gorm:"type:varchar(36);not null;uniqueIndex" json:"run_id"`
	Categories string `gorm:"type:varchar(200)" json:"categories"`
	Status     string `gorm:"type:varchar(20);not null;index" json:"status"`

	TotalLabels int            `gorm:"not null" json:"total_labels"`
	Stats       datatypes.JSON `gorm:"type:jsonb" json:"stats"`

	StartedAt  time.Time `gorm:"type:timestamptz;index" json:"started_at"`
	FinishedAt time.Time `gorm:"type:timestamptz" json:"finished_at"`
}

func (LabelRun) TableName() string {
	return "label_runs"
}
