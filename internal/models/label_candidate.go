package models

import "time"

// LabelCandidate is a staging shape for a pre-promotion workflow that is not
// wired into the pipeline yet. Kept as a schema placeholder for downstream
// compatibility; nothing populates or consumes it.
type LabelCandidate struct {
	ID         uint64    `gorm:"primaryKey;autoIncrement" json:"-"`
	Address    string    `gorm:"type:varchar(100);not null;index" json:"address"`
	Label      string    `gorm:"type:varchar(50);not null" json:"label"`
	Confidence float64   `gorm:"not null" json:"confidence"`
	SourceRule string    `gorm:"type:varchar(200)" json:"source_rule"`
	AsOfDate   time.Time `gorm:"type:timestamptz" json:"as_of_date"`
}

func (LabelCandidate) TableName() string {
	return "label_candidates"
}
