package models

import (
	"strings"
	"time"
)

// AddressLabel is one (address, category, confidence) fact produced by a rule.
// Records are created once during a pipeline run and never mutated afterwards.
type AddressLabel struct {
	ID      uint64 `gorm:"primaryKey;autoIncrement" json:"-"`
	Address string `gorm:"type:varchar(100);not null;uniqueIndex:uniq_address_label;index" json:"address"`
	Label   string `gorm:"type:varchar(50);not null;uniqueIndex:uniq_address_label" json:"label"`

	// Confidence is a heuristic score in [0,1], not a calibrated probability.
	// The producing rule's formula enforces the range, not this type.
	Confidence float64 `gorm:"not null" json:"confidence"`

	// SourceRule describes the predicate that produced the record,
	// e.g. "eth_balance >= 1000". Audit text, never machine-parsed.
	SourceRule string `gorm:"type:varchar(200)" json:"source_rule"`

	CreatedAt time.Time `gorm:"type:timestamptz" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz" json:"updated_at"`
}

func (AddressLabel) TableName() string {
	return "address_labels"
}

// SameAddress reports whether the record belongs to addr. Address comparison
// is case-insensitive everywhere (hex addresses arrive in mixed checksum case).
func (l AddressLabel) SameAddress(addr string) bool {
	return strings.EqualFold(l.Address, addr)
}
