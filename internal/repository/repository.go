package repository

import (
	"context"

	"apollo/internal/models"
)

type ListLabelsParams struct {
	Label         *string
	Address       *string
	MinConfidence *float64
	OrderBy       string
	Asc           *bool
	Limit         int
	Offset        int
}

// Repository persists pipeline output for export/audit. The in-memory
// retained set stays authoritative during a run; the store is the durable
// projection downstream tooling reads.
type Repository interface {
	UpsertAddressLabel(ctx context.Context, item *models.AddressLabel) error
	ReplaceLabelsForCategory(ctx context.Context, category string, items []models.AddressLabel) error
	ListAddressLabels(ctx context.Context, params ListLabelsParams) ([]models.AddressLabel, error)
	CountAddressLabels(ctx context.Context, params ListLabelsParams) (int64, error)
	DeleteAllLabels(ctx context.Context) error

	InsertLabelRun(ctx context.Context, item *models.LabelRun) error
	ListLabelRuns(ctx context.Context, limit int) ([]models.LabelRun, error)
}
