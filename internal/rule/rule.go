package rule

import (
	"context"

	"go.uber.org/zap"

	"apollo/internal/bigquery"
	"apollo/internal/models"
)

// QueryRunner is the data-source capability rules depend on. The concrete
// implementation lives in internal/bigquery; tests substitute stubs.
type QueryRunner interface {
	Query(ctx context.Context, sql string) ([]bigquery.Row, error)
}

// Rule is one pluggable labeling heuristic. It fetches its own candidate rows
// and scores each into an AddressLabel for a single category.
type Rule interface {
	// Category is the stable identifier for this rule's output. Registering
	// the same rule under a different category (e.g. A/B thresholds) is
	// supported via the per-instance Label override on concrete rules.
	Category() string

	// GenerateLabels returns zero or more scored labels. An empty result is
	// not an error; errors mean the data source failed or returned rows the
	// rule cannot read.
	GenerateLabels(ctx context.Context) ([]models.AddressLabel, error)
}

// Run is the isolation boundary: it executes one rule, logs start and
// completion, and absorbs any failure into an empty result so a single
// rule's outage never aborts a pipeline run.
func Run(ctx context.Context, r Rule, logger *zap.Logger) []models.AddressLabel {
	category := r.Category()
	if logger != nil {
		logger.Info("generating labels", zap.String("category", category))
	}
	labels, err := r.GenerateLabels(ctx)
	if err != nil {
		if logger != nil {
			logger.Warn("label generation failed",
				zap.String("category", category),
				zap.Error(err),
			)
		}
		return nil
	}
	if logger != nil {
		logger.Info("generated labels",
			zap.String("category", category),
			zap.Int("count", len(labels)),
		)
	}
	return labels
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
