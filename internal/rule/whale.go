package rule

import (
	"context"
	"fmt"
	"time"

	"apollo/internal/bigquery"
	"apollo/internal/config"
	"apollo/internal/models"
)

const DefaultMinBalanceETH = 1000.0

// WhaleRule labels addresses whose aggregate ETH balance meets a minimum.
// Confidence scales linearly with balance and saturates at 10x the minimum.
type WhaleRule struct {
	Source QueryRunner
	Config config.WhaleConfig
	Label  string // overrides the default category
}

func (r *WhaleRule) Category() string {
	if r.Label != "" {
		return r.Label
	}
	return "whale"
}

func (r *WhaleRule) minBalance() float64 {
	if r.Config.MinBalanceETH > 0 {
		return r.Config.MinBalanceETH
	}
	return DefaultMinBalanceETH
}

func (r *WhaleRule) query() string {
	return fmt.Sprintf(`
SELECT
    address,
    eth_balance,
    CURRENT_TIMESTAMP() as created_at
FROM (
    SELECT
        address,
        SUM(eth_balance) / 1e18 as eth_balance
    FROM `+"`bigquery-public-data.crypto_ethereum.balances`"+`
    GROUP BY address
    HAVING eth_balance >= %v
)
ORDER BY eth_balance DESC
LIMIT 1000`, r.minBalance())
}

func (r *WhaleRule) GenerateLabels(ctx context.Context) ([]models.AddressLabel, error) {
	rows, err := r.Source.Query(ctx, r.query())
	if err != nil {
		return nil, err
	}
	return r.Score(rows)
}

// Score converts fetched balance rows into labels. Pure given its inputs.
func (r *WhaleRule) Score(rows []bigquery.Row) ([]models.AddressLabel, error) {
	minBalance := r.minBalance()
	now := time.Now().UTC()

	labels := make([]models.AddressLabel, 0, len(rows))
	for _, row := range rows {
		address, err := row.Str("address")
		if err != nil {
			return nil, err
		}
		balance, err := row.Decimal("eth_balance")
		if err != nil {
			return nil, err
		}

		confidence := clamp01(balance.InexactFloat64() / (minBalance * 10))

		labels = append(labels, models.AddressLabel{
			Address:    address,
			Label:      r.Category(),
			Confidence: confidence,
			SourceRule: fmt.Sprintf("eth_balance >= %v", minBalance),
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return labels, nil
}
