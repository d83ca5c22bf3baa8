package rule

import (
	"context"
	"fmt"
	"strings"
	"time"

	"apollo/internal/bigquery"
	"apollo/internal/config"
	"apollo/internal/models"
)

const (
	DefaultMinDEXInteractions = 5

	dexUserMinConfidence = 0.25
)

// Known DEX router contracts. Deliberately a short, stable list; routing
// aggregators churn too fast to track exhaustively here.
var dexRouterContracts = []string{
	"0x7a250d5630b4cf539739df2c5dacb4c659f2488d", // Uniswap V2 Router
	"0xe592427a0aece92de3edee1f18e0157c05861564", // Uniswap V3 Router
	"0x1b02da8cb0d097eb8d57a175b88c7d8b47997506", // SushiSwap Router
	"0xd9e1ce17f2641f24ae83637ab66a2cca9c378b9f", // SushiSwap Router V2
	"0x1111111254fb6c44bac0bed2854e76f90643097d", // 1inch V4 Router
}

// DEXUserRule labels addresses that actively trade through known DEX routers.
// Confidence averages a diversity score (distinct routers, max at 5) and an
// activity score (total interactions, max at 50), floored at 0.25.
type DEXUserRule struct {
	Source QueryRunner
	Config config.DEXUserConfig
	Label  string
}

func (r *DEXUserRule) Category() string {
	if r.Label != "" {
		return r.Label
	}
	return "dex_user"
}

func (r *DEXUserRule) minInteractions() int {
	if r.Config.MinInteractions > 0 {
		return r.Config.MinInteractions
	}
	return DefaultMinDEXInteractions
}

func (r *DEXUserRule) query() string {
	contracts := "'" + strings.Join(dexRouterContracts, "', '") + "'"
	return fmt.Sprintf(`
SELECT DISTINCT
    from_address as address,
    COUNT(DISTINCT to_address) as unique_dex_contracts,
    COUNT(*) as total_dex_interactions
FROM `+"`bigquery-public-data.crypto_ethereum.transactions`"+`
WHERE DATE(block_timestamp) >= DATE_SUB(CURRENT_DATE(), INTERVAL 30 DAY)
AND to_address IN (%s)
GROUP BY from_address
HAVING total_dex_interactions >= %d
ORDER BY total_dex_interactions DESC
LIMIT 10000`, contracts, r.minInteractions())
}

func (r *DEXUserRule) GenerateLabels(ctx context.Context) ([]models.AddressLabel, error) {
	rows, err := r.Source.Query(ctx, r.query())
	if err != nil {
		return nil, err
	}
	return r.Score(rows)
}

func (r *DEXUserRule) Score(rows []bigquery.Row) ([]models.AddressLabel, error) {
	now := time.Now().UTC()

	labels := make([]models.AddressLabel, 0, len(rows))
	for _, row := range rows {
		address, err := row.Str("address")
		if err != nil {
			return nil, err
		}
		uniqueContracts, err := row.Int("unique_dex_contracts")
		if err != nil {
			return nil, err
		}
		totalInteractions, err := row.Int("total_dex_interactions")
		if err != nil {
			return nil, err
		}

		contractScore := clamp01(float64(uniqueContracts) / 5.0)
		activityScore := clamp01(float64(totalInteractions) / 50.0)
		confidence := (contractScore + activityScore) / 2.0
		if confidence < dexUserMinConfidence {
			confidence = dexUserMinConfidence
		}

		labels = append(labels, models.AddressLabel{
			Address:    address,
			Label:      r.Category(),
			Confidence: confidence,
			SourceRule: fmt.Sprintf("dex_interactions >= %d", r.minInteractions()),
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return labels, nil
}
