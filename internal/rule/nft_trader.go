package rule

import (
	"context"
	"fmt"
	"time"

	"apollo/internal/bigquery"
	"apollo/internal/config"
	"apollo/internal/models"
)

const (
	DefaultNFTRatioThreshold = 0.7
	DefaultNFTMinActivity    = 10

	nftTraderMinConfidence = 0.4
	nftActivityBonusCap    = 0.2
)

// NFTTraderRule labels addresses whose token activity is dominated by ERC-721
// transfers. Confidence is the NFT ratio plus an activity bonus capped at
// 0.2 (max bonus at 100+ interactions), clamped to 1.0 and floored at 0.4.
type NFTTraderRule struct {
	Source QueryRunner
	Config config.NFTTraderConfig
	Label  string
}

func (r *NFTTraderRule) Category() string {
	if r.Label != "" {
		return r.Label
	}
	return "nft_trader"
}

func (r *NFTTraderRule) threshold() float64 {
	if r.Config.RatioThreshold > 0 {
		return r.Config.RatioThreshold
	}
	return DefaultNFTRatioThreshold
}

func (r *NFTTraderRule) minActivity() int {
	if r.Config.MinActivity > 0 {
		return r.Config.MinActivity
	}
	return DefaultNFTMinActivity
}

func (r *NFTTraderRule) query() string {
	return fmt.Sprintf(`
WITH address_interactions AS (
    SELECT
        from_address as address,
        COUNT(*) as total_interactions,
        SUM(CASE WHEN token_standard = 'ERC-721' THEN 1 ELSE 0 END) as nft_interactions
    FROM `+"`bigquery-public-data.crypto_ethereum.token_transfers`"+`
    WHERE DATE(block_timestamp) >= DATE_SUB(CURRENT_DATE(), INTERVAL 30 DAY)
    GROUP BY from_address
    HAVING total_interactions >= %d
)
SELECT
    address,
    nft_interactions / total_interactions as nft_ratio,
    total_interactions
FROM address_interactions
WHERE nft_interactions / total_interactions >= %v
ORDER BY nft_ratio DESC
LIMIT 1000`, r.minActivity(), r.threshold())
}

func (r *NFTTraderRule) GenerateLabels(ctx context.Context) ([]models.AddressLabel, error) {
	rows, err := r.Source.Query(ctx, r.query())
	if err != nil {
		return nil, err
	}
	return r.Score(rows)
}

func (r *NFTTraderRule) Score(rows []bigquery.Row) ([]models.AddressLabel, error) {
	now := time.Now().UTC()

	labels := make([]models.AddressLabel, 0, len(rows))
	for _, row := range rows {
		address, err := row.Str("address")
		if err != nil {
			return nil, err
		}
		ratio, err := row.Float("nft_ratio")
		if err != nil {
			return nil, err
		}
		totalInteractions, err := row.Int("total_interactions")
		if err != nil {
			return nil, err
		}

		activityBonus := float64(totalInteractions) / 100.0
		if activityBonus > nftActivityBonusCap {
			activityBonus = nftActivityBonusCap
		}
		confidence := clamp01(ratio + activityBonus)
		if confidence < nftTraderMinConfidence {
			confidence = nftTraderMinConfidence
		}

		labels = append(labels, models.AddressLabel{
			Address:    address,
			Label:      r.Category(),
			Confidence: confidence,
			SourceRule: fmt.Sprintf("nft_ratio >= %v", r.threshold()),
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return labels, nil
}
