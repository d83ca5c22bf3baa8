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
	DefaultLookbackDays = 30

	newWalletMinConfidence = 0.1
)

// NewWalletRule labels addresses whose first transaction falls inside the
// lookback window. Confidence decays linearly with wallet age: 1.0 at day
// zero down to the 0.1 floor at the window edge.
type NewWalletRule struct {
	Source QueryRunner
	Config config.NewWalletConfig
	Label  string

	// Now is the clock for age computation; nil means time.Now. Tests pin it.
	Now func() time.Time
}

func (r *NewWalletRule) Category() string {
	if r.Label != "" {
		return r.Label
	}
	return "new_wallet"
}

func (r *NewWalletRule) lookbackDays() int {
	if r.Config.LookbackDays > 0 {
		return r.Config.LookbackDays
	}
	return DefaultLookbackDays
}

func (r *NewWalletRule) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}

func (r *NewWalletRule) query() string {
	return fmt.Sprintf(`
WITH first_transactions AS (
    SELECT
        from_address as address,
        MIN(block_timestamp) as first_transaction_time
    FROM `+"`bigquery-public-data.crypto_ethereum.transactions`"+`
    WHERE from_address IS NOT NULL
    AND from_address != '0x0000000000000000000000000000000000000000'
    GROUP BY from_address
)
SELECT
    address,
    first_transaction_time
FROM first_transactions
WHERE first_transaction_time >= TIMESTAMP_SUB(CURRENT_TIMESTAMP(), INTERVAL %d DAY)
ORDER BY first_transaction_time DESC
LIMIT 5000`, r.lookbackDays())
}

func (r *NewWalletRule) GenerateLabels(ctx context.Context) ([]models.AddressLabel, error) {
	rows, err := r.Source.Query(ctx, r.query())
	if err != nil {
		return nil, err
	}
	return r.Score(rows)
}

func (r *NewWalletRule) Score(rows []bigquery.Row) ([]models.AddressLabel, error) {
	lookback := r.lookbackDays()
	now := r.now()

	labels := make([]models.AddressLabel, 0, len(rows))
	for _, row := range rows {
		address, err := row.Str("address")
		if err != nil {
			return nil, err
		}
		firstTx, err := row.Time("first_transaction_time")
		if err != nil {
			return nil, err
		}

		daysOld := int(now.Sub(firstTx).Hours() / 24)
		confidence := 1.0 - float64(daysOld)/float64(lookback)
		if confidence < newWalletMinConfidence {
			confidence = newWalletMinConfidence
		}
		if confidence > 1.0 {
			confidence = 1.0
		}

		labels = append(labels, models.AddressLabel{
			Address:    address,
			Label:      r.Category(),
			Confidence: confidence,
			SourceRule: fmt.Sprintf("first_transaction_within_%d_days", lookback),
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return labels, nil
}
