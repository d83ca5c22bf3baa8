package gormrepository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"apollo/internal/models"
	"apollo/internal/repository"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) UpsertAddressLabel(ctx context.Context, item *models.AddressLabel) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if strings.TrimSpace(item.Address) == "" || strings.TrimSpace(item.Label) == "" {
		return nil
	}
	// Uniqueness is enforced by uniq_address_label (address, label). A re-run
	// refreshes confidence and updated_at for an existing pair.
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "address"}, {Name: "label"}},
		DoUpdates: clause.AssignmentColumns([]string{"confidence", "source_rule", "updated_at"}),
	}).Create(item).Error
}

// ReplaceLabelsForCategory swaps the stored rows for one category in a single
// transaction, mirroring the pipeline's replace-on-run semantics.
func (s *Store) ReplaceLabelsForCategory(ctx context.Context, category string, items []models.AddressLabel) error {
	if s == nil || s.db == nil {
		return nil
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("label = ?", category).Delete(&models.AddressLabel{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		return tx.CreateInBatches(items, 200).Error
	})
}

func (s *Store) ListAddressLabels(ctx context.Context, params repository.ListLabelsParams) ([]models.AddressLabel, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := applyLabelFilters(s.db.WithContext(ctx).Model(&models.AddressLabel{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "confidence")
	limit := normalizeLimit(params.Limit, 500)
	offset := normalizeOffset(params.Offset)
	var items []models.AddressLabel
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountAddressLabels(ctx context.Context, params repository.ListLabelsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var count int64
	query := applyLabelFilters(s.db.WithContext(ctx).Model(&models.AddressLabel{}), params)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (s *Store) DeleteAllLabels(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Where("1 = 1").Delete(&models.AddressLabel{}).Error
}

func (s *Store) InsertLabelRun(ctx context.Context, item *models.LabelRun) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if item.StartedAt.IsZero() {
		item.StartedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListLabelRuns(ctx context.Context, limit int) ([]models.LabelRun, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.LabelRun
	err := s.db.WithContext(ctx).
		Model(&models.LabelRun{}).
		Order("started_at desc").
		Limit(normalizeLimit(limit, 50)).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func applyLabelFilters(query *gorm.DB, params repository.ListLabelsParams) *gorm.DB {
	if params.Label != nil && strings.TrimSpace(*params.Label) != "" {
		query = query.Where("label = ?", strings.TrimSpace(*params.Label))
	}
	if params.Address != nil && strings.TrimSpace(*params.Address) != "" {
		query = query.Where("LOWER(address) = LOWER(?)", strings.TrimSpace(*params.Address))
	}
	if params.MinConfidence != nil {
		query = query.Where("confidence >= ?", *params.MinConfidence)
	}
	return query
}

func applyOrder(query *gorm.DB, orderBy string, asc *bool, fallback string) *gorm.DB {
	column := strings.TrimSpace(orderBy)
	if column == "" {
		column = fallback
	}
	direction := "desc"
	if asc != nil && *asc {
		direction = "asc"
	}
	return query.Order(column + " " + direction)
}

func normalizeLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 500 {
		return 500
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
