package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"

	"apollo/internal/models"
	"apollo/internal/pipeline"
	"apollo/internal/repository"
)

// PipelineService runs the labeling pipeline and projects the result into
// the store: replaced label rows per category plus one audit run record.
type PipelineService struct {
	Pipeline *pipeline.Pipeline
	Repo     repository.Repository
	Logger   *zap.Logger
}

type RunResult struct {
	RunID      string         `json:"run_id"`
	Status     string         `json:"status"`
	Categories []string       `json:"categories"`
	Stats      pipeline.Stats `json:"stats"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}

// RunAndStore executes the selected rules (all when categories is empty),
// persists the merged output, and records the run. Rule failures are already
// absorbed inside the pipeline; errors here are persistence failures only.
func (s *PipelineService) RunAndStore(ctx context.Context, categories ...string) (RunResult, error) {
	started := time.Now().UTC()

	selected := categories
	if len(selected) == 0 {
		selected = s.Pipeline.Categories()
	}

	labels := s.Pipeline.RunAll(ctx, categories...)
	stats := s.Pipeline.Statistics()

	result := RunResult{
		RunID:      uuid.NewString(),
		Status:     runStatus(selected, stats),
		Categories: selected,
		Stats:      stats,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
	}

	if s.Repo != nil {
		byCategory := map[string][]models.AddressLabel{}
		for _, l := range labels {
			byCategory[l.Label] = append(byCategory[l.Label], l)
		}
		for _, cat := range selected {
			if err := s.Repo.ReplaceLabelsForCategory(ctx, cat, byCategory[cat]); err != nil {
				return result, err
			}
		}
		if err := s.Repo.InsertLabelRun(ctx, s.runRecord(result)); err != nil {
			return result, err
		}
	}

	if s.Logger != nil {
		s.Logger.Info("pipeline run stored",
			zap.String("run_id", result.RunID),
			zap.String("status", result.Status),
			zap.Int("total_labels", stats.TotalLabels),
		)
	}
	return result, nil
}

// RunOneAndStore executes a single rule and replaces its stored category.
// Unknown categories surface pipeline.ErrUnknownRule untouched.
func (s *PipelineService) RunOneAndStore(ctx context.Context, category string) ([]models.AddressLabel, error) {
	labels, err := s.Pipeline.RunOne(ctx, category)
	if err != nil {
		return nil, err
	}
	if s.Repo != nil {
		if err := s.Repo.ReplaceLabelsForCategory(ctx, category, labels); err != nil {
			return labels, err
		}
	}
	return labels, nil
}

func (s *PipelineService) runRecord(result RunResult) *models.LabelRun {
	statsJSON, err := json.Marshal(result.Stats)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("failed to encode run stats",
				zap.String("run_id", result.RunID),
				zap.Error(err),
			)
		}
		statsJSON = nil
	}
	return &models.LabelRun{
		RunID:       result.RunID,
		Categories:  strings.Join(result.Categories, ","),
		Status:      result.Status,
		TotalLabels: result.Stats.TotalLabels,
		Stats:       datatypes.JSON(statsJSON),
		StartedAt:   result.StartedAt,
		FinishedAt:  result.FinishedAt,
	}
}

func runStatus(selected []string, stats pipeline.Stats) string {
	if stats.TotalLabels == 0 {
		return models.RunStatusEmpty
	}
	for _, cat := range selected {
		if stats.PerCategory[cat] == 0 {
			return models.RunStatusPartial
		}
	}
	return models.RunStatusOK
}
