package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"go.uber.org/zap"

	"apollo/internal/models"
	"apollo/internal/pipeline"
	"apollo/internal/repository"
)

type fakeRule struct {
	category string
	labels   []models.AddressLabel
	err      error
}

func (f *fakeRule) Category() string { return f.category }

func (f *fakeRule) GenerateLabels(ctx context.Context) ([]models.AddressLabel, error) {
	return f.labels, f.err
}

type stubRepo struct {
	repository.Repository

	replaced map[string][]models.AddressLabel
	runs     []*models.LabelRun
	failOn   string
}

func newStubRepo() *stubRepo {
	return &stubRepo{replaced: map[string][]models.AddressLabel{}}
}

func (s *stubRepo) ReplaceLabelsForCategory(ctx context.Context, category string, items []models.AddressLabel) error {
	if s.failOn == category {
		return errors.New("store unavailable")
	}
	s.replaced[category] = items
	return nil
}

func (s *stubRepo) InsertLabelRun(ctx context.Context, item *models.LabelRun) error {
	s.runs = append(s.runs, item)
	return nil
}

func label(addr, category string, confidence float64) models.AddressLabel {
	return models.AddressLabel{Address: addr, Label: category, Confidence: confidence, SourceRule: "test"}
}

func newService(repo repository.Repository, rules ...*fakeRule) *PipelineService {
	p := pipeline.New(zap.NewNop())
	for _, r := range rules {
		p.Register(r.category, r)
	}
	return &PipelineService{Pipeline: p, Repo: repo, Logger: zap.NewNop()}
}

func TestRunAndStorePersistsPerCategory(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo,
		&fakeRule{category: "whale", labels: []models.AddressLabel{label("0xa", "whale", 0.9)}},
		&fakeRule{category: "dex_user", labels: []models.AddressLabel{label("0xb", "dex_user", 0.5)}},
	)

	result, err := svc.RunAndStore(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if result.RunID == "" {
		t.Fatal("empty run id")
	}
	if result.Status != models.RunStatusOK {
		t.Fatalf("status=%q", result.Status)
	}
	if len(result.Categories) != 2 {
		t.Fatalf("categories=%v", result.Categories)
	}
	if result.Stats.TotalLabels != 2 {
		t.Fatalf("total_labels=%d", result.Stats.TotalLabels)
	}
	if result.FinishedAt.Before(result.StartedAt) {
		t.Fatalf("finished=%v before started=%v", result.FinishedAt, result.StartedAt)
	}

	if got := repo.replaced["whale"]; len(got) != 1 || got[0].Address != "0xa" {
		t.Fatalf("whale rows=%v", got)
	}
	if got := repo.replaced["dex_user"]; len(got) != 1 || got[0].Address != "0xb" {
		t.Fatalf("dex_user rows=%v", got)
	}

	if len(repo.runs) != 1 {
		t.Fatalf("runs=%d", len(repo.runs))
	}
	run := repo.runs[0]
	if run.RunID != result.RunID || run.Status != models.RunStatusOK || run.TotalLabels != 2 {
		t.Fatalf("run record=%+v", run)
	}
	var stats pipeline.Stats
	if err := json.Unmarshal(run.Stats, &stats); err != nil {
		t.Fatalf("stats json: %v", err)
	}
	if stats.TotalLabels != 2 {
		t.Fatalf("stored stats=%+v", stats)
	}
}

func TestRunAndStoreStatusPartial(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo,
		&fakeRule{category: "whale", labels: []models.AddressLabel{label("0xa", "whale", 0.9)}},
		&fakeRule{category: "dex_user", err: errors.New("query timeout")},
	)

	result, err := svc.RunAndStore(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if result.Status != models.RunStatusPartial {
		t.Fatalf("status=%q", result.Status)
	}
	// The failed category still gets its stored rows replaced with nothing.
	if got, ok := repo.replaced["dex_user"]; !ok || len(got) != 0 {
		t.Fatalf("dex_user rows=%v present=%v", got, ok)
	}
}

func TestRunAndStoreStatusEmpty(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo, &fakeRule{category: "whale"})

	result, err := svc.RunAndStore(context.Background())
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if result.Status != models.RunStatusEmpty {
		t.Fatalf("status=%q", result.Status)
	}
}

func TestRunAndStoreSubsetOnlyTouchesSelected(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo,
		&fakeRule{category: "whale", labels: []models.AddressLabel{label("0xa", "whale", 0.9)}},
		&fakeRule{category: "nft_trader", labels: []models.AddressLabel{label("0xc", "nft_trader", 0.8)}},
	)

	result, err := svc.RunAndStore(context.Background(), "whale")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(result.Categories) != 1 || result.Categories[0] != "whale" {
		t.Fatalf("categories=%v", result.Categories)
	}
	if _, ok := repo.replaced["nft_trader"]; ok {
		t.Fatal("nft_trader replaced despite not being selected")
	}
}

func TestRunAndStorePersistenceFailure(t *testing.T) {
	repo := newStubRepo()
	repo.failOn = "whale"
	svc := newService(repo, &fakeRule{category: "whale", labels: []models.AddressLabel{label("0xa", "whale", 0.9)}})

	if _, err := svc.RunAndStore(context.Background()); err == nil {
		t.Fatal("expected persistence error")
	}
	if len(repo.runs) != 0 {
		t.Fatalf("run record written despite failure: %v", repo.runs)
	}
}

func TestRunOneAndStore(t *testing.T) {
	repo := newStubRepo()
	svc := newService(repo, &fakeRule{category: "whale", labels: []models.AddressLabel{label("0xa", "whale", 0.9)}})

	labels, err := svc.RunOneAndStore(context.Background(), "whale")
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if len(labels) != 1 {
		t.Fatalf("labels=%v", labels)
	}
	if got := repo.replaced["whale"]; len(got) != 1 {
		t.Fatalf("stored=%v", got)
	}
}

func TestRunOneAndStoreUnknownCategory(t *testing.T) {
	svc := newService(newStubRepo(), &fakeRule{category: "whale"})

	_, err := svc.RunOneAndStore(context.Background(), "nope")
	if !errors.Is(err, pipeline.ErrUnknownRule) {
		t.Fatalf("err=%v want ErrUnknownRule", err)
	}
}
