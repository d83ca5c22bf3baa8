package pipeline

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"apollo/internal/models"
	"apollo/internal/rule"
)

// ErrUnknownRule is returned when a caller requests a category that was
// never registered. Unlike data-source outages this is a usage error and is
// never swallowed.
var ErrUnknownRule = errors.New("unknown rule")

// Pipeline owns the open, name-keyed rule registry and the retained set of
// labels from the most recent run. Writes are serialized through the
// pipeline; reads may run concurrently with each other.
type Pipeline struct {
	logger *zap.Logger

	mu     sync.RWMutex
	rules  map[string]rule.Rule
	labels []models.AddressLabel
}

func New(logger *zap.Logger) *Pipeline {
	return &Pipeline{
		logger: logger,
		rules:  map[string]rule.Rule{},
	}
}

// Register adds or replaces a rule under a category name. The registry is
// open: new rules can arrive at runtime.
func (p *Pipeline) Register(category string, r rule.Rule) {
	if category == "" || r == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rules[category] = r
}

// Categories lists registered rule names in sorted order.
func (p *Pipeline) Categories() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	names := make([]string, 0, len(p.rules))
	for name := range p.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RunAll executes the selected rules (all registered when categories is
// empty) and replaces the retained set with the merged output. Each rule
// runs behind the rule.Run isolation boundary, so one failing rule
// contributes zero labels without blocking the others. Unknown requested
// categories are skipped with a warning.
func (p *Pipeline) RunAll(ctx context.Context, categories ...string) []models.AddressLabel {
	selected := p.selectRules(categories)

	merged := make([]models.AddressLabel, 0)
	for _, entry := range selected {
		merged = append(merged, rule.Run(ctx, entry.rule, p.logger)...)
	}

	if len(merged) == 0 && p.logger != nil {
		p.logger.Warn("pipeline run produced no labels")
	}

	p.mu.Lock()
	p.labels = merged
	p.mu.Unlock()

	if p.logger != nil {
		p.logger.Info("pipeline run complete", zap.Int("total_labels", len(merged)))
	}
	return append([]models.AddressLabel(nil), merged...)
}

// RunOne executes exactly one registered rule and replaces only that
// category's records in the retained set. Requesting an unregistered
// category is an error.
func (p *Pipeline) RunOne(ctx context.Context, category string) ([]models.AddressLabel, error) {
	p.mu.RLock()
	r, ok := p.rules[category]
	p.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownRule
	}

	labels := rule.Run(ctx, r, p.logger)

	// Emitted labels carry the rule's own category, which the open registry
	// does not force to match the registration name. Prune by what the rule
	// emits so a re-run replaces instead of accumulating.
	emitted := r.Category()

	p.mu.Lock()
	kept := make([]models.AddressLabel, 0, len(p.labels)+len(labels))
	for _, l := range p.labels {
		if l.Label != emitted {
			kept = append(kept, l)
		}
	}
	p.labels = append(kept, labels...)
	p.mu.Unlock()

	return append([]models.AddressLabel(nil), labels...), nil
}

// Clear empties the retained set.
func (p *Pipeline) Clear() {
	p.mu.Lock()
	p.labels = nil
	p.mu.Unlock()
}

// Labels returns a copy of the retained set.
func (p *Pipeline) Labels() []models.AddressLabel {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]models.AddressLabel(nil), p.labels...)
}

type selectedRule struct {
	category string
	rule     rule.Rule
}

// selectRules resolves the requested categories against the registry in
// sorted order so log output is stable run to run.
func (p *Pipeline) selectRules(categories []string) []selectedRule {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := append([]string(nil), categories...)
	if len(names) == 0 {
		names = make([]string, 0, len(p.rules))
		for name := range p.rules {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	selected := make([]selectedRule, 0, len(names))
	for _, name := range names {
		r, ok := p.rules[name]
		if !ok {
			if p.logger != nil {
				p.logger.Warn("skipping unknown rule", zap.String("category", name))
			}
			continue
		}
		selected = append(selected, selectedRule{category: name, rule: r})
	}
	return selected
}
