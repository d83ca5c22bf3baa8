package pipeline

import (
	"math"
	"sort"
	"strings"

	"apollo/internal/models"
)

// FilterByCategory returns retained records whose category matches name
// exactly, in retained order.
func (p *Pipeline) FilterByCategory(name string) []models.AddressLabel {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.AddressLabel, 0)
	for _, l := range p.labels {
		if l.Label == name {
			out = append(out, l)
		}
	}
	return out
}

// FilterByAddress returns retained records for one address. Address matching
// is case-insensitive.
func (p *Pipeline) FilterByAddress(address string) []models.AddressLabel {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.AddressLabel, 0)
	for _, l := range p.labels {
		if l.SameAddress(address) {
			out = append(out, l)
		}
	}
	return out
}

// FilterByConfidence returns retained records with confidence >= threshold.
func (p *Pipeline) FilterByConfidence(threshold float64) []models.AddressLabel {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]models.AddressLabel, 0)
	for _, l := range p.labels {
		if l.Confidence >= threshold {
			out = append(out, l)
		}
	}
	return out
}

// MultiCategoryAddresses groups the retained set by address and returns only
// addresses carrying two or more distinct categories, mapped to their sorted
// category set. Duplicate records in the same category do not count.
func (p *Pipeline) MultiCategoryAddresses() map[string][]string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	byAddress := map[string]map[string]struct{}{}
	for _, l := range p.labels {
		key := strings.ToLower(l.Address)
		if byAddress[key] == nil {
			byAddress[key] = map[string]struct{}{}
		}
		byAddress[key][l.Label] = struct{}{}
	}

	out := map[string][]string{}
	for addr, cats := range byAddress {
		if len(cats) < 2 {
			continue
		}
		names := make([]string, 0, len(cats))
		for name := range cats {
			names = append(names, name)
		}
		sort.Strings(names)
		out[addr] = names
	}
	return out
}

// Stats summarizes the retained set. All fields are zero on an empty set.
type Stats struct {
	TotalLabels     int            `json:"total_labels"`
	UniqueAddresses int            `json:"unique_addresses"`
	PerCategory     map[string]int `json:"per_category"`

	ConfidenceMean   float64 `json:"confidence_mean"`
	ConfidenceMedian float64 `json:"confidence_median"`
	ConfidenceMin    float64 `json:"confidence_min"`
	ConfidenceMax    float64 `json:"confidence_max"`
	ConfidenceStdDev float64 `json:"confidence_stddev"`

	HighConfidence         int `json:"high_confidence"` // confidence >= 0.8
	MultiCategoryAddresses int `json:"multi_category_addresses"`
}

// Statistics computes summary statistics over the full retained set.
func (p *Pipeline) Statistics() Stats {
	multi := len(p.MultiCategoryAddresses())

	p.mu.RLock()
	defer p.mu.RUnlock()

	stats := Stats{
		PerCategory:            map[string]int{},
		MultiCategoryAddresses: multi,
	}
	if len(p.labels) == 0 {
		return stats
	}

	stats.TotalLabels = len(p.labels)

	addresses := map[string]struct{}{}
	confidences := make([]float64, 0, len(p.labels))
	var sum float64
	for _, l := range p.labels {
		addresses[strings.ToLower(l.Address)] = struct{}{}
		stats.PerCategory[l.Label]++
		confidences = append(confidences, l.Confidence)
		sum += l.Confidence
		if l.Confidence >= 0.8 {
			stats.HighConfidence++
		}
	}
	stats.UniqueAddresses = len(addresses)

	sort.Float64s(confidences)
	n := len(confidences)
	stats.ConfidenceMin = confidences[0]
	stats.ConfidenceMax = confidences[n-1]
	stats.ConfidenceMean = sum / float64(n)
	if n%2 == 1 {
		stats.ConfidenceMedian = confidences[n/2]
	} else {
		stats.ConfidenceMedian = (confidences[n/2-1] + confidences[n/2]) / 2
	}

	// Population standard deviation: defined for n=1 (zero), which a sample
	// estimator is not.
	var sq float64
	for _, c := range confidences {
		d := c - stats.ConfidenceMean
		sq += d * d
	}
	stats.ConfidenceStdDev = math.Sqrt(sq / float64(n))

	return stats
}
