package rule

import (
	"testing"

	"apollo/internal/bigquery"
	"apollo/internal/config"
)

func balanceRow(address, balance string) bigquery.Row {
	return bigquery.Row{"address": address, "eth_balance": balance}
}

func TestWhaleConfidenceBoundaries(t *testing.T) {
	r := &WhaleRule{Config: config.WhaleConfig{MinBalanceETH: 1000}}

	tests := []struct {
		name    string
		balance string
		want    float64
	}{
		{"at minimum", "1000", 0.1},
		{"midpoint", "5000", 0.5},
		{"at 10x minimum", "10000", 1.0},
		{"above 10x clamps", "250000", 1.0},
	}
	for _, tt := range tests {
		labels, err := r.Score([]bigquery.Row{balanceRow("0xwhale", tt.balance)})
		if err != nil {
			t.Fatalf("%s: err=%v", tt.name, err)
		}
		if got := confidenceFor(t, labels, "0xwhale"); got != tt.want {
			t.Fatalf("%s: confidence=%v want=%v", tt.name, got, tt.want)
		}
		assertConfidenceRange(t, labels)
	}
}

func TestWhaleSourceRule(t *testing.T) {
	r := &WhaleRule{Config: config.WhaleConfig{MinBalanceETH: 500}}
	labels, err := r.Score([]bigquery.Row{balanceRow("0xabc", "600")})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if labels[0].SourceRule != "eth_balance >= 500" {
		t.Fatalf("source_rule=%q", labels[0].SourceRule)
	}
	if labels[0].Label != "whale" {
		t.Fatalf("label=%q", labels[0].Label)
	}
}

func TestWhaleDefaultsWhenUnconfigured(t *testing.T) {
	r := &WhaleRule{}
	labels, err := r.Score([]bigquery.Row{balanceRow("0xabc", "10000")})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	// Default minimum is 1000, so 10000 sits exactly at the 10x cap.
	if got := labels[0].Confidence; got != 1.0 {
		t.Fatalf("confidence=%v want=1.0", got)
	}
}

func TestWhaleMalformedRow(t *testing.T) {
	r := &WhaleRule{}
	if _, err := r.Score([]bigquery.Row{{"address": "0xabc"}}); err == nil {
		t.Fatalf("expected error for missing balance column")
	}
}
