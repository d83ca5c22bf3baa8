package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"apollo/internal/models"
)

func TestWriteCSVColumnContract(t *testing.T) {
	created := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	labels := []models.AddressLabel{
		{
			Address:    "0xabc",
			Label:      "whale",
			Confidence: 0.75,
			SourceRule: "eth_balance >= 1000",
			CreatedAt:  created,
			UpdatedAt:  created,
		},
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, labels); err != nil {
		t.Fatalf("err=%v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse err=%v", err)
	}
	if len(records) != 2 {
		t.Fatalf("rows=%d want=2", len(records))
	}

	wantHeader := "address,label,confidence,created_at,updated_at,source_rule"
	if got := strings.Join(records[0], ","); got != wantHeader {
		t.Fatalf("header=%q want=%q", got, wantHeader)
	}

	row := records[1]
	if row[0] != "0xabc" || row[1] != "whale" {
		t.Fatalf("row=%v", row)
	}
	if row[2] != "0.750000" {
		t.Fatalf("confidence=%q want=0.750000", row[2])
	}
	if row[3] != "2024-08-01T12:00:00Z" || row[4] != "2024-08-01T12:00:00Z" {
		t.Fatalf("timestamps=%q,%q", row[3], row[4])
	}
	if row[5] != "eth_balance >= 1000" {
		t.Fatalf("source_rule=%q", row[5])
	}
}

func TestWriteCSVEmptySetStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil); err != nil {
		t.Fatalf("err=%v", err)
	}
	got := strings.TrimSpace(buf.String())
	if got != strings.Join(Columns, ",") {
		t.Fatalf("output=%q", got)
	}
}
