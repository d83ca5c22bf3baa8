package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"apollo/internal/models"
)

// Columns is the flat-file projection of the label set. Names and order are
// a compatibility contract with downstream reporting; do not reorder.
var Columns = []string{"address", "label", "confidence", "created_at", "updated_at", "source_rule"}

// WriteCSV writes one row per label with the fixed column set. Timestamps
// are RFC3339, confidence is printed with six decimal places.
func WriteCSV(w io.Writer, labels []models.AddressLabel) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, l := range labels {
		record := []string{
			l.Address,
			l.Label,
			strconv.FormatFloat(l.Confidence, 'f', 6, 64),
			l.CreatedAt.UTC().Format(time.RFC3339),
			l.UpdatedAt.UTC().Format(time.RFC3339),
			l.SourceRule,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
