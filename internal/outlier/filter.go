// Package outlier trims the enriched table with sequential interquartile-range rules.
package outlier

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/gnadela/immoeliza-analysis/internal/models"
)

// iqrFactor widens the interquartile range into the retention bounds.
const iqrFactor = 1.5

// Step describes what one column's rule did.
type Step struct {
	Column     Column  `json:"column"`
	Q1         float64 `json:"q1"`
	Q3         float64 `json:"q3"`
	IQR        float64 `json:"iqr"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
	RowsIn     int     `json:"rows_in"`
	RowsOut    int     `json:"rows_out"`
	// NullsDropped counts rows removed because the column was null.
	NullsDropped int `json:"nulls_dropped"`
}

// Filter applies the rules in order.
type Filter struct {
	logger *logrus.Logger
}

// NewFilter creates a filter. A nil logger logs JSON to stdout.
func NewFilter(logger *logrus.Logger) *Filter {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}
	return &Filter{logger: logger}
}

// Apply filters rows column by column, recomputing quartiles on the survivors of the
// previous column each time. Rows with a null value for the current column are removed.
// Columns the filter cannot read are skipped with an error log; use ParseColumns to
// reject them up front.
func (f *Filter) Apply(rows []models.EnrichedListing, columns []Column) ([]models.EnrichedListing, []Step) {
	current := make([]models.EnrichedListing, len(rows))
	copy(current, rows)
	steps := make([]Step, 0, len(columns))

	for _, col := range columns {
		if _, known := extractors[col]; !known {
			f.logger.WithField("column", string(col)).Error("Skipping unknown outlier column")
			continue
		}
		var step Step
		current, step = applyColumn(current, col)
		steps = append(steps, step)

		f.logger.WithFields(logrus.Fields{
			"column":   string(col),
			"q1":       step.Q1,
			"q3":       step.Q3,
			"rows_in":  step.RowsIn,
			"rows_out": step.RowsOut,
		}).Debug("Applied outlier rule")
	}

	f.logger.WithFields(logrus.Fields{
		"rows_in":  len(rows),
		"rows_out": len(current),
		"columns":  len(steps),
	}).Info("Filtered outliers")
	return current, steps
}

func applyColumn(rows []models.EnrichedListing, col Column) ([]models.EnrichedListing, Step) {
	ext := extractors[col]
	step := Step{Column: col, RowsIn: len(rows)}

	values := make([]float64, 0, len(rows))
	for i := range rows {
		if v, ok := ext(&rows[i]); ok {
			values = append(values, v)
		}
	}
	step.NullsDropped = len(rows) - len(values)
	if len(values) == 0 {
		return []models.EnrichedListing{}, step
	}

	q1, _, q3 := Quartiles(values)
	step.Q1 = q1
	step.Q3 = q3
	step.IQR = q3 - q1
	step.LowerBound = q1 - iqrFactor*step.IQR
	step.UpperBound = q3 + iqrFactor*step.IQR

	kept := make([]models.EnrichedListing, 0, len(values))
	for i := range rows {
		v, ok := ext(&rows[i])
		if ok && v >= step.LowerBound && v <= step.UpperBound {
			kept = append(kept, rows[i])
		}
	}
	step.RowsOut = len(kept)
	return kept, step
}
