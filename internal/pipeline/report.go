package pipeline

import (
	"fmt"
	"strconv"
	"time"

	"startercode/internal/formatter"
	"startercode/internal/models"
)

// Failure is one row that could not be rendered.
type Failure struct {
	Key string
	Err error
}

// Report summarises a run.
type Report struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration

	Datasets int
	Rows     int
	// Issues counts non-fatal snapshot problems such as duplicate ids.
	Issues int

	PerCategory  map[models.Category]int
	Unclassified int
	Ambiguous    int

	Rendered int
	Failed   int
	Failures []Failure

	Written int
}

// Table renders the report as an aligned markdown table.
func (r *Report) Table() string {
	rows := [][]string{
		{"run", r.RunID},
		{"datasets", strconv.Itoa(r.Datasets)},
		{"resource rows", strconv.Itoa(r.Rows)},
		{"snapshot issues", strconv.Itoa(r.Issues)},
	}

	for _, cat := range models.Categories {
		rows = append(rows, []string{"classified " + string(cat), strconv.Itoa(r.PerCategory[cat])})
	}

	rows = append(rows,
		[]string{"unclassified", strconv.Itoa(r.Unclassified)},
		[]string{"ambiguous", strconv.Itoa(r.Ambiguous)},
		[]string{"rendered", strconv.Itoa(r.Rendered)},
		[]string{"failed", strconv.Itoa(r.Failed)},
		[]string{"files written", strconv.Itoa(r.Written)},
		[]string{"duration", r.Duration.Round(time.Millisecond).String()},
	)

	return formatter.FormatTable([]string{"Metric", "Value"}, rows)
}

// String returns a one-line summary.
func (r *Report) String() string {
	return fmt.Sprintf("Report{Run: %s, Rows: %d, Rendered: %d, Failed: %d}", r.RunID, r.Rows, r.Rendered, r.Failed)
}
