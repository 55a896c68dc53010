package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/CentZek/newesthr-sub000/internal/dto"
	"github.com/CentZek/newesthr-sub000/internal/model"
	"github.com/CentZek/newesthr-sub000/pkg/batch"
)

// parseRange both dates required, from not after to
func parseRange(from, to string) (time.Time, time.Time, error) {
	f, err := dto.ParseDate(from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--from: %w", err)
	}
	t, err := dto.ParseDate(to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("--to: %w", err)
	}
	if t.Before(f) {
		return time.Time{}, time.Time{}, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	return f, t, nil
}

// recordFilter optional bounds; empty strings leave the side open
func recordFilter(from, to string, employees []string) (model.RecordFilter, error) {
	var f model.RecordFilter
	if from != "" {
		t, err := dto.ParseDate(from)
		if err != nil {
			return f, fmt.Errorf("--from: %w", err)
		}
		f.From = &t
	}
	if to != "" {
		t, err := dto.ParseDate(to)
		if err != nil {
			return f, fmt.Errorf("--to: %w", err)
		}
		f.To = &t
	}
	if f.From != nil && f.To != nil && f.To.Before(*f.From) {
		return f, fmt.Errorf("--to %s is before --from %s", to, from)
	}
	f.EmployeeIDs = employees
	return f, nil
}

func printFailures(w io.Writer, res batch.Result) {
	if res.Cancelled {
		fmt.Fprintln(w, "cancelled before every chunk ran")
	}
	for _, c := range res.Failed {
		fmt.Fprintf(w, "chunk %d (items %d-%d) failed: %s\n", c.Chunk, c.From, c.To, c.Err)
	}
}
