package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/CentZek/newesthr-sub000/internal/model"
	"github.com/CentZek/newesthr-sub000/pkg/batch"
)

func TestHolidayFileRoundTrip(t *testing.T) {
	items := []model.HolidaySnapshot{
		{Date: "2024-03-08", Name: "Spring"},
		{Date: "2024-12-25", Name: "Winter"},
	}
	var buf bytes.Buffer
	if err := encodeHolidays(&buf, items); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(buf.String(), "exported_at:") {
		t.Errorf("missing header in %q", buf.String())
	}

	got, err := decodeHolidays(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0] != items[0] || got[1] != items[1] {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestDecodeHolidays_Rejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad date", "holidays:\n  - date: 2024-13-01\n    name: x\n"},
		{"unknown field", "holidays:\n  - date: 2024-03-08\n    label: x\n"},
		{"not yaml", "holidays: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := decodeHolidays(strings.NewReader(tt.doc)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestRecordFilter(t *testing.T) {
	f, err := recordFilter("2024-03-01", "2024-03-31", []string{"e1"})
	if err != nil {
		t.Fatalf("recordFilter: %v", err)
	}
	if f.From == nil || f.To == nil || f.To.Day() != 31 || len(f.EmployeeIDs) != 1 {
		t.Errorf("unexpected filter %+v", f)
	}

	if f, err := recordFilter("", "", nil); err != nil || f.From != nil || f.To != nil {
		t.Errorf("open filter = %+v, %v", f, err)
	}
	if _, err := recordFilter("2024-03-31", "2024-03-01", nil); err == nil {
		t.Error("expected an error for a reversed range")
	}
	if _, err := recordFilter("03/01/2024", "", nil); err == nil {
		t.Error("expected an error for a bad date")
	}
}

func TestParseRange(t *testing.T) {
	if _, _, err := parseRange("2024-03-01", ""); err == nil {
		t.Error("both ends are required")
	}
	from, to, err := parseRange("2024-03-01", "2024-03-01")
	if err != nil || !from.Equal(to) {
		t.Errorf("single day range: %v %v %v", from, to, err)
	}
}

func TestPrintFailures(t *testing.T) {
	var buf bytes.Buffer
	printFailures(&buf, batch.Result{
		Failed:    []batch.ChunkError{{Chunk: 2, From: 500, To: 999, Err: "deadlock"}},
		Cancelled: true,
	})
	out := buf.String()
	if !strings.Contains(out, "chunk 2 (items 500-999) failed: deadlock") || !strings.Contains(out, "cancelled") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestIsYAMLPath(t *testing.T) {
	if !isYAMLPath("h.yaml") || !isYAMLPath("h.yml") || isYAMLPath("0b7e0f3a-5c1d-4b7e-9a39-2b8a44e1c0de") {
		t.Error("yaml path detection wrong")
	}
}
