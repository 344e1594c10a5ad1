package client

import (
	"testing"
	"time"

	"github.com/powermon/powermon/data"
)

func TestHolderAccept(t *testing.T) {
	start := time.Date(2023, time.March, 10, 10, 0, 0, 0, time.Local)
	end := start.Add(data.WindowLen)

	sum := data.WindowSummary{
		Start:   start,
		End:     end,
		Count:   42,
		Average: 1234.56,
		L1:      400.1,
		L2:      400.2,
		L3:      434.26,
	}

	var h holder

	if h.held {
		t.Fatal("holder must start empty")
	}

	r := h.accept(sum)

	if !h.held {
		t.Error("holder must hold after accept")
	}

	if r.Value != 1234.56 {
		t.Error("reading value not correct: ", r.Value)
	}

	if r.Attributes[data.AttrMeasurementCount] != 42 {
		t.Error("measurement count not correct")
	}

	if r.Attributes[data.AttrL1Average] != 400.1 ||
		r.Attributes[data.AttrL2Average] != 400.2 ||
		r.Attributes[data.AttrL3Average] != 434.26 {
		t.Error("per-phase averages not correct: ", r.Attributes)
	}

	if r.Tags[data.TagWindowStart] != start.Format(time.RFC3339) ||
		r.Tags[data.TagWindowEnd] != end.Format(time.RFC3339) {
		t.Error("window tags not correct: ", r.Tags)
	}
}

func TestHolderLastWriteWins(t *testing.T) {
	start := time.Date(2023, time.March, 10, 10, 0, 0, 0, time.Local)

	first := data.WindowSummary{
		Start:   start,
		End:     start.Add(data.WindowLen),
		Count:   3,
		Average: 100,
	}

	second := data.WindowSummary{
		Start:   start.Add(data.WindowLen),
		End:     start.Add(2 * data.WindowLen),
		Count:   5,
		Average: 200,
	}

	var h holder

	h.accept(first)
	r := h.accept(second)

	// no merging, the newer summary replaces the older unconditionally
	if h.summary != second {
		t.Error("holder must retain only the most recent summary")
	}

	if r.Value != 200 || r.Attributes[data.AttrMeasurementCount] != 5 {
		t.Error("republished reading must reflect the latest summary")
	}
}
