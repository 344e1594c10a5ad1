package data

import (
	"encoding/json"
	"math"
	"time"
)

// WindowLen is the fixed length of an aggregation window
const WindowLen = 15 * time.Minute

// WindowStart floors t to the 15-minute grid anchored at the top of the
// hour. The result always has minute 0, 15, 30, or 45, second 0, and no
// sub-second component, and is never more than WindowLen before t.
func WindowStart(t time.Time) time.Time {
	minute := (t.Minute() / 15) * 15
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), minute, 0, 0,
		t.Location())
}

// Round2 rounds v to 2 decimal places. All published averages use this.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Round1 rounds v to 1 decimal place
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// WindowSummary is the finalized aggregate of exactly one completed
// window. Averages are rounded to 2 decimal places when the summary is
// created and are not touched again after that.
type WindowSummary struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Count   int       `json:"count"`
	Average float64   `json:"average"`
	L1      float64   `json:"l1Average"`
	L2      float64   `json:"l2Average"`
	L3      float64   `json:"l3Average"`
}

// NewWindowSummary computes the summary of the window starting at start
// and ending at end over the given samples.
func NewWindowSummary(start, end time.Time, samples Samples) WindowSummary {
	ret := WindowSummary{
		Start: start,
		End:   end,
		Count: len(samples),
	}

	if ret.Count == 0 {
		return ret
	}

	var total, l1, l2, l3 float64
	for _, s := range samples {
		total += s.Total
		l1 += s.L1
		l2 += s.L2
		l3 += s.L3
	}

	n := float64(ret.Count)
	ret.Average = Round2(total / n)
	ret.L1 = Round2(l1 / n)
	ret.L2 = Round2(l2 / n)
	ret.L3 = Round2(l3 / n)

	return ret
}

// ToJSON encodes the summary for the wire
func (ws WindowSummary) ToJSON() ([]byte, error) {
	return json.Marshal(ws)
}

// DecodeWindowSummary decodes a summary from its wire format
func DecodeWindowSummary(b []byte) (WindowSummary, error) {
	var ret WindowSummary
	err := json.Unmarshal(b, &ret)
	return ret, err
}
