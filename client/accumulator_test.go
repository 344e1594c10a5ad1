package client

import (
	"strconv"
	"testing"
	"time"

	"github.com/powermon/powermon/data"
)

// mapReader is a SignalReader backed by a map for testing
type mapReader map[string]string

func (mr mapReader) ReadSignal(id string) (string, error) {
	v, ok := mr[id]
	if !ok {
		return "", data.ErrSignalNotFound
	}
	return v, nil
}

var testBinding = InputBinding{
	CurrentL1: "sensor.current_l1",
	CurrentL2: "sensor.current_l2",
	CurrentL3: "sensor.current_l3",
	VoltageL1: "sensor.voltage_l1",
	VoltageL2: "sensor.voltage_l2",
	VoltageL3: "sensor.voltage_l3",
}

// accFixture wires an accumulator to a map reader, a settable clock, and
// capture slices for published readings and emitted summaries
type accFixture struct {
	reader    mapReader
	clock     time.Time
	readings  []data.Reading
	summaries []data.WindowSummary
	acc       *accumulator
}

func newAccFixture(reader mapReader) *accFixture {
	f := &accFixture{reader: reader}

	f.acc = newAccumulator(testBinding, reader,
		func(r data.Reading) {
			f.readings = append(f.readings, r)
		},
		func(sum data.WindowSummary) {
			f.summaries = append(f.summaries, sum)
		})

	f.acc.now = func() time.Time {
		return f.clock
	}

	return f
}

func (f *accFixture) lastReading(t *testing.T) data.Reading {
	t.Helper()
	if len(f.readings) == 0 {
		t.Fatal("no reading published")
	}
	return f.readings[len(f.readings)-1]
}

// readerForPower returns a reader where L1 carries all the power:
// current L1 = watts/100 A at 100 V, other phases 0
func readerForPower(watts float64) mapReader {
	return mapReader{
		"sensor.current_l1": formatFloat(watts / 100),
		"sensor.current_l2": "0",
		"sensor.current_l3": "0",
		"sensor.voltage_l1": "100",
		"sensor.voltage_l2": "100",
		"sensor.voltage_l3": "100",
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func TestAccumulatorLiveAverage(t *testing.T) {
	reader := readerForPower(100)
	f := newAccFixture(reader)

	f.clock = time.Date(2023, time.March, 10, 10, 5, 0, 0, time.Local)

	// startup recompute initializes the window and takes the first sample
	f.acc.recompute()

	r := f.lastReading(t)
	if r.Value != 100 {
		t.Error("expected first live average 100, got ", r.Value)
	}

	reader["sensor.current_l1"] = "2"
	f.clock = f.clock.Add(10 * time.Second)
	f.acc.sample()
	f.acc.recompute()

	if f.lastReading(t).Value != 150 {
		t.Error("expected live average 150, got ", f.lastReading(t).Value)
	}

	reader["sensor.current_l1"] = "3"
	f.clock = f.clock.Add(10 * time.Second)
	f.acc.sample()
	f.acc.recompute()

	r = f.lastReading(t)
	if r.Value != 200 {
		t.Error("expected live average 200, got ", r.Value)
	}

	if r.Attributes[data.AttrMeasurementCount] != 3 {
		t.Error("expected measurement count 3, got ",
			r.Attributes[data.AttrMeasurementCount])
	}

	// window started at 10:00:00, clock is now 10:05:20
	if r.Attributes[data.AttrWindowDurationSeconds] != 320 {
		t.Error("expected window duration 320s, got ",
			r.Attributes[data.AttrWindowDurationSeconds])
	}

	windowStart := time.Date(2023, time.March, 10, 10, 0, 0, 0, time.Local)
	if r.Tags[data.TagWindowStart] != windowStart.Format(time.RFC3339) {
		t.Error("window start tag not correct: ", r.Tags[data.TagWindowStart])
	}

	if len(f.summaries) != 0 {
		t.Error("no summary should be emitted inside a window")
	}
}

func TestAccumulatorRollover(t *testing.T) {
	f := newAccFixture(readerForPower(300))

	// one sample just before the boundary
	f.clock = time.Date(2023, time.March, 10, 10, 14, 59, 0, time.Local)
	f.acc.recompute()

	if len(f.summaries) != 0 {
		t.Fatal("summary emitted before boundary")
	}

	// next tick lands just past the boundary
	f.clock = time.Date(2023, time.March, 10, 10, 15, 1, 0, time.Local)
	f.acc.recompute()

	if len(f.summaries) != 1 {
		t.Fatal("expected exactly one summary, got ", len(f.summaries))
	}

	sum := f.summaries[0]

	expStart := time.Date(2023, time.March, 10, 10, 0, 0, 0, time.Local)
	expEnd := time.Date(2023, time.March, 10, 10, 15, 0, 0, time.Local)

	if !sum.Start.Equal(expStart) || !sum.End.Equal(expEnd) {
		t.Errorf("summary window not correct: %v -> %v", sum.Start, sum.End)
	}

	if sum.Average != 300 || sum.Count != 1 {
		t.Errorf("summary not correct: avg %v count %v", sum.Average, sum.Count)
	}

	// a fresh sample must have been taken for the new window
	r := f.lastReading(t)
	if r.Attributes[data.AttrMeasurementCount] != 1 {
		t.Error("expected fresh sample in new window, count ",
			r.Attributes[data.AttrMeasurementCount])
	}

	if r.Tags[data.TagWindowStart] != expEnd.Format(time.RFC3339) {
		t.Error("new window start not correct: ", r.Tags[data.TagWindowStart])
	}
}

func TestAccumulatorRolloverIdempotence(t *testing.T) {
	f := newAccFixture(readerForPower(100))

	f.clock = time.Date(2023, time.March, 10, 10, 14, 0, 0, time.Local)
	f.acc.recompute()

	f.clock = time.Date(2023, time.March, 10, 10, 15, 30, 0, time.Local)
	f.acc.recompute()
	f.acc.recompute()
	f.acc.recompute()

	if len(f.summaries) != 1 {
		t.Error("rollover must only emit once per window, got ",
			len(f.summaries))
	}
}

func TestAccumulatorEmptyWindow(t *testing.T) {
	// no signals bound at all: samples are skipped, windows stay empty
	f := newAccFixture(mapReader{})

	f.clock = time.Date(2023, time.March, 10, 10, 5, 0, 0, time.Local)
	f.acc.recompute()

	r := f.lastReading(t)
	if r.Value != 0 {
		t.Error("empty window should publish 0, got ", r.Value)
	}

	if r.Attributes[data.AttrMeasurementCount] != 0 ||
		r.Attributes[data.AttrWindowDurationSeconds] != 0 {
		t.Error("empty window attributes not correct: ", r.Attributes)
	}

	// boundary passes with zero samples taken: no summary
	f.clock = time.Date(2023, time.March, 10, 10, 16, 0, 0, time.Local)
	f.acc.recompute()

	if len(f.summaries) != 0 {
		t.Error("empty window must not emit a summary")
	}

	if f.lastReading(t).Value != 0 {
		t.Error("new empty window should publish 0")
	}
}

func TestAccumulatorDefaultSubstitution(t *testing.T) {
	f := newAccFixture(mapReader{
		"sensor.current_l1": data.SignalUnavailable,
		"sensor.current_l2": "2",
		"sensor.current_l3": "0",
		"sensor.voltage_l1": data.SignalUnavailable,
		"sensor.voltage_l2": "100",
		"sensor.voltage_l3": "100",
	})

	f.clock = time.Date(2023, time.March, 10, 10, 5, 0, 0, time.Local)
	f.acc.sample()

	if len(f.acc.samples) != 1 {
		t.Fatal("expected one sample")
	}

	s := f.acc.samples[0]

	// unavailable current defaults to 0 A
	if s.L1 != 0 {
		t.Error("unavailable current should contribute 0 W, got ", s.L1)
	}

	if s.Total != 200 {
		t.Error("expected total 200 W, got ", s.Total)
	}

	// unavailable voltage defaults to 230 V
	f.reader["sensor.current_l1"] = "1"
	f.acc.sample()

	s = f.acc.samples[1]
	if s.L1 != 230 {
		t.Error("unavailable voltage should default to 230 V, got L1 ", s.L1)
	}
}

func TestAccumulatorCurrentClamping(t *testing.T) {
	f := newAccFixture(mapReader{
		"sensor.current_l1": "-5",
		"sensor.current_l2": "1",
		"sensor.current_l3": "0",
		"sensor.voltage_l1": "100",
		"sensor.voltage_l2": "-10",
		"sensor.voltage_l3": "100",
	})

	f.clock = time.Date(2023, time.March, 10, 10, 5, 0, 0, time.Local)
	f.acc.sample()

	if len(f.acc.samples) != 1 {
		t.Fatal("expected one sample")
	}

	s := f.acc.samples[0]

	// negative current is clamped to 0
	if s.L1 != 0 {
		t.Error("negative current must clamp to 0, got L1 ", s.L1)
	}

	// negative voltage is not clamped
	if s.L2 != -10 {
		t.Error("voltage must not be clamped, got L2 ", s.L2)
	}
}

func TestAccumulatorSkipsBadReadings(t *testing.T) {
	reader := readerForPower(100)
	f := newAccFixture(reader)

	f.clock = time.Date(2023, time.March, 10, 10, 5, 0, 0, time.Local)
	f.acc.recompute()

	published := f.lastReading(t)

	// unparsable value: sample is skipped, nothing is mutated
	reader["sensor.voltage_l2"] = "not-a-number"
	f.acc.sample()

	if len(f.acc.samples) != 1 {
		t.Error("bad reading must not add a sample")
	}

	// signal disappearing entirely behaves the same
	delete(reader, "sensor.current_l3")
	f.acc.sample()

	if len(f.acc.samples) != 1 {
		t.Error("absent signal must not add a sample")
	}

	// the next recompute republishes the same average
	f.acc.recompute()
	if f.lastReading(t).Value != published.Value {
		t.Error("published value must stand after failed samples")
	}
}

func TestAccumulatorRetentionFilter(t *testing.T) {
	f := newAccFixture(readerForPower(100))

	f.clock = time.Date(2023, time.March, 10, 10, 5, 0, 0, time.Local)
	f.acc.recompute()

	// a stale sample from before the window start must never survive a
	// recompute
	stale := data.Sample{
		Time:  f.acc.windowStart.Add(-time.Minute),
		Total: 100000,
	}
	f.acc.samples = append(data.Samples{stale}, f.acc.samples...)

	f.acc.recompute()

	for _, s := range f.acc.samples {
		if s.Time.Before(f.acc.windowStart) {
			t.Fatal("stale sample leaked through retention filter")
		}
	}

	if f.lastReading(t).Value != 100 {
		t.Error("stale sample affected the average: ", f.lastReading(t).Value)
	}
}

func TestAccumulatorMultiBoundaryJump(t *testing.T) {
	f := newAccFixture(readerForPower(100))

	f.clock = time.Date(2023, time.March, 10, 10, 5, 0, 0, time.Local)
	f.acc.recompute()

	// clock jumps forward across two boundaries; this is treated as a
	// single rollover, not one summary per missed window
	f.clock = time.Date(2023, time.March, 10, 10, 40, 0, 0, time.Local)
	f.acc.recompute()

	if len(f.summaries) != 1 {
		t.Fatal("expected a single summary for a multi-boundary jump, got ",
			len(f.summaries))
	}

	sum := f.summaries[0]

	expStart := time.Date(2023, time.March, 10, 10, 0, 0, 0, time.Local)
	expEnd := time.Date(2023, time.March, 10, 10, 30, 0, 0, time.Local)

	if !sum.Start.Equal(expStart) || !sum.End.Equal(expEnd) {
		t.Errorf("summary should span the whole jump: %v -> %v",
			sum.Start, sum.End)
	}
}

func TestAccumulatorBackwardJump(t *testing.T) {
	f := newAccFixture(readerForPower(100))

	f.clock = time.Date(2023, time.March, 10, 10, 16, 0, 0, time.Local)
	f.acc.recompute()

	windowStart := f.acc.windowStart

	// clock jumps back across the boundary: no spurious finalize
	f.clock = time.Date(2023, time.March, 10, 10, 14, 0, 0, time.Local)
	f.acc.recompute()

	if len(f.summaries) != 0 {
		t.Error("backward clock jump must not finalize a window")
	}

	if !f.acc.windowStart.Equal(windowStart) {
		t.Error("backward clock jump must not move the window start")
	}

	// the clock is behind the window start; published duration must
	// read 0 until it catches back up
	r := f.lastReading(t)
	if r.Attributes[data.AttrWindowDurationSeconds] != 0 {
		t.Error("duration must not go negative after a backward jump: ",
			r.Attributes[data.AttrWindowDurationSeconds])
	}
}
