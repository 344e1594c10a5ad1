package client

import (
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/powermon/powermon/data"
)

// defaults substituted when a signal reports the unavailable sentinel
const (
	defaultCurrent = 0   // amps
	defaultVoltage = 230 // volts
)

// InputBinding maps the six logical input roles to external signal IDs.
// Read-only for the lifetime of the accumulator.
type InputBinding struct {
	CurrentL1 string
	CurrentL2 string
	CurrentL3 string
	VoltageL1 string
	VoltageL2 string
	VoltageL3 string
}

// IDs returns the bound signal IDs in a fixed order
func (b InputBinding) IDs() []string {
	return []string{
		b.CurrentL1, b.CurrentL2, b.CurrentL3,
		b.VoltageL1, b.VoltageL2, b.VoltageL3,
	}
}

// accumulator owns the current 15-minute measurement window: it buffers
// raw samples, recomputes the live average on every sample or tick,
// detects window boundary crossings, and on a crossing finalizes the just
// ended window and resets.
//
// The accumulator is not safe for concurrent use. The owning client calls
// it from a single select loop, so the buffer needs no lock.
type accumulator struct {
	binding InputBinding
	reader  SignalReader
	publish func(data.Reading)
	emit    func(data.WindowSummary)

	// clock used for sample stamps and window math, replaced in tests
	now func() time.Time

	windowStart time.Time
	samples     data.Samples
}

func newAccumulator(binding InputBinding, reader SignalReader,
	publish func(data.Reading), emit func(data.WindowSummary)) *accumulator {
	return &accumulator{
		binding: binding,
		reader:  reader,
		publish: publish,
		emit:    emit,
		now:     time.Now,
	}
}

// readCurrent reads a phase current in amps. An unavailable signal
// defaults to 0, and parsed values are clamped so a current is never
// negative.
func (a *accumulator) readCurrent(id string) (float64, error) {
	raw, err := a.reader.ReadSignal(id)
	if err != nil {
		return 0, fmt.Errorf("current %v: %w", id, err)
	}

	if raw == data.SignalUnavailable {
		return defaultCurrent, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("current %v: parsing %q: %v", id, raw, err)
	}

	return math.Max(0, v), nil
}

// readVoltage reads a phase voltage in volts. An unavailable signal
// defaults to 230 V. Voltages are not clamped.
func (a *accumulator) readVoltage(id string) (float64, error) {
	raw, err := a.reader.ReadSignal(id)
	if err != nil {
		return 0, fmt.Errorf("voltage %v: %w", id, err)
	}

	if raw == data.SignalUnavailable {
		return defaultVoltage, nil
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("voltage %v: parsing %q: %v", id, raw, err)
	}

	return v, nil
}

func (a *accumulator) readSample() (data.Sample, error) {
	i1, err := a.readCurrent(a.binding.CurrentL1)
	if err != nil {
		return data.Sample{}, err
	}

	i2, err := a.readCurrent(a.binding.CurrentL2)
	if err != nil {
		return data.Sample{}, err
	}

	i3, err := a.readCurrent(a.binding.CurrentL3)
	if err != nil {
		return data.Sample{}, err
	}

	v1, err := a.readVoltage(a.binding.VoltageL1)
	if err != nil {
		return data.Sample{}, err
	}

	v2, err := a.readVoltage(a.binding.VoltageL2)
	if err != nil {
		return data.Sample{}, err
	}

	v3, err := a.readVoltage(a.binding.VoltageL3)
	if err != nil {
		return data.Sample{}, err
	}

	l1 := i1 * v1
	l2 := i2 * v2
	l3 := i3 * v3

	return data.Sample{
		Time:  a.now(),
		Total: l1 + l2 + l3,
		L1:    l1,
		L2:    l2,
		L3:    l3,
	}, nil
}

// sample reads the six bound signals and appends one sample to the
// current window buffer. A signal that cannot be resolved or parsed is a
// recoverable condition: it is logged and the sample is skipped without
// mutating any state, leaving the previous published reading in place.
func (a *accumulator) sample() {
	s, err := a.readSample()
	if err != nil {
		log.Println("power average: skipping sample:", err)
		return
	}

	a.samples = append(a.samples, s)
}

// recompute is the core tick. It processes a window rollover if the clock
// has crossed a boundary, applies the sample retention filter, and
// publishes the live average for the current window.
//
// The rollover test compares computed boundaries rather than elapsed
// time, so host clock jumps are tolerated: a backward jump fails the test
// and does not finalize spuriously, and a forward jump across several
// boundaries is treated as a single rollover whose summary covers
// everything collected since the old window start.
func (a *accumulator) recompute() {
	now := a.now()
	boundary := data.WindowStart(now)

	if boundary.After(a.windowStart) {
		// finalize and hand off before resetting so the holder never
		// observes a gap
		if len(a.samples) > 0 {
			a.emit(data.NewWindowSummary(a.windowStart, boundary, a.samples))
		}

		a.windowStart = boundary
		a.samples = nil

		// take one fresh sample so the new window is never observed
		// empty before its first reading
		a.sample()
	}

	// stale samples must never leak across a rollover
	keep := a.samples[:0]
	for _, s := range a.samples {
		if !s.Time.Before(a.windowStart) {
			keep = append(keep, s)
		}
	}
	a.samples = keep

	if len(a.samples) == 0 {
		a.publish(data.Reading{
			Time:  now,
			Value: 0,
			Attributes: map[string]float64{
				data.AttrMeasurementCount:      0,
				data.AttrWindowDurationSeconds: 0,
			},
			Tags: map[string]string{
				data.TagWindowStart: a.windowStart.Format(time.RFC3339),
			},
		})
		return
	}

	var total, l1, l2, l3 float64
	for _, s := range a.samples {
		total += s.Total
		l1 += s.L1
		l2 += s.L2
		l3 += s.L3
	}

	n := float64(len(a.samples))
	last := a.samples[len(a.samples)-1]

	// the rollover guard tolerates a backward clock jump; while the
	// clock is behind the window start the duration reads 0, never
	// negative
	duration := now.Sub(a.windowStart).Seconds()
	if duration < 0 {
		duration = 0
	}

	a.publish(data.Reading{
		Time:  now,
		Value: data.Round2(total / n),
		Attributes: map[string]float64{
			data.AttrMeasurementCount:      n,
			data.AttrWindowDurationSeconds: data.Round1(duration),
			data.AttrL1Average:             data.Round2(l1 / n),
			data.AttrL2Average:             data.Round2(l2 / n),
			data.AttrL3Average:             data.Round2(l3 / n),
		},
		Tags: map[string]string{
			data.TagWindowStart:     a.windowStart.Format(time.RFC3339),
			data.TagLastMeasurement: last.Time.Format(time.RFC3339),
		},
	})
}
