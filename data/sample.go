package data

import "time"

// SignalUnavailable is the sentinel value a source publishes when it has
// no current value for a signal. Readers substitute a per-role default
// (0 A for currents, 230 V for voltages) when they see it.
const SignalUnavailable = "unavailable"

// Sample is one instantaneous power measurement derived from the six
// bound signals. All power values are in watts.
type Sample struct {
	// Time the sample was taken
	Time time.Time `json:"time"`

	// Total instantaneous power (sum of the three phases)
	Total float64 `json:"total"`

	// per-phase power contributions
	L1 float64 `json:"l1"`
	L2 float64 `json:"l2"`
	L3 float64 `json:"l3"`
}

// Samples is an array of Sample
type Samples []Sample
