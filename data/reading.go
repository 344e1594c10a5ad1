package data

import (
	"encoding/json"
	"time"
)

// attribute keys used in published readings
const (
	AttrMeasurementCount      = "measurementCount"
	AttrWindowDurationSeconds = "windowDurationSeconds"
	AttrL1Average             = "l1Average"
	AttrL2Average             = "l2Average"
	AttrL3Average             = "l3Average"
)

// tag keys used in published readings
const (
	TagWindowStart     = "windowStart"
	TagWindowEnd       = "windowEnd"
	TagLastMeasurement = "lastMeasurement"
)

// Reading is a published output value with attached metadata. Numeric
// metadata goes in Attributes, string metadata (timestamps, etc.) in Tags.
// Publishing a reading replaces whatever was published before it on the
// same output channel.
type Reading struct {
	// Time the reading was published
	Time time.Time `json:"time"`

	// Value of the reading (watts for power readings)
	Value float64 `json:"value"`

	// Attributes are additional numerical values
	Attributes map[string]float64 `json:"attributes,omitempty"`

	// Tags are additional string attributes used to describe the reading
	Tags map[string]string `json:"tags,omitempty"`
}

// ToJSON encodes the reading for the wire
func (r Reading) ToJSON() ([]byte, error) {
	return json.Marshal(r)
}

// DecodeReading decodes a reading from its wire format
func DecodeReading(b []byte) (Reading, error) {
	var ret Reading
	err := json.Unmarshal(b, &ret)
	return ret, err
}
