package server

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/powermon/powermon/client"
)

func TestLoadConfig(t *testing.T) {
	config, err := LoadConfig("testdata/powermon.yaml")
	if err != nil {
		t.Fatal("Error loading config: ", err)
	}

	expPowerAverages := []client.PowerAverage{{
		ID:          "house",
		Description: "House power",
		CurrentL1:   "sensor.current_l1",
		CurrentL2:   "sensor.current_l2",
		CurrentL3:   "sensor.current_l3",
		VoltageL1:   "sensor.voltage_l1",
		VoltageL2:   "sensor.voltage_l2",
		VoltageL3:   "sensor.voltage_l3",
		Thresholds:  []float64{4000, 6000},
	}}

	if diff := cmp.Diff(expPowerAverages, config.PowerAverages); diff != "" {
		t.Error("power averages not correct: ", diff)
	}

	expCompleted := []client.CompletedWindow{{
		ID:          "house-window",
		Description: "House power, last completed window",
		Source:      "house",
	}}

	if diff := cmp.Diff(expCompleted, config.CompletedWindows); diff != "" {
		t.Error("completed windows not correct: ", diff)
	}

	if len(config.Dbs) != 1 || config.Dbs[0].Bucket != "power" {
		t.Error("db config not correct: ", config.Dbs)
	}

	if len(config.SignalGenerators) != 1 ||
		config.SignalGenerators[0].Signal != "sensor.current_l1" {
		t.Error("signal generator config not correct: ", config.SignalGenerators)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("testdata/no-such-file.yaml")
	if err == nil {
		t.Error("expected error for missing config file")
	}
}
