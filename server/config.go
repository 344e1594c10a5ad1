package server

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/powermon/powermon/client"
)

// Config describes the clients to run, loaded from a YAML file. This
// replaces the setup dialogs a hosted integration would have: bindings
// are supplied once at startup and are read-only after that.
type Config struct {
	PowerAverages    []client.PowerAverage    `yaml:"powerAverages"`
	CompletedWindows []client.CompletedWindow `yaml:"completedWindows"`
	Dbs              []client.Db              `yaml:"dbs"`
	SignalGenerators []client.SignalGenerator `yaml:"signalGenerators"`
	Metrics          []client.Metrics         `yaml:"metrics"`
}

// LoadConfig reads and parses a YAML config file
func LoadConfig(path string) (Config, error) {
	var ret Config

	b, err := os.ReadFile(path)
	if err != nil {
		return ret, fmt.Errorf("Error reading config file: %v", err)
	}

	err = yaml.Unmarshal(b, &ret)
	if err != nil {
		return ret, fmt.Errorf("Error parsing config file %v: %v", path, err)
	}

	return ret, nil
}
