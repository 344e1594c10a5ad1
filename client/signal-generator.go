package client

import (
	"log"
	"math"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
)

// SignalGenerator is the configuration for a synthetic signal source.
// It is handy for demos and for soak testing the window logic without
// real metering hardware.
type SignalGenerator struct {
	ID          string  `yaml:"id"`
	Description string  `yaml:"description"`
	Signal      string  `yaml:"signal"`
	Frequency   float64 `yaml:"frequency"`
	Amplitude   float64 `yaml:"amplitude"`
	Offset      float64 `yaml:"offset"`
	SampleRate  float64 `yaml:"sampleRate"`
}

// SignalGeneratorClient publishes a sine wave on a signal subject
type SignalGeneratorClient struct {
	nc     *nats.Conn
	config SignalGenerator
	stop   chan struct{}
}

// NewSignalGeneratorClient ...
func NewSignalGeneratorClient(nc *nats.Conn, config SignalGenerator) *SignalGeneratorClient {
	return &SignalGeneratorClient{
		nc:     nc,
		config: config,
		stop:   make(chan struct{}),
	}
}

// Run the main logic for this client and blocks until stopped
func (sgc *SignalGeneratorClient) Run() error {
	log.Println("Starting signal generator client:", sgc.config.Description)

	config := sgc.config

	configValid := true
	if config.Signal == "" {
		log.Println("Sig Gen: Signal must be set")
		configValid = false
	}

	if config.Frequency <= 0 {
		log.Println("Sig Gen: Frequency must be set")
		configValid = false
	}

	if config.SampleRate <= 0 {
		log.Println("Sig Gen: SampleRate must be set")
		configValid = false
	}

	t := time.NewTicker(time.Hour)
	defer t.Stop()

	// NOP unless config is valid
	sendSample := func() {}

	if configValid {
		periodCount := int(config.SampleRate / config.Frequency)
		if periodCount < 1 {
			periodCount = 1
		}

		increment := (2 * math.Pi / config.SampleRate) * config.Frequency

		count := 0

		sendSample = func() {
			value := config.Offset +
				math.Sin(increment*float64(count))*config.Amplitude
			count++
			if count >= periodCount {
				count = 0
			}

			err := SendSignal(sgc.nc, config.Signal,
				strconv.FormatFloat(value, 'f', 3, 64))
			if err != nil {
				log.Println("Sig Gen: error sending signal:", err)
			}
		}

		t.Reset(time.Duration(1 / config.SampleRate * 1e9))
	}

	for {
		select {
		case <-t.C:
			sendSample()
		case <-sgc.stop:
			log.Println("Stopping signal generator client:", sgc.config.Description)
			return nil
		}
	}
}

// Stop sends a signal to the Run function to exit
func (sgc *SignalGeneratorClient) Stop(_ error) {
	close(sgc.stop)
}
