package client

import (
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/powermon/powermon/data"
)

// tickPeriod is how often the live average is recomputed when no signal
// changes arrive
const tickPeriod = 10 * time.Second

// PowerAverage is the configuration for a power average client. The six
// signal IDs bind the logical input roles for one metering point.
// Thresholds carries optional target power levels; they are kept with the
// config for consumers but do not affect the window logic.
type PowerAverage struct {
	ID          string    `yaml:"id"`
	Description string    `yaml:"description"`
	CurrentL1   string    `yaml:"currentL1"`
	CurrentL2   string    `yaml:"currentL2"`
	CurrentL3   string    `yaml:"currentL3"`
	VoltageL1   string    `yaml:"voltageL1"`
	VoltageL2   string    `yaml:"voltageL2"`
	VoltageL3   string    `yaml:"voltageL3"`
	Thresholds  []float64 `yaml:"thresholds"`
}

// Binding returns the input binding described by the config
func (pa PowerAverage) Binding() InputBinding {
	return InputBinding{
		CurrentL1: pa.CurrentL1,
		CurrentL2: pa.CurrentL2,
		CurrentL3: pa.CurrentL3,
		VoltageL1: pa.VoltageL1,
		VoltageL2: pa.VoltageL2,
		VoltageL3: pa.VoltageL3,
	}
}

// PowerAverageClient maintains the current 15-minute measurement window
// for one metering point and continuously publishes a live average
// reading. On every window boundary crossing it finalizes the just ended
// window and hands the summary off on the window subject.
type PowerAverageClient struct {
	nc       *nats.Conn
	config   PowerAverage
	acc      *accumulator
	stop     chan struct{}
	chSignal chan struct{}
}

// NewPowerAverageClient creates a power average client that reads its six
// input signals through reader
func NewPowerAverageClient(nc *nats.Conn, reader SignalReader,
	config PowerAverage) *PowerAverageClient {
	pac := &PowerAverageClient{
		nc:       nc,
		config:   config,
		stop:     make(chan struct{}),
		chSignal: make(chan struct{}, 1),
	}

	pac.acc = newAccumulator(config.Binding(), reader,
		pac.publishReading, pac.emitSummary)

	return pac
}

// Run the main logic for this client and blocks until stopped
func (pac *PowerAverageClient) Run() error {
	log.Println("Starting power average client:", pac.config.Description)

	// signal changes are edge triggers; a burst collapses into one
	// sample taken with the freshest values
	stopSignals, err := SubscribeSignals(pac.nc, pac.acc.binding.IDs(),
		func() {
			select {
			case pac.chSignal <- struct{}{}:
			default:
			}
		})
	if err != nil {
		return fmt.Errorf("error subscribing to signals: %v", err)
	}
	defer stopSignals()

	tick := time.NewTicker(tickPeriod)
	defer tick.Stop()

	// process the first window immediately so the output is populated at
	// startup
	pac.acc.recompute()

done:
	for {
		select {
		case <-pac.stop:
			log.Println("Stopping power average client:", pac.config.Description)
			break done

		case <-pac.chSignal:
			pac.acc.sample()
			pac.acc.recompute()

		case <-tick.C:
			pac.acc.recompute()
		}
	}

	return nil
}

// Stop sends a signal to the Run function to exit
func (pac *PowerAverageClient) Stop(_ error) {
	close(pac.stop)
}

func (pac *PowerAverageClient) publishReading(r data.Reading) {
	b, err := r.ToJSON()
	if err != nil {
		log.Println("power average: error encoding reading:", err)
		return
	}

	err = pac.nc.Publish(SubjectReading(pac.config.ID), b)
	if err != nil {
		log.Println("power average: error publishing reading:", err)
	}
}

func (pac *PowerAverageClient) emitSummary(sum data.WindowSummary) {
	b, err := sum.ToJSON()
	if err != nil {
		log.Println("power average: error encoding summary:", err)
		return
	}

	err = pac.nc.Publish(SubjectWindow(pac.config.ID), b)
	if err != nil {
		log.Println("power average: error publishing summary:", err)
	}
}
