package client

import (
	"log"
	"os"
	"runtime"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/powermon/powermon/data"
)

// metric attribute keys
const (
	AttrMetricAppAlloc        = "appAlloc"
	AttrMetricAppNumGoroutine = "appNumGoroutine"
	AttrMetricProcMemPercent  = "procMemPercent"
	AttrMetricProcMemRSS      = "procMemRSS"
)

// Metrics represents the config of a metrics client
type Metrics struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
	Period      int    `yaml:"period"`
}

// MetricsClient periodically publishes application metrics (heap alloc,
// goroutine count, process CPU/mem) as a reading so they end up on the
// same bus as the power data.
type MetricsClient struct {
	nc     *nats.Conn
	config Metrics
	stop   chan struct{}
}

// NewMetricsClient ...
func NewMetricsClient(nc *nats.Conn, config Metrics) *MetricsClient {
	return &MetricsClient{
		nc:     nc,
		config: config,
		stop:   make(chan struct{}),
	}
}

// Run the main logic for this client and blocks until stopped
func (m *MetricsClient) Run() error {
	if m.config.Period < 1 {
		m.config.Period = 120
	}

	sampleTicker := time.NewTicker(time.Duration(m.config.Period) * time.Second)
	defer sampleTicker.Stop()

	for {
		select {
		case <-m.stop:
			return nil

		case <-sampleTicker.C:
			m.appPeriodic()
		}
	}
}

// Stop sends a signal to the Run function to exit
func (m *MetricsClient) Stop(_ error) {
	close(m.stop)
}

func (m *MetricsClient) appPeriodic() {
	now := time.Now()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	reading := data.Reading{
		Time: now,
		Attributes: map[string]float64{
			AttrMetricAppAlloc:        float64(memStats.Alloc),
			AttrMetricAppNumGoroutine: float64(runtime.NumGoroutine()),
		},
	}

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		log.Println("Metrics error: ", err)
	} else {
		cpuPerc, err := proc.CPUPercent()
		if err != nil {
			log.Println("Error getting CPU percent for proc: ", err)
		} else {
			reading.Value = cpuPerc
		}

		memPerc, err := proc.MemoryPercent()
		if err != nil {
			log.Println("Error getting mem percent for proc: ", err)
		} else {
			reading.Attributes[AttrMetricProcMemPercent] = float64(memPerc)
		}

		memInfo, err := proc.MemoryInfo()
		if err != nil {
			log.Println("Error getting mem info: ", err)
		} else {
			reading.Attributes[AttrMetricProcMemRSS] = float64(memInfo.RSS)
		}
	}

	b, err := reading.ToJSON()
	if err != nil {
		log.Println("Metrics: error encoding reading: ", err)
		return
	}

	err = m.nc.Publish(SubjectReading(m.config.ID), b)
	if err != nil {
		log.Println("Metrics: error publishing reading: ", err)
	}
}
