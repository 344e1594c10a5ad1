package client

import (
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/powermon/powermon/data"
)

// CompletedWindow is the configuration for a completed window client
type CompletedWindow struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`

	// Source is the power average instance whose finalized windows this
	// client republishes
	Source string `yaml:"source"`
}

// holder retains the most recently finalized window summary. It has no
// history: accept replaces the held summary unconditionally.
type holder struct {
	summary data.WindowSummary
	held    bool
}

// accept replaces the held summary and returns the reading to republish
func (h *holder) accept(sum data.WindowSummary) data.Reading {
	h.summary = sum
	h.held = true

	return data.Reading{
		Value: sum.Average,
		Attributes: map[string]float64{
			data.AttrMeasurementCount: float64(sum.Count),
			data.AttrL1Average:        sum.L1,
			data.AttrL2Average:        sum.L2,
			data.AttrL3Average:        sum.L3,
		},
		Tags: map[string]string{
			data.TagWindowStart: sum.Start.Format(time.RFC3339),
			data.TagWindowEnd:   sum.End.Format(time.RFC3339),
		},
	}
}

// CompletedWindowClient holds the most recently finalized window summary
// of its source and republishes it as a stable reading until the next
// window finalizes. Nothing is published before the first summary
// arrives.
type CompletedWindowClient struct {
	nc        *nats.Conn
	config    CompletedWindow
	hold      holder
	stop      chan struct{}
	chSummary chan data.WindowSummary
}

// NewCompletedWindowClient creates a completed window client
func NewCompletedWindowClient(nc *nats.Conn, config CompletedWindow) *CompletedWindowClient {
	return &CompletedWindowClient{
		nc:        nc,
		config:    config,
		stop:      make(chan struct{}),
		chSummary: make(chan data.WindowSummary, 1),
	}
}

// Run the main logic for this client and blocks until stopped
func (cwc *CompletedWindowClient) Run() error {
	log.Println("Starting completed window client:", cwc.config.Description)

	sub, err := cwc.nc.Subscribe(SubjectWindow(cwc.config.Source),
		func(msg *nats.Msg) {
			sum, err := data.DecodeWindowSummary(msg.Data)
			if err != nil {
				log.Println("completed window: error decoding summary:", err)
				return
			}

			// last-write-wins: if the loop is behind, the older summary
			// is replaced rather than queued
			select {
			case cwc.chSummary <- sum:
			default:
				select {
				case <-cwc.chSummary:
				default:
				}
				cwc.chSummary <- sum
			}
		})
	if err != nil {
		return fmt.Errorf("error subscribing to window summaries: %v", err)
	}
	defer sub.Unsubscribe()

done:
	for {
		select {
		case <-cwc.stop:
			log.Println("Stopping completed window client:", cwc.config.Description)
			break done

		case sum := <-cwc.chSummary:
			cwc.publish(cwc.hold.accept(sum))
		}
	}

	return nil
}

// Stop sends a signal to the Run function to exit
func (cwc *CompletedWindowClient) Stop(_ error) {
	close(cwc.stop)
}

func (cwc *CompletedWindowClient) publish(r data.Reading) {
	r.Time = time.Now()

	b, err := r.ToJSON()
	if err != nil {
		log.Println("completed window: error encoding reading:", err)
		return
	}

	err = cwc.nc.Publish(SubjectReading(cwc.config.ID), b)
	if err != nil {
		log.Println("completed window: error publishing reading:", err)
	}
}
