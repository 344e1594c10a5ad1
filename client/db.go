package client

import (
	"fmt"
	"log"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	api "github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/nats-io/nats.go"

	"github.com/powermon/powermon/data"
)

// Db represents the configuration for an InfluxDB archive client
type Db struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`

	// Source is the power average instance whose finalized window
	// summaries are archived
	Source    string `yaml:"source"`
	URI       string `yaml:"uri"`
	Org       string `yaml:"org"`
	Bucket    string `yaml:"bucket"`
	AuthToken string `yaml:"authToken"`
}

// DbClient archives finalized window summaries to InfluxDB. This is an
// export sink only; nothing in the window logic ever reads it back.
type DbClient struct {
	nc        *nats.Conn
	config    Db
	stop      chan struct{}
	chSummary chan data.WindowSummary
	client    influxdb2.Client
	writeAPI  api.WriteAPI
}

// NewDbClient ...
func NewDbClient(nc *nats.Conn, config Db) *DbClient {
	return &DbClient{
		nc:        nc,
		config:    config,
		stop:      make(chan struct{}),
		chSummary: make(chan data.WindowSummary, 8),
	}
}

// summaryPoint converts a window summary to an influx point. The point
// is stamped with the window end, which is when the summary came into
// existence.
func summaryPoint(source string, sum data.WindowSummary) *write.Point {
	return influxdb2.NewPoint("powerWindow",
		map[string]string{
			"source": source,
		},
		map[string]interface{}{
			"average":   sum.Average,
			"l1Average": sum.L1,
			"l2Average": sum.L2,
			"l3Average": sum.L3,
			"count":     sum.Count,
		},
		sum.End)
}

// Run the main logic for this client and blocks until stopped
func (dbc *DbClient) Run() error {
	log.Println("Starting db client:", dbc.config.Description)

	dbc.client = influxdb2.NewClient(dbc.config.URI, dbc.config.AuthToken)
	dbc.writeAPI = dbc.client.WriteAPI(dbc.config.Org, dbc.config.Bucket)
	defer dbc.client.Close()

	sub, err := dbc.nc.Subscribe(SubjectWindow(dbc.config.Source),
		func(msg *nats.Msg) {
			sum, err := data.DecodeWindowSummary(msg.Data)
			if err != nil {
				log.Println("db client: error decoding summary:", err)
				return
			}

			select {
			case dbc.chSummary <- sum:
			default:
				log.Println("db client: dropping summary, writer is behind")
			}
		})
	if err != nil {
		return fmt.Errorf("error subscribing to window summaries: %v", err)
	}
	defer sub.Unsubscribe()

	errCh := dbc.writeAPI.Errors()

done:
	for {
		select {
		case <-dbc.stop:
			log.Println("Stopping db client:", dbc.config.Description)
			break done

		case sum := <-dbc.chSummary:
			dbc.writeAPI.WritePoint(summaryPoint(dbc.config.Source, sum))

		case err := <-errCh:
			log.Println("db client: influx write error:", err)
		}
	}

	dbc.writeAPI.Flush()

	return nil
}

// Stop sends a signal to the Run function to exit
func (dbc *DbClient) Stop(_ error) {
	close(dbc.stop)
}
