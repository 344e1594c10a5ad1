package client

import (
	"log"
	"os"

	"github.com/nats-io/nats.go"

	"github.com/powermon/powermon/data"
)

// Log all Power Mon messages on the bus: raw signal values, live
// readings, and finalized window summaries
func Log(natsServer, authToken string) {
	log.Println("Logging messages from: ", natsServer)

	nc, err := EdgeConnect(EdgeOptions{
		URI:       natsServer,
		AuthToken: authToken,
		Closed: func() {
			log.Println("NATS Closed")
			os.Exit(0)
		},
	})

	if err != nil {
		log.Println("Error connecting to NATS server: ", err)
		os.Exit(-1)
	}

	_, err = nc.Subscribe(SubjectAllSignals(), func(msg *nats.Msg) {
		log.Printf("%v: %v\n", msg.Subject, string(msg.Data))
	})
	if err != nil {
		log.Println("Error subscribing to signals: ", err)
	}

	_, err = nc.Subscribe("reading.>", func(msg *nats.Msg) {
		r, err := data.DecodeReading(msg.Data)
		if err != nil {
			log.Println("Error decoding reading: ", err)
			return
		}
		log.Printf("%v: %v %v %v\n", msg.Subject, r.Value, r.Attributes, r.Tags)
	})
	if err != nil {
		log.Println("Error subscribing to readings: ", err)
	}

	_, err = nc.Subscribe("window.>", func(msg *nats.Msg) {
		sum, err := data.DecodeWindowSummary(msg.Data)
		if err != nil {
			log.Println("Error decoding summary: ", err)
			return
		}
		log.Printf("%v: %v -> %v avg %vW over %v samples\n", msg.Subject,
			sum.Start.Format("15:04:05"), sum.End.Format("15:04:05"),
			sum.Average, sum.Count)
	})
	if err != nil {
		log.Println("Error subscribing to summaries: ", err)
	}
}
