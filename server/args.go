package server

import (
	"flag"
	"log"
	"os"
	"strconv"
)

// Args parses common Power Mon command line options. Env variables are
// only considered when the command line option is left at its default.
func Args(args []string) (Options, error) {
	defaultNatsServer := "nats://127.0.0.1:4222"

	flags := flag.NewFlagSet("serve", flag.ExitOnError)

	flagNatsServer := flags.String("natsServer", defaultNatsServer, "NATS Server")
	flagNatsDisableServer := flags.Bool("natsDisableServer", false,
		"disable NATS server (if you want to run NATS separately)")
	flagConfig := flags.String("config", "powermon.yaml", "config file")
	flagAuthToken := flags.String("token", "", "auth token")
	flagID := flags.String("id", "", "instance ID (UUID is generated if blank)")

	if err := flags.Parse(args); err != nil {
		return Options{}, err
	}

	natsPort := 4222

	natsPortE := os.Getenv("POWERMON_NATS_PORT")
	if natsPortE != "" {
		n, err := strconv.Atoi(natsPortE)
		if err != nil {
			log.Println("Error parsing POWERMON_NATS_PORT:", err)
			os.Exit(-1)
		}
		natsPort = n
	}

	natsHTTPPort := 8222

	natsHTTPPortE := os.Getenv("POWERMON_NATS_HTTP_PORT")
	if natsHTTPPortE != "" {
		n, err := strconv.Atoi(natsHTTPPortE)
		if err != nil {
			log.Println("Error parsing POWERMON_NATS_HTTP_PORT:", err)
			os.Exit(-1)
		}
		natsHTTPPort = n
	}

	natsServer := *flagNatsServer
	if natsServer == defaultNatsServer {
		natsServerE := os.Getenv("POWERMON_NATS_SERVER")
		if natsServerE != "" {
			natsServer = natsServerE
		}
	}

	configFile := *flagConfig
	if configFile == "powermon.yaml" {
		configFileE := os.Getenv("POWERMON_CONFIG")
		if configFileE != "" {
			configFile = configFileE
		}
	}

	authToken := *flagAuthToken
	if authToken == "" {
		authToken = os.Getenv("POWERMON_AUTH_TOKEN")
	}

	return Options{
		NatsServer:        natsServer,
		NatsDisableServer: *flagNatsDisableServer,
		NatsPort:          natsPort,
		NatsHTTPPort:      natsHTTPPort,
		AuthToken:         authToken,
		ConfigFile:        configFile,
		ID:                *flagID,
	}, nil
}
