package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"syscall"

	"github.com/oklog/run"

	"github.com/powermon/powermon/client"
	"github.com/powermon/powermon/server"
)

// goreleaser will replace version with Git version. You can also pass
// version into the go build:
//   go build -ldflags="-X main.version=1.2.3"
var version = "Development"

func main() {
	// global options
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flagVersion := flags.Bool("version", false, "Print app version")
	flags.Usage = func() {
		fmt.Println("usage: powermon [OPTION]... COMMAND [OPTION]...")
		fmt.Println("Global options:")
		flags.PrintDefaults()
		fmt.Println()
		fmt.Println("Available commands:")
		fmt.Println("  - serve (start the Power Mon server)")
		fmt.Println("  - log (log Power Mon messages)")
	}

	flags.Parse(os.Args[1:])

	if *flagVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	log.Printf("Power Mon %v\n", version)

	// extract sub command and its arguments
	args := flags.Args()

	if len(args) < 1 {
		// run serve command by default
		args = []string{"serve"}
	}

	switch args[0] {
	case "serve":
		if err := runServer(args[1:], version); err != nil {
			log.Println("Power Mon stopped, reason: ", err)
		}
	case "log":
		runLog(args[1:])
	default:
		log.Fatal("Unknown command; options: serve, log")
	}
}

func runServer(args []string, version string) error {
	options, err := server.Args(args)
	if err != nil {
		return err
	}

	options.AppVersion = version

	config, err := server.LoadConfig(options.ConfigFile)
	if err != nil {
		return err
	}

	pm, _, err := server.NewServer(options)

	if err != nil {
		pm.Stop(nil)
		return fmt.Errorf("Error starting server: %v", err)
	}

	pm.AddConfigClients(config)

	var g run.Group

	g.Add(pm.Run, pm.Stop)

	g.Add(run.SignalHandler(context.Background(),
		syscall.SIGINT, syscall.SIGTERM))

	return g.Run()
}

func runLog(args []string) {
	defaultNatsServer := "nats://localhost:4222"
	flags := flag.NewFlagSet("log", flag.ExitOnError)
	flagNatsServer := flags.String("natsServer", defaultNatsServer, "NATS Server")
	flagAuthToken := flags.String("token", "", "Auth token")

	if err := flags.Parse(args); err != nil {
		log.Fatal("error: ", err)
	}

	// only consider env if command line option is something different
	// than default
	natsServer := *flagNatsServer
	if natsServer == defaultNatsServer {
		natsServerE := os.Getenv("POWERMON_NATS_SERVER")
		if natsServerE != "" {
			natsServer = natsServerE
		}
	}

	client.Log(natsServer, *flagAuthToken)

	select {}
}
