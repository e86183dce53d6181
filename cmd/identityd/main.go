package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	identityd "github.com/iov-one/weave-identity/cmd/identityd/app"
	"github.com/iov-one/weave-identity/commands/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendermint/tendermint/libs/log"
)

var (
	flagHome     = "home"
	flagLogLevel = "log_level"
	flagMetrics  = "metrics"

	varHome     *string
	varLogLevel *string
	varMetrics  *string
)

func init() {
	defaultHome := filepath.Join(os.ExpandEnv("$HOME"), ".identityd")
	varHome = flag.String(flagHome, defaultHome, "directory to store files under")
	varLogLevel = flag.String(flagLogLevel, "info", "minimal log level: debug, info, error or none")
	varMetrics = flag.String(flagMetrics, "", "address to serve prometheus metrics on, disabled when empty")

	flag.CommandLine.Usage = helpMessage
}

func helpMessage() {
	fmt.Println("identityd")
	fmt.Println("          Identity and multi-signature execution node")
	fmt.Println("")
	fmt.Println("help      Print this message")
	fmt.Println("init      Initialize app options in genesis file")
	fmt.Println("start     Run the abci server")
	fmt.Println("validate  Check the app_state of genesis files")
	fmt.Println("version   Print the app version")
	fmt.Println(`
  -home string
        directory to store files under (default "$HOME/.identityd")
  -log_level string
        minimal log level: debug, info, error or none (default "info")
  -metrics string
        address to serve prometheus metrics on, disabled when empty`)
}

func main() {
	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Println("Missing command:")
		helpMessage()
		os.Exit(1)
	}

	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout)).
		With("module", "identity")
	level, err := log.AllowLevel(*varLogLevel)
	if err != nil {
		fmt.Printf("Error: %+v\n\n", err)
		helpMessage()
		os.Exit(1)
	}
	logger = log.NewFilter(logger, level)

	cmd := flag.Arg(0)
	rest := flag.Args()[1:]

	switch cmd {
	case "help":
		helpMessage()
	case "init":
		err = server.InitCmd(identityd.GenInitOptions, logger, *varHome, rest)
	case "start":
		serveMetrics(*varMetrics, logger)
		err = server.StartCmd(identityd.GenerateApp, logger, *varHome, rest)
	case "validate":
		err = server.ValidateGenesis(identityd.Initializers(), rest)
		if err == nil {
			fmt.Println("genesis ok")
		}
	case "version":
		fmt.Println(identityd.Version())
	default:
		err = fmt.Errorf("unknown command: %s", cmd)
	}

	if err != nil {
		fmt.Printf("Error: %+v\n\n", err)
		helpMessage()
		os.Exit(1)
	}
}

func serveMetrics(addr string, logger log.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		logger.Info("Serving metrics", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("metrics server stopped", "err", err)
		}
	}()
}
