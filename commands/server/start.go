package server

import (
	"flag"

	"github.com/iov-one/weave-identity/errors"
	"github.com/tendermint/tendermint/abci/server"
	abci "github.com/tendermint/tendermint/abci/types"
	cmn "github.com/tendermint/tendermint/libs/common"
	"github.com/tendermint/tendermint/libs/log"
)

const (
	flagBind  = "bind"
	flagDebug = "debug"
)

// Options are passed to an AppGenerator when the node starts.
type Options struct {
	Home   string
	Logger log.Logger
	// Debug makes the application return call stacks on errors.
	Debug bool
}

// AppGenerator lets us lazily initialize app, using home dir
// and logger potentially initialized with other flags
type AppGenerator func(*Options) (abci.Application, error)

type startFlags struct {
	addr  string
	debug bool
}

func parseStartFlags(args []string) (startFlags, error) {
	var f startFlags
	fs := flag.NewFlagSet("start", flag.ContinueOnError)
	fs.StringVar(&f.addr, flagBind, "tcp://localhost:46658", "address server listens on")
	fs.BoolVar(&f.debug, flagDebug, false, "call stack returned on error")
	if err := fs.Parse(args); err != nil {
		return f, errors.Wrap(errors.ErrInput, err.Error())
	}
	if f.addr == "" {
		return f, errors.Wrap(errors.ErrEmpty, "bind address")
	}
	return f, nil
}

// StartCmd initializes the application and serves it over the ABCI socket
// until the process receives a termination signal.
func StartCmd(gen AppGenerator, logger log.Logger, home string, args []string) error {
	flags, err := parseStartFlags(args)
	if err != nil {
		return err
	}

	app, err := gen(&Options{Home: home, Logger: logger, Debug: flags.debug})
	if err != nil {
		return errors.Wrap(err, "cannot generate application")
	}

	logger.Info("Starting ABCI app", "bind", flags.addr)

	svr, err := server.NewServer(flags.addr, "socket", app)
	if err != nil {
		return errors.Wrap(err, "cannot create listener")
	}
	svr.SetLogger(logger.With("module", "abci-server"))
	if err := svr.Start(); err != nil {
		return errors.Wrap(err, "cannot start server")
	}

	// Wait forever
	cmn.TrapSignal(logger, func() {
		if err := svr.Stop(); err != nil {
			logger.Error("cannot stop server", "err", err)
		}
	})
	return nil
}
