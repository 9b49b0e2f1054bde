// Copyright (c) 2017-2020 The qitmeer developers
// Copyright (c) 2015-2016 The Decred developers
// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"

	"github.com/jessevdk/go-flags"

	"github.com/ubilog/ubilog/config"
	"github.com/ubilog/ubilog/database"
	_ "github.com/ubilog/ubilog/database/badgerdb"
	_ "github.com/ubilog/ubilog/database/boltdb"
	_ "github.com/ubilog/ubilog/database/ldb"
	"github.com/ubilog/ubilog/log"
	"github.com/ubilog/ubilog/node"
	"github.com/ubilog/ubilog/params"
	"github.com/ubilog/ubilog/version"
)

// blockDbNamePrefix is the prefix for the block database name. The
// database type is appended to this value to form the full block database
// name.
const blockDbNamePrefix = "blocks"

func main() {
	// Use all processor cores.
	runtime.GOMAXPROCS(runtime.NumCPU())

	// Block processing can cause bursty allocations. This limits the
	// garbage collector from excessively overallocating during bursts.
	debug.SetGCPercent(20)

	// Work around defer not working after os.Exit()
	if err := ubilogdMain(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}

// ubilogdMain is the real main function for ubilogd. It is necessary to work
// around the fact that deferred functions do not run when os.Exit() is
// called.
func ubilogdMain() error {
	// Load configuration and parse command line. This function also
	// initializes logging and configures it accordingly.
	cfg, _, err := config.LoadConfig(os.Args[1:])
	if err != nil {
		if err == config.ErrShowVersion {
			fmt.Println(filepath.Base(os.Args[0]), "version", version.String())
			return nil
		}
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			fmt.Println(err)
			return nil
		}
		return err
	}
	defer func() {
		if log.LogWrite() != nil {
			log.LogWrite().Close()
		}
	}()

	// Get a channel that will be closed when a shutdown signal has been
	// triggered from an OS signal such as SIGINT (Ctrl+C).
	interrupt := interruptListener()
	defer log.Info("Shutdown complete")

	log.Info("System info", "Ubilog Version", version.String(), "Go version", runtime.Version())
	log.Info("System info", "Home dir", cfg.HomeDir)
	if cfg.NoFileLogging {
		log.Info("File logging disabled")
	}

	// Load the block database.
	dbPath := filepath.Join(cfg.DataDir, blockDbNamePrefix+"_"+cfg.DbType)
	log.Info("Loading block database", "path", dbPath)
	db, err := database.OpenOrCreate(cfg.DbType, dbPath)
	if err != nil {
		log.Error("load block database", "error", err)
		return err
	}
	defer func() {
		// Ensure the database is sync'd and closed on shutdown.
		log.Info("Gracefully shutting down the database...")
		db.Close()
	}()

	// Return now if an interrupt signal was triggered.
	if interruptRequested(interrupt) {
		return nil
	}

	n, err := node.New(cfg, db, params.ActiveNetParams)
	if err != nil {
		log.Error("Unable to create node", "listen", cfg.Listener, "error", err)
		return err
	}
	defer func() {
		log.Info("Gracefully shutting down the node...")
		if err := n.Stop(); err != nil {
			log.Warn("node stop error", "error", err)
		}
		n.WaitForShutdown()
	}()
	if err := n.Start(); err != nil {
		log.Error("Unable to start node", "error", err)
		return err
	}
	showLogo(n)

	// Wait until the interrupt signal is received from an OS signal.
	<-interrupt
	return nil
}

func showLogo(n *node.Node) {
	logo := `
          __    _ __
  __  __ / /_  (_) /___  ____ _    Ubilog %s
 / / / // __ \/ / / __ \/ __ '/    Listen : %s
/ /_/ // /_/ / / / /_/ / /_/ /     PID : %d
\__,_//_.___/_/_/\____/\__, /      Network : %s
                      /____/

`
	fmt.Printf(logo, version.String(), n.LocalAddr(), os.Getpid(), params.ActiveNetParams.Name)
}
