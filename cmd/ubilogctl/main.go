// Copyright (c) 2017-2020 The qitmeer developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	_ "github.com/ubilog/ubilog/database/badgerdb"
	_ "github.com/ubilog/ubilog/database/boltdb"
	_ "github.com/ubilog/ubilog/database/ldb"
	"github.com/ubilog/ubilog/version"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "ubilogctl",
		Version: version.String(),
		Authors: []*cli.Author{
			{Name: "Ubilog"},
		},
		Usage:                "Talk to a ubilogd node or inspect its block database",
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			putSliceCmd,
			askBlockCmd,
			showChainCmd,
		},
	}
}
