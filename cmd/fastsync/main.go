// Copyright 2024 The go-nethermind Authors
// This file is part of go-nethermind.
//
// go-nethermind is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-nethermind is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-nethermind. If not, see <http://www.gnu.org/licenses/>.

// fastsync inspects the stores a fast state-sync session persists into.
package main

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/Osiyomeoh/nethermind/db"
	"github.com/Osiyomeoh/nethermind/fastsync"
)

var (
	codeDBFlag = &cli.StringFlag{
		Name:     "codedb",
		Usage:    "Path of the code store",
		Required: true,
	}
	stateDBFlag = &cli.StringFlag{
		Name:     "statedb",
		Usage:    "Path of the state store",
		Required: true,
	}
	rootFlag = &cli.StringFlag{
		Name:     "root",
		Usage:    "State root hash to check (hex)",
		Required: true,
	}
)

var app = &cli.App{
	Name:  "fastsync",
	Usage: "inspect fast state-sync stores",
	Commands: []*cli.Command{
		{
			Name:   "progress",
			Usage:  "print the persisted sync progress counters",
			Flags:  []cli.Flag{codeDBFlag},
			Action: printProgress,
		},
		{
			Name:   "verify",
			Usage:  "check whether the state store contains a root hash",
			Flags:  []cli.Flag{stateDBFlag, rootFlag},
			Action: verifyRoot,
		},
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func printProgress(ctx *cli.Context) error {
	store, err := db.New(ctx.String(codeDBFlag.Name))
	if err != nil {
		return err
	}
	defer store.Close()

	blob, err := store.Get(common.BytesToHash(fastsync.ProgressKey()))
	if err == db.ErrNotFound {
		return cli.Exit("no progress record found", 1)
	}
	if err != nil {
		return err
	}
	progress, err := fastsync.DecodeProgress(blob)
	if err != nil {
		return err
	}
	fmt.Printf("consumed:            %d\n", progress.Consumed)
	fmt.Printf("saved storage:       %d\n", progress.SavedStorage)
	fmt.Printf("saved state:         %d\n", progress.SavedState)
	fmt.Printf("saved nodes:         %d\n", progress.SavedNodes)
	fmt.Printf("saved accounts:      %d\n", progress.SavedAccounts)
	fmt.Printf("saved code:          %d\n", progress.SavedCode)
	fmt.Printf("requested:           %d\n", progress.Requested)
	fmt.Printf("db checks:           %d\n", progress.DBChecks)
	fmt.Printf("state was there:     %d\n", progress.StateWasThere)
	fmt.Printf("state was not there: %d\n", progress.StateWasNotThere)
	return nil
}

func verifyRoot(ctx *cli.Context) error {
	store, err := db.New(ctx.String(stateDBFlag.Name))
	if err != nil {
		return err
	}
	defer store.Close()

	root := common.HexToHash(ctx.String(rootFlag.Name))
	exists, err := store.KeyExists(root)
	if err != nil {
		return err
	}
	if !exists {
		return cli.Exit(fmt.Sprintf("state root %x not present", root), 1)
	}
	fmt.Printf("state root %x present\n", root)
	return nil
}
