// This program performs administrative tasks for a BTPC node: inspecting
// network parameters, the reward schedule and a node's ledger.
package main

import (
	"fmt"
	"os"

	"github.com/btpc/blockchain/app/tooling/admin/commands"
	"github.com/btpc/blockchain/foundation/logger"
)

// build is the git version of this program. It is set using build flags in the makefile.
var build = "develop"

func main() {

	// Construct the application logger.
	log, err := logger.New("ADMIN", "stderr")
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	root := commands.NewRoot(os.Stdout, log)
	root.Version = build

	if err := root.Execute(); err != nil {
		log.Errorw("admin", "ERROR", err)
		log.Sync()
		os.Exit(1)
	}
}
