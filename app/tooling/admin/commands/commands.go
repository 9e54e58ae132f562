// Package commands contains the admin tooling commands.
package commands

import (
	"encoding/json"
	"io"

	"github.com/btpc/blockchain/foundation/blockchain/genesis"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var network string

// NewRoot constructs the admin command tree writing results to out.
func NewRoot(out io.Writer, log *zap.SugaredLogger) *cobra.Command {
	root := &cobra.Command{
		Use:           "admin",
		Short:         "Administrative tasks for a BTPC node",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)

	root.PersistentFlags().StringVarP(&network, "network", "n", genesis.NameRegtest, "Network to use: mainnet, testnet or regtest.")

	root.AddCommand(
		rewardCmd(),
		targetCmd(),
		genesisCmd(),
		ledgerCmd(log),
	)

	return root
}

// params returns the parameters for the selected network.
func params() (genesis.Params, error) {
	return genesis.Lookup(network)
}

// printJSON writes v as indented JSON to the command output.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
