package commands

import (
	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/genesis"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
	"github.com/spf13/cobra"
)

func genesisCmd() *cobra.Command {
	var paramsFile string

	cmd := &cobra.Command{
		Use:   "genesis",
		Short: "Derive the genesis block of a network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := params()
			if paramsFile != "" {
				p, err = genesis.Load(paramsFile)
			}
			if err != nil {
				return err
			}

			block, err := genesis.Block(p)
			if err != nil {
				return err
			}

			resp := struct {
				Network string               `json:"network"`
				Hash    signature.Hash       `json:"hash"`
				Params  genesis.Params       `json:"params"`
				Header  database.BlockHeader `json:"header"`
			}{
				Network: p.Name,
				Hash:    block.Hash(),
				Params:  p,
				Header:  block.Header,
			}

			return printJSON(cmd, resp)
		},
	}

	cmd.Flags().StringVarP(&paramsFile, "params", "p", "", "Parameters file for a private network.")

	return cmd
}
