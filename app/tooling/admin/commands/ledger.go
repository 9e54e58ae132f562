package commands

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
	"github.com/btpc/blockchain/foundation/blockchain/storage/disk"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func ledgerCmd(log *zap.SugaredLogger) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "ledger [height]",
		Short: "Read a block from a stopped node's ledger, the tip by default",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			storage, err := disk.New(dbPath)
			if err != nil {
				return err
			}
			defer storage.Close()

			tip, err := storage.LatestHeight()
			if err != nil {
				if errors.Is(err, database.ErrNotFound) {
					return fmt.Errorf("ledger %s is empty", dbPath)
				}
				return err
			}

			height := tip
			if len(args) == 1 {
				if height, err = strconv.ParseUint(args[0], 10, 64); err != nil {
					return fmt.Errorf("parse height: %w", err)
				}
			}

			block, err := storage.GetBlockByHeight(height)
			if err != nil {
				return fmt.Errorf("block %d: %w", height, err)
			}

			log.Infow("ledger", "path", dbPath, "tip", tip, "height", height)

			resp := struct {
				Tip    uint64         `json:"tip"`
				Height uint64         `json:"height"`
				Hash   signature.Hash `json:"hash"`
				Block  database.Block `json:"block"`
			}{
				Tip:    tip,
				Height: height,
				Hash:   block.Hash(),
				Block:  block,
			}

			return printJSON(cmd, resp)
		},
	}

	cmd.Flags().StringVarP(&dbPath, "db", "d", "zblock/ledger", "Path to the node's ledger.")

	return cmd
}
