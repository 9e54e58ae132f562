package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func rewardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reward <height>",
		Short: "Show the block subsidy and cumulative emission at a height",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			height, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("parse height: %w", err)
			}

			p, err := params()
			if err != nil {
				return err
			}

			subsidy, err := p.Reward.At(height)
			if err != nil {
				return err
			}

			total, err := p.Reward.Total(height)
			if err != nil {
				return err
			}

			resp := struct {
				Network string `json:"network"`
				Height  uint64 `json:"height"`
				Subsidy uint64 `json:"subsidy"`
				Total   string `json:"total"`
			}{
				Network: p.Name,
				Height:  height,
				Subsidy: subsidy,
				Total:   total.Dec(),
			}

			return printJSON(cmd, resp)
		},
	}
}
