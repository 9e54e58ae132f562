package commands

import (
	"fmt"
	"strconv"

	"github.com/btpc/blockchain/foundation/blockchain/difficulty"
	"github.com/spf13/cobra"
)

func targetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "target <bits>",
		Short: "Decode compact difficulty bits such as 0x1d00ffff",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bits, err := strconv.ParseUint(args[0], 0, 32)
			if err != nil {
				return fmt.Errorf("parse bits: %w", err)
			}

			target, err := difficulty.FromBits(uint32(bits))
			if err != nil {
				return err
			}

			resp := struct {
				Bits   string            `json:"bits"`
				Target difficulty.Target `json:"target"`
				Work   string            `json:"work"`
			}{
				Bits:   fmt.Sprintf("0x%08x", target.Bits()),
				Target: target,
				Work:   target.Work().String(),
			}

			return printJSON(cmd, resp)
		},
	}
}
