package cmd

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Print the pubkey hash and locking script of the account",
	Args:  cobra.NoArgs,
	RunE:  accountRun,
}

func init() {
	rootCmd.AddCommand(accountCmd)
}

func accountRun(cmd *cobra.Command, args []string) error {
	acct, err := loadAccount()
	if err != nil {
		return err
	}

	resp := struct {
		PubKeyHash    hexutil.Bytes `json:"pubkey_hash"`
		LockingScript hexutil.Bytes `json:"locking_script"`
	}{
		PubKeyHash:    acct.pubKeyHash,
		LockingScript: acct.lockingScript(),
	}

	return json.NewEncoder(cmd.OutOrStdout()).Encode(resp)
}
