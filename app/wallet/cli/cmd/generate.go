package cmd

import (
	"crypto/rand"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btpc/blockchain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new key seed",
	Args:  cobra.NoArgs,
	RunE:  generateRun,
}

func init() {
	rootCmd.AddCommand(generateCmd)
}

func generateRun(cmd *cobra.Command, args []string) error {
	seed := make([]byte, signature.SeedSize)
	if _, err := rand.Read(seed); err != nil {
		return err
	}

	path := getSeedPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(hexutil.Encode(seed)), 0o600); err != nil {
		return err
	}

	acct, err := loadAccount()
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s\n", hexutil.Encode(acct.pubKeyHash))
	return nil
}
