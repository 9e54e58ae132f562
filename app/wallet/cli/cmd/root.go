// Package cmd contains wallet app
package cmd

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btpc/blockchain/foundation/blockchain/script"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var (
	accountName string
	accountPath string
)

const (
	keyExtension = ".seed"
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&accountName, "account", "a", "private.seed", "Name of the key seed file.")
	rootCmd.PersistentFlags().StringVarP(&accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with key seeds.")
}

var rootCmd = &cobra.Command{
	Use:           "wallet",
	Short:         "Your simple BTPC wallet",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the wallet command tree.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func getSeedPath() string {
	if !strings.HasSuffix(accountName, keyExtension) {
		accountName += keyExtension
	}

	return filepath.Join(accountPath, accountName)
}

// =============================================================================

// account is a loaded key pair with its pay-to-pubkey-hash details.
type account struct {
	key        signature.KeyPair
	publicKey  []byte
	pubKeyHash []byte
}

// lockingScript returns the script outputs paying this account use.
func (a account) lockingScript() []byte {
	return script.PayToPubKeyHash(a.pubKeyHash)
}

func loadAccount() (account, error) {
	content, err := os.ReadFile(getSeedPath())
	if err != nil {
		return account{}, err
	}

	seed, err := hexutil.Decode(string(bytes.TrimSpace(content)))
	if err != nil {
		return account{}, fmt.Errorf("decode seed: %w", err)
	}

	key, err := signature.KeyPairFromSeed(seed)
	if err != nil {
		return account{}, err
	}

	pub, err := key.PublicKey()
	if err != nil {
		return account{}, err
	}

	acct := account{
		key:        key,
		publicKey:  pub,
		pubKeyHash: script.PubKeyHash(pub),
	}

	return acct, nil
}
