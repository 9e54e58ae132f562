package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"

	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/script"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/spf13/cobra"
)

var (
	url   string
	txid  string
	vout  uint32
	to    string
	value uint64
	fee   uint64
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Spend an output owned by the account",
	Args:  cobra.NoArgs,
	RunE:  sendRun,
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().StringVarP(&url, "url", "u", "http://localhost:8080", "Url of the node.")
	sendCmd.Flags().StringVarP(&txid, "txid", "i", "", "Transaction id of the output to spend.")
	sendCmd.Flags().Uint32VarP(&vout, "vout", "o", 0, "Index of the output to spend.")
	sendCmd.Flags().StringVarP(&to, "to", "t", "", "Pubkey hash of the recipient.")
	sendCmd.Flags().Uint64VarP(&value, "value", "v", 0, "Value to send.")
	sendCmd.Flags().Uint64VarP(&fee, "fee", "f", 0, "Fee left for the miner.")
}

func sendRun(cmd *cobra.Command, args []string) error {
	acct, err := loadAccount()
	if err != nil {
		return err
	}

	prevTxID, err := signature.HashFromHex(txid)
	if err != nil {
		return fmt.Errorf("txid: %w", err)
	}

	toHash, err := hexutil.Decode(to)
	if err != nil || len(toHash) != script.PubKeyHashLen {
		return fmt.Errorf("to must be a %d byte pubkey hash", script.PubKeyHashLen)
	}

	var status struct {
		ForkID uint8 `json:"fork_id"`
	}
	if err := get(fmt.Sprintf("%s/v1/node/status", url), &status); err != nil {
		return err
	}

	var utxo database.UTXO
	if err := get(fmt.Sprintf("%s/v1/utxo/%s/%d", url, prevTxID, vout), &utxo); err != nil {
		return err
	}

	if !bytes.Equal(utxo.LockingScript, acct.lockingScript()) {
		return errors.New("output is not owned by this account")
	}

	if value > math.MaxUint64-fee || value+fee > utxo.Value {
		return fmt.Errorf("output holds %d, cannot send %d with fee %d", utxo.Value, value, fee)
	}

	tx := database.Tx{
		Version: 1,
		Inputs: []database.TxIn{
			{PrevOut: utxo.OutPoint, Sequence: math.MaxUint32},
		},
		Outputs: []database.TxOut{
			{Value: value, LockingScript: script.PayToPubKeyHash(toHash)},
		},
		ForkID: status.ForkID,
	}

	if change := utxo.Value - value - fee; change > 0 {
		tx.Outputs = append(tx.Outputs, database.TxOut{Value: change, LockingScript: acct.lockingScript()})
	}

	sig, err := acct.key.Sign(tx.SigningBytes())
	if err != nil {
		return err
	}
	tx.Inputs[0].UnlockingScript = script.Unlock(sig, acct.publicKey)

	data, err := json.Marshal(tx)
	if err != nil {
		return err
	}

	resp, err := http.Post(fmt.Sprintf("%s/v1/tx/submit", url), "application/json", bytes.NewBuffer(data))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("submit: status %d: %s", resp.StatusCode, body)
	}

	_, err = cmd.OutOrStdout().Write(body)
	return err
}

func get(url string, v any) error {
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("get %s: status %d: %s", url, resp.StatusCode, body)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
