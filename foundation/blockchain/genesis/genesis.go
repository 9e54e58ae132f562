// Package genesis maintains the per-network consensus parameters and the
// genesis block each network starts from.
package genesis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/difficulty"
	"github.com/btpc/blockchain/foundation/blockchain/pow"
	"github.com/btpc/blockchain/foundation/blockchain/reward"
	"github.com/btpc/blockchain/foundation/blockchain/script"
)

// Names of the supported networks.
const (
	NameMainnet = "mainnet"
	NameTestnet = "testnet"
	NameRegtest = "regtest"
)

// Fork identifiers committed by every signed transaction.
const (
	ForkMainnet uint8 = 0
	ForkTestnet uint8 = 1
	ForkRegtest uint8 = 2
)

// Params is the immutable bundle of consensus constants for one network.
// It is passed by value into every component that needs it.
type Params struct {
	Name               string            `json:"name"`
	ForkID             uint8             `json:"fork_id"`             // Committed to by every signature.
	MinTarget          difficulty.Target `json:"min_target"`          // Hardest target allowed.
	MaxTarget          difficulty.Target `json:"max_target"`          // Easiest target allowed.
	TargetSpacing      uint64            `json:"target_spacing"`      // Seconds expected between blocks.
	AdjustmentInterval uint64            `json:"adjustment_interval"` // Blocks between retargets.
	MinBlockSpacing    uint64            `json:"min_block_spacing"`   // Seconds required after the parent.
	Bypass             bool              `json:"bypass"`              // Skip difficulty and spacing rules.
	MedianTimeBlocks   int               `json:"median_time_blocks"`  // Blocks in the median-time-past window.
	MaxFutureDrift     uint64            `json:"max_future_drift"`    // Seconds a timestamp may lead the clock.
	CoinbaseMaturity   uint64            `json:"coinbase_maturity"`   // Blocks before a coinbase may be spent.
	MaxBlockSize       int               `json:"max_block_size"`
	MaxTxSize          int               `json:"max_tx_size"`
	MaxTxInputs        int               `json:"max_tx_inputs"`
	MaxTxOutputs       int               `json:"max_tx_outputs"`
	ClampFactor        uint64            `json:"clamp_factor"`        // Retarget timespan clamp.
	ManipulationFactor uint64            `json:"manipulation_factor"` // Retarget timespans beyond this are rejected.
	Reward             reward.Schedule   `json:"reward"`
	GenesisTime        uint64            `json:"genesis_time"`
	GenesisMessage     string            `json:"genesis_message"`
}

// Mainnet returns the production parameters.
func Mainnet() Params {
	return Params{
		Name:               NameMainnet,
		ForkID:             ForkMainnet,
		MinTarget:          difficulty.MustFromBits(0x1d00ffff),
		MaxTarget:          difficulty.MustFromBits(0x3f00ffff),
		TargetSpacing:      600,
		AdjustmentInterval: 2016,
		MinBlockSpacing:    60,
		MedianTimeBlocks:   11,
		MaxFutureDrift:     7200,
		CoinbaseMaturity:   100,
		MaxBlockSize:       1_000_000,
		MaxTxSize:          100_000,
		MaxTxInputs:        1000,
		MaxTxOutputs:       1000,
		ClampFactor:        4,
		ManipulationFactor: 10,
		Reward:             reward.Default(),
		GenesisTime:        1735689600,
		GenesisMessage:     "BTPC Mainnet Genesis Block - Security for the future",
	}
}

// Testnet returns the public test network parameters. Enforcement is the
// same as mainnet with an easier target ceiling.
func Testnet() Params {
	p := Mainnet()
	p.Name = NameTestnet
	p.ForkID = ForkTestnet
	p.MaxTarget = difficulty.MustFromBits(0x4007ffff)
	p.GenesisMessage = "BTPC Testnet Genesis Block - Post-Quantum Bitcoin"

	return p
}

// Regtest returns the local development parameters. Difficulty and
// spacing enforcement are bypassed.
func Regtest() Params {
	p := Mainnet()
	p.Name = NameRegtest
	p.ForkID = ForkRegtest
	p.MaxTarget = difficulty.MustFromBits(0x407fffff)
	p.Bypass = true
	p.GenesisMessage = "BTPC Regtest Genesis Block"

	return p
}

// Lookup returns the parameters for the named network.
func Lookup(name string) (Params, error) {
	switch name {
	case NameMainnet:
		return Mainnet(), nil
	case NameTestnet:
		return Testnet(), nil
	case NameRegtest:
		return Regtest(), nil
	}

	return Params{}, fmt.Errorf("unknown network %q", name)
}

// Load opens and consumes a parameters file for a private network.
func Load(path string) (Params, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return Params{}, err
	}

	var params Params
	if err := json.Unmarshal(content, &params); err != nil {
		return Params{}, err
	}

	if err := params.Validate(); err != nil {
		return Params{}, err
	}

	return params, nil
}

// =============================================================================

// Validate checks the parameters are internally consistent.
func (p Params) Validate() error {
	switch {
	case p.Bypass && (p.ForkID == ForkMainnet || p.ForkID == ForkTestnet):
		return fmt.Errorf("network %q with fork id %d may not bypass enforcement", p.Name, p.ForkID)
	case p.MinTarget.IsZero() || p.MaxTarget.IsZero():
		return errors.New("targets must be positive")
	case p.MinTarget.Cmp(p.MaxTarget) > 0:
		return errors.New("min target is easier than max target")
	case p.MaxTarget.Bits()>>24 > difficulty.Size:
		return errors.New("max target cannot be encoded")
	case p.AdjustmentInterval == 0 || p.TargetSpacing == 0:
		return errors.New("adjustment interval and target spacing must be positive")
	case p.MedianTimeBlocks < 1:
		return errors.New("median time window must be positive")
	case p.ClampFactor < 1 || p.ManipulationFactor < 1:
		return errors.New("clamp and manipulation factors must be positive")
	case p.Reward.Tail > p.Reward.Initial:
		return errors.New("reward tail exceeds initial reward")
	}

	return nil
}

// Adjuster returns the retargeting rules for the network.
func (p Params) Adjuster() difficulty.Adjuster {
	return difficulty.Adjuster{
		Interval:           p.AdjustmentInterval,
		TargetSpacing:      p.TargetSpacing,
		MinTarget:          p.MinTarget,
		MaxTarget:          p.MaxTarget,
		ClampFactor:        p.ClampFactor,
		ManipulationFactor: p.ManipulationFactor,
	}
}

// =============================================================================

// Block constructs the genesis block for the network. The single coinbase
// output is unspendable and carries the genesis message. The header is
// mined sequentially from nonce zero so every node derives the same block.
func Block(p Params) (database.Block, error) {
	subsidy, err := p.Reward.At(0)
	if err != nil {
		return database.Block{}, fmt.Errorf("genesis reward: %w", err)
	}

	var lock script.Builder
	lock.AddOp(script.OpFalse).AddData([]byte(p.GenesisMessage))
	if err := lock.Err(); err != nil {
		return database.Block{}, fmt.Errorf("genesis message: %w", err)
	}

	coinbase := database.NewCoinbaseTx(0, p.ForkID, []database.TxOut{{Value: subsidy, LockingScript: lock.Script()}}, []byte(p.GenesisMessage))

	header := database.BlockHeader{
		Version:   1,
		TimeStamp: p.GenesisTime,
		Bits:      p.MaxTarget.Bits(),
	}

	block, err := database.NewBlock(header, []database.Tx{coinbase})
	if err != nil {
		return database.Block{}, err
	}

	target, err := difficulty.FromBits(block.Header.Bits)
	if err != nil {
		return database.Block{}, err
	}

	nonce, err := pow.Mine(context.Background(), block.Header, target, 1, nil)
	if err != nil {
		return database.Block{}, fmt.Errorf("mine genesis: %w", err)
	}
	block.Header.Nonce = nonce

	return block, nil
}
