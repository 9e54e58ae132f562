package genesis_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/btpc/blockchain/foundation/blockchain/difficulty"
	"github.com/btpc/blockchain/foundation/blockchain/genesis"
	"github.com/btpc/blockchain/foundation/blockchain/pow"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Networks(t *testing.T) {
	tt := []struct {
		name   string
		forkID uint8
		bypass bool
	}{
		{genesis.NameMainnet, genesis.ForkMainnet, false},
		{genesis.NameTestnet, genesis.ForkTestnet, false},
		{genesis.NameRegtest, genesis.ForkRegtest, true},
	}

	t.Log("Given the need to look up network parameters.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				p, err := genesis.Lookup(tst.name)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould find the network: %v", failed, testID, err)
				}

				if p.ForkID != tst.forkID || p.Bypass != tst.bypass || p.AdjustmentInterval != 2016 || p.TargetSpacing != 600 || p.MinBlockSpacing != 60 {
					t.Fatalf("\t%s\tTest %d:\tShould carry the network constants: %+v", failed, testID, p)
				}
				t.Logf("\t%s\tTest %d:\tShould carry the network constants.", success, testID)

				if err := p.Validate(); err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould validate: %v", failed, testID, err)
				}
				t.Logf("\t%s\tTest %d:\tShould validate.", success, testID)

				b1, err := genesis.Block(p)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould build the genesis block: %v", failed, testID, err)
				}

				b2, _ := genesis.Block(p)
				if b1.Hash() != b2.Hash() {
					t.Fatalf("\t%s\tTest %d:\tShould build the same genesis block every time.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould build the same genesis block every time.", success, testID)

				target, err := difficulty.FromBits(b1.Header.Bits)
				if err != nil || !pow.Verify(b1.Header, target) {
					t.Fatalf("\t%s\tTest %d:\tShould carry a valid proof of work.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould carry a valid proof of work.", success, testID)

				h, err := b1.Txs[0].CoinbaseHeight()
				if err != nil || h != 0 || b1.Txs[0].ForkID != tst.forkID {
					t.Fatalf("\t%s\tTest %d:\tShould commit height zero and the fork id.", failed, testID)
				}
				t.Logf("\t%s\tTest %d:\tShould commit height zero and the fork id.", success, testID)
			}

			t.Run(tst.name, f)
		}

		if _, err := genesis.Lookup("moonnet"); err == nil {
			t.Fatalf("\t%s\tShould reject an unknown network.", failed)
		}
		t.Logf("\t%s\tShould reject an unknown network.", success)
	}
}

func Test_Validate(t *testing.T) {
	p := genesis.Mainnet()
	p.Bypass = true
	if err := p.Validate(); err == nil {
		t.Fatalf("\t%s\tShould forbid bypass on mainnet.", failed)
	}
	t.Logf("\t%s\tShould forbid bypass on mainnet.", success)

	p = genesis.Testnet()
	p.MinTarget, p.MaxTarget = p.MaxTarget, p.MinTarget
	if err := p.Validate(); err == nil {
		t.Fatalf("\t%s\tShould reject inverted target bounds.", failed)
	}
	t.Logf("\t%s\tShould reject inverted target bounds.", success)
}

func Test_Load(t *testing.T) {
	p := genesis.Regtest()
	p.Name = "private"
	p.ForkID = 9
	p.CoinbaseMaturity = 5

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("\t%s\tShould marshal the parameters: %v", failed, err)
	}

	path := filepath.Join(t.TempDir(), "genesis.json")
	if err := os.WriteFile(path, data, 0600); err != nil {
		t.Fatalf("\t%s\tShould write the parameters file: %v", failed, err)
	}

	got, err := genesis.Load(path)
	if err != nil {
		t.Fatalf("\t%s\tShould load the parameters file: %v", failed, err)
	}

	if got != p {
		t.Logf("\t\tgot: %+v", got)
		t.Logf("\t\texp: %+v", p)
		t.Fatalf("\t%s\tShould load the same parameters.", failed)
	}
	t.Logf("\t%s\tShould load the same parameters.", success)
}
