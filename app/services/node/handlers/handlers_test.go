package handlers_test

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/btpc/blockchain/app/services/node/handlers"
	"github.com/btpc/blockchain/business/sys/metrics"
	"github.com/btpc/blockchain/business/web/errs"
	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/genesis"
	"github.com/btpc/blockchain/foundation/blockchain/script"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
	"github.com/btpc/blockchain/foundation/blockchain/state"
	"github.com/btpc/blockchain/foundation/blockchain/storage/memory"
	"github.com/btpc/blockchain/foundation/events"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type node struct {
	st      *state.State
	public  http.Handler
	private http.Handler
	key     signature.KeyPair
	pub     []byte
	lock    []byte
}

func newNode(t *testing.T) node {
	t.Helper()

	key, err := signature.KeyPairFromSeed(bytes.Repeat([]byte{5}, signature.SeedSize))
	if err != nil {
		t.Fatalf("\t%s\tShould be able to derive a key: %v", failed, err)
	}

	pub, err := key.PublicKey()
	if err != nil {
		t.Fatalf("\t%s\tShould be able to read the public key: %v", failed, err)
	}
	lock := script.PayToPubKeyHash(script.PubKeyHash(pub))

	params := genesis.Regtest()
	params.CoinbaseMaturity = 1

	m := metrics.New(prometheus.NewRegistry())

	st, err := state.New(state.Config{
		Params:      params,
		Storage:     memory.New(),
		Verifier:    signature.NewMLDSA(),
		MinerScript: lock,
		Metrics:     m,
	})
	if err != nil {
		t.Fatalf("\t%s\tShould be able to construct the state: %v", failed, err)
	}
	t.Cleanup(func() { st.Shutdown() })

	cfg := handlers.MuxConfig{
		Shutdown: make(chan os.Signal, 1),
		Log:      zap.NewNop().Sugar(),
		State:    st,
		Evts:     events.New(),
		Metrics:  m,
	}

	return node{
		st:      st,
		public:  handlers.PublicMux(cfg),
		private: handlers.PrivateMux(cfg),
		key:     key,
		pub:     pub,
		lock:    lock,
	}
}

func do(t *testing.T, h http.Handler, method string, path string, body any, resp any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("\t%s\tShould be able to encode the body: %v", failed, err)
		}
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, &buf))

	if resp != nil {
		if err := json.Unmarshal(w.Body.Bytes(), resp); err != nil {
			t.Fatalf("\t%s\tShould be able to decode %s %s: %v: %s", failed, method, path, err, w.Body.String())
		}
	}

	return w.Code
}

// =============================================================================

func Test_API(t *testing.T) {
	t.Log("Given the need to drive the node over its HTTP API.")
	{
		n := newNode(t)

		testID := 0
		t.Logf("\tTest %d:\tWhen mining two blocks through the private API.", testID)
		{
			for range 2 {
				if code := do(t, n.private, http.MethodPost, "/v1/node/block/mine", nil, nil); code != http.StatusCreated {
					t.Fatalf("\t%s\tTest %d:\tShould mine a block: got %d", failed, testID, code)
				}
			}
			t.Logf("\t%s\tTest %d:\tShould mine a block.", success, testID)

			var status state.Status
			if code := do(t, n.public, http.MethodGet, "/v1/node/status", nil, &status); code != http.StatusOK || status.Height != 2 {
				t.Fatalf("\t%s\tTest %d:\tShould report height 2: got %d %+v", failed, testID, code, status)
			}
			t.Logf("\t%s\tTest %d:\tShould report height 2.", success, testID)
		}

		var first struct {
			Height uint64         `json:"height"`
			Block  database.Block `json:"block"`
		}

		testID++
		t.Logf("\tTest %d:\tWhen reading block 1 and its reward output.", testID)
		{
			if code := do(t, n.public, http.MethodGet, "/v1/block/1", nil, &first); code != http.StatusOK || first.Height != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould read block 1: got %d", failed, testID, code)
			}
			t.Logf("\t%s\tTest %d:\tShould read block 1.", success, testID)

			var utxo database.UTXO
			path := "/v1/utxo/" + first.Block.Txs[0].ID().String() + "/0"
			if code := do(t, n.public, http.MethodGet, path, nil, &utxo); code != http.StatusOK || !utxo.Coinbase {
				t.Fatalf("\t%s\tTest %d:\tShould read the reward output: got %d", failed, testID, code)
			}
			t.Logf("\t%s\tTest %d:\tShould read the reward output.", success, testID)

			var er errs.Response
			path = "/v1/utxo/" + signature.ZeroHash.String() + "/0"
			if code := do(t, n.public, http.MethodGet, path, nil, &er); code != http.StatusNotFound {
				t.Fatalf("\t%s\tTest %d:\tShould not find an unknown output: got %d", failed, testID, code)
			}
			t.Logf("\t%s\tTest %d:\tShould not find an unknown output.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen submitting a spend of the reward.", testID)
		{
			coinbase := first.Block.Txs[0]
			tx := database.Tx{
				Version: 1,
				Inputs:  []database.TxIn{{PrevOut: database.OutPoint{TxID: coinbase.ID()}, Sequence: math.MaxUint32}},
				Outputs: []database.TxOut{{Value: coinbase.Outputs[0].Value - 1_000, LockingScript: n.lock}},
				ForkID:  n.st.Params().ForkID,
			}

			sig, err := n.key.Sign(tx.SigningBytes())
			if err != nil {
				t.Fatalf("\t%s\tTest %d:\tShould be able to sign: %v", failed, testID, err)
			}
			tx.Inputs[0].UnlockingScript = script.Unlock(sig, n.pub)

			var resp struct {
				ID  signature.Hash `json:"id"`
				Fee uint64         `json:"fee"`
			}
			if code := do(t, n.public, http.MethodPost, "/v1/tx/submit", tx, &resp); code != http.StatusOK || resp.Fee != 1_000 || resp.ID != tx.ID() {
				t.Fatalf("\t%s\tTest %d:\tShould admit the transaction: got %d %+v", failed, testID, code, resp)
			}
			t.Logf("\t%s\tTest %d:\tShould admit the transaction.", success, testID)

			var pool []json.RawMessage
			if code := do(t, n.public, http.MethodGet, "/v1/mempool", nil, &pool); code != http.StatusOK || len(pool) != 1 {
				t.Fatalf("\t%s\tTest %d:\tShould list one pooled transaction: got %d", failed, testID, len(pool))
			}
			t.Logf("\t%s\tTest %d:\tShould list one pooled transaction.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen submitting an empty transaction.", testID)
		{
			var er errs.Response
			if code := do(t, n.public, http.MethodPost, "/v1/tx/submit", struct{}{}, &er); code != http.StatusBadRequest || len(er.Fields) == 0 {
				t.Fatalf("\t%s\tTest %d:\tShould report the invalid fields: got %d %+v", failed, testID, code, er)
			}
			t.Logf("\t%s\tTest %d:\tShould report the invalid fields.", success, testID)
		}

		testID++
		t.Logf("\tTest %d:\tWhen proposing a block that does not extend the tip.", testID)
		{
			var er errs.Response
			if code := do(t, n.private, http.MethodPost, "/v1/node/block/propose", first.Block, &er); code != http.StatusBadRequest || er.Kind != "structural" {
				t.Fatalf("\t%s\tTest %d:\tShould reject it as structural: got %d %+v", failed, testID, code, er)
			}
			t.Logf("\t%s\tTest %d:\tShould reject it as structural.", success, testID)
		}
	}
}
