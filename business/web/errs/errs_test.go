package errs_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/btpc/blockchain/business/web/errs"
	"github.com/btpc/blockchain/foundation/blockchain/consensus"
	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/mempool"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Verdict(t *testing.T) {
	type table struct {
		name   string
		err    error
		status int
	}

	tt := []table{
		{name: "structural", err: &consensus.StructuralError{Reason: "empty block", TxIndex: -1}, status: http.StatusBadRequest},
		{name: "not-found", err: fmt.Errorf("block 9: %w", database.ErrNotFound), status: http.StatusNotFound},
		{name: "spent", err: database.ErrSpent, status: http.StatusGone},
		{name: "already-spent", err: &consensus.TransactionError{Kind: consensus.ErrAlreadySpent, Input: 0}, status: http.StatusConflict},
		{name: "mempool-conflict", err: mempool.ErrConflict, status: http.StatusConflict},
		{name: "too-old", err: &consensus.TimestampError{Kind: consensus.ErrTooOld}, status: http.StatusUnprocessableEntity},
		{name: "storage", err: &consensus.StorageError{Op: "ApplyBatch", Err: errors.New("disk gone")}, status: 0},
		{name: "unknown", err: errors.New("boom"), status: 0},
	}

	t.Log("Given the need to map chain errors to HTTP statuses.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen handling a %s error.", testID, tst.name)
				{
					err := errs.Verdict(tst.err)

					if tst.status == 0 {
						if errs.IsTrusted(err) {
							t.Fatalf("\t%s\tTest %d:\tShould stay untrusted.", failed, testID)
						}
						t.Logf("\t%s\tTest %d:\tShould stay untrusted.", success, testID)
						return
					}

					trusted := errs.GetTrusted(err)
					if trusted == nil || trusted.Status != tst.status {
						t.Fatalf("\t%s\tTest %d:\tShould get status %d: got %v", failed, testID, tst.status, trusted)
					}
					t.Logf("\t%s\tTest %d:\tShould get status %d.", success, testID, tst.status)

					if !errors.Is(err, tst.err) {
						t.Fatalf("\t%s\tTest %d:\tShould keep the original error.", failed, testID)
					}
					t.Logf("\t%s\tTest %d:\tShould keep the original error.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}
