package mid_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/btpc/blockchain/business/sys/validate"
	"github.com/btpc/blockchain/business/web/errs"
	"github.com/btpc/blockchain/business/web/mid"
	"github.com/btpc/blockchain/foundation/blockchain/consensus"
	"github.com/btpc/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

type counters struct {
	requests int
	errors   int
	panics   int
}

func (c *counters) AddRequests() { c.requests++ }
func (c *counters) AddErrors()   { c.errors++ }
func (c *counters) AddPanics()   { c.panics++ }

func Test_Errors(t *testing.T) {
	type table struct {
		name    string
		handler web.Handler
		status  int
		kind    string
		fields  bool
	}

	tt := []table{
		{
			name: "verdict",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				return errs.Verdict(&consensus.TimestampError{Kind: consensus.ErrTooFarFuture})
			},
			status: http.StatusUnprocessableEntity,
			kind:   "too_far_future",
		},
		{
			name: "validation",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				var req struct {
					Height uint64 `json:"height" validate:"required"`
				}
				return validate.Check(req)
			},
			status: http.StatusBadRequest,
			fields: true,
		},
		{
			name: "panic",
			handler: func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
				panic("handler bug")
			},
			status: http.StatusInternalServerError,
		},
	}

	t.Log("Given the need to convert handler errors into responses.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				t.Logf("\tTest %d:\tWhen the handler fails with a %s error.", testID, tst.name)
				{
					var c counters
					app := web.NewApp(make(chan os.Signal, 1), mid.Logger(zap.NewNop().Sugar()), mid.Errors(zap.NewNop().Sugar()), mid.Metrics(&c), mid.Panics(&c))
					app.Handle(http.MethodGet, "v1", "/test", tst.handler)

					w := httptest.NewRecorder()
					app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/test", nil))

					if w.Code != tst.status {
						t.Fatalf("\t%s\tTest %d:\tShould receive status %d: got %d", failed, testID, tst.status, w.Code)
					}
					t.Logf("\t%s\tTest %d:\tShould receive status %d.", success, testID, tst.status)

					var resp errs.Response
					if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
						t.Fatalf("\t%s\tTest %d:\tShould decode the error response: %v", failed, testID, err)
					}

					if resp.Kind != tst.kind || (resp.Fields != nil) != tst.fields {
						t.Fatalf("\t%s\tTest %d:\tShould describe the error: got %+v", failed, testID, resp)
					}
					t.Logf("\t%s\tTest %d:\tShould describe the error.", success, testID)

					if c.requests != 1 || c.errors != 1 {
						t.Fatalf("\t%s\tTest %d:\tShould count the failed request: got %+v", failed, testID, c)
					}
					t.Logf("\t%s\tTest %d:\tShould count the failed request.", success, testID)
				}
			}

			t.Run(tst.name, f)
		}
	}
}
