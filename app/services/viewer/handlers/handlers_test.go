package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/btpc/blockchain/app/services/viewer/handlers"
	"github.com/btpc/blockchain/business/sys/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Index(t *testing.T) {
	t.Log("Given the need to serve the block viewer page.")
	{
		t.Logf("\tTest 0:\tWhen requesting the index page.")
		{
			const events = "ws://node:8080/v1/events?filter=blocks"

			app, err := handlers.UIMux(make(chan os.Signal, 1), zap.NewNop().Sugar(), metrics.New(prometheus.NewRegistry()), events)
			if err != nil {
				t.Fatalf("\t%s\tTest 0:\tShould construct the mux: %v", failed, err)
			}

			w := httptest.NewRecorder()
			app.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

			if w.Code != http.StatusOK {
				t.Fatalf("\t%s\tTest 0:\tShould receive a 200 status: got %d", failed, w.Code)
			}
			t.Logf("\t%s\tTest 0:\tShould receive a 200 status.", success)

			if !strings.Contains(w.Body.String(), "ws://node:8080/v1/events") {
				t.Fatalf("\t%s\tTest 0:\tShould point the page at the node events.", failed)
			}
			t.Logf("\t%s\tTest 0:\tShould point the page at the node events.", success)
		}
	}
}
