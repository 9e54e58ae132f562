package public

import (
	"net/http"

	"github.com/btpc/blockchain/foundation/blockchain/state"
	"github.com/btpc/blockchain/foundation/events"
	"github.com/btpc/blockchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
	Evts  *events.Events
}

// Routes binds all the public routes.
func Routes(app *web.App, cfg Config) {
	pbl := Handlers{
		Log:   cfg.Log,
		State: cfg.State,
		WS:    websocket.Upgrader{},
		Evts:  cfg.Evts,
	}

	const version = "v1"

	app.Handle(http.MethodGet, version, "/events", pbl.Events)
	app.Handle(http.MethodGet, version, "/node/status", pbl.Status)
	app.Handle(http.MethodGet, version, "/block/:height", pbl.BlockByHeight)
	app.Handle(http.MethodGet, version, "/utxo/:txid/:vout", pbl.UTXO)
	app.Handle(http.MethodGet, version, "/mempool", pbl.Mempool)
	app.Handle(http.MethodPost, version, "/tx/submit", pbl.SubmitTransaction)
}
