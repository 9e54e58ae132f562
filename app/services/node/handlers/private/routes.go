package private

import (
	"net/http"

	"github.com/btpc/blockchain/foundation/blockchain/state"
	"github.com/btpc/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Config contains all the mandatory systems required by handlers.
type Config struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// Routes binds all the private routes.
func Routes(app *web.App, cfg Config) {
	prv := Handlers{
		Log:   cfg.Log,
		State: cfg.State,
	}

	const version = "v1"

	app.Handle(http.MethodPost, version, "/node/block/propose", prv.ProposeBlock)
	app.Handle(http.MethodPost, version, "/node/block/mine", prv.MineBlock)
	app.Handle(http.MethodPost, version, "/node/mining/signal", prv.SignalMining)
}
