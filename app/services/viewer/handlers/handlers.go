// Package handlers contains the full set of handler functions and routes
// supported by the web api.
package handlers

import (
	"fmt"
	"net/http"
	"os"

	"github.com/btpc/blockchain/business/web/mid"
	"github.com/btpc/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Counters is the set of counters the viewer middleware updates.
type Counters interface {
	mid.Counters
	mid.PanicCounter
}

// UIMux constructs an http.Handler with all application routes defined.
// The page streams accepted blocks from the node's events endpoint.
func UIMux(shutdown chan os.Signal, log *zap.SugaredLogger, counters Counters, nodeEvents string) (*web.App, error) {
	app := web.NewApp(
		shutdown,
		mid.Logger(log),
		mid.Errors(log),
		mid.Metrics(counters),
		mid.Panics(counters),
		mid.Cors("*"),
	)

	// Register the index page for the website.
	ig, err := newIndex(nodeEvents)
	if err != nil {
		return nil, fmt.Errorf("loading index template: %w", err)
	}
	app.Handle(http.MethodGet, "", "/", ig.handler)

	return app, nil
}
