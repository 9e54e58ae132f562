package mid

import (
	"context"
	"net/http"

	"github.com/btpc/blockchain/foundation/web"
)

// Counters is the set of request counters the metrics middleware updates.
type Counters interface {
	AddRequests()
	AddErrors()
}

// Metrics updates program counters.
func Metrics(counters Counters) web.Middleware {

	// This is the actual middleware function to be executed.
	m := func(handler web.Handler) web.Handler {

		// Create the handler that will be attached in the middleware chain.
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			// Call the next handler.
			err := handler(ctx, w, r)

			// Increment the request and errors counters.
			counters.AddRequests()
			if err != nil {
				counters.AddErrors()
			}

			// Return the error so it can be handled further up the chain.
			return err
		}

		return h
	}

	return m
}
