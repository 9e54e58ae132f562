// Package public maintains the group of handlers for public access.
package public

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/btpc/blockchain/business/sys/validate"
	"github.com/btpc/blockchain/business/web/errs"
	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
	"github.com/btpc/blockchain/foundation/blockchain/state"
	"github.com/btpc/blockchain/foundation/events"
	"github.com/btpc/blockchain/foundation/web"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handlers manages the set of public node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
	WS    websocket.Upgrader
	Evts  *events.Events
}

// Events handles a web socket to provide events to a client. The query
// parameter filter=blocks limits the stream to accepted block events.
func (h Handlers) Events(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var prefixes []string
	if r.URL.Query().Get("filter") == "blocks" {
		prefixes = append(prefixes, "viewer:")
	}

	h.WS.CheckOrigin = func(r *http.Request) bool { return true }

	c, err := h.WS.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer c.Close()

	ch := h.Evts.Acquire(v.TraceID, prefixes...)
	defer h.Evts.Release(v.TraceID)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case msg, wd := <-ch:
			if !wd {
				return nil
			}

			if err := c.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
				return err
			}

		case <-ticker.C:
			if err := c.WriteMessage(websocket.PingMessage, []byte("ping")); err != nil {
				return nil
			}
		}
	}
}

// SubmitTransaction validates a signed transaction against the ledger and
// adds it to the mempool.
func (h Handlers) SubmitTransaction(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var st submitTx
	if err := web.Decode(r, &st); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(st); err != nil {
		return err
	}

	ptx, err := h.State.UpsertMempool(st.toTx())
	if err != nil {
		return errs.Verdict(err)
	}

	h.Log.Infow("submit tx", "traceid", v.TraceID, "id", ptx.ID, "fee", ptx.Fee, "size", ptx.Size)

	resp := submitted{
		Status: "transaction added to mempool",
		ID:     ptx.ID,
		Fee:    ptx.Fee,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// Status returns a summary of the chain tip.
func (h Handlers) Status(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	status, err := h.State.Status()
	if err != nil {
		return errs.Verdict(err)
	}

	return web.Respond(ctx, w, status, http.StatusOK)
}

// BlockByHeight returns the block at the specified height. The value
// "latest" returns the chain tip.
func (h Handlers) BlockByHeight(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	var height uint64

	switch param := web.Param(r, "height"); param {
	case "latest":
		height = h.State.Height()

	default:
		var err error
		height, err = strconv.ParseUint(param, 10, 64)
		if err != nil {
			return errs.NewTrusted(fmt.Errorf("invalid height %q", param), http.StatusBadRequest)
		}
	}

	blk, err := h.State.BlockByHeight(height)
	if err != nil {
		return errs.Verdict(err)
	}

	resp := block{
		Height: height,
		Hash:   blk.Hash(),
		Size:   blk.Size(),
		Block:  blk,
	}

	return web.Respond(ctx, w, resp, http.StatusOK)
}

// UTXO returns the unspent output identified by transaction id and
// output index.
func (h Handlers) UTXO(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txID, err := signature.HashFromHex(web.Param(r, "txid"))
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid txid: %w", err), http.StatusBadRequest)
	}

	vout, err := strconv.ParseUint(web.Param(r, "vout"), 10, 32)
	if err != nil {
		return errs.NewTrusted(fmt.Errorf("invalid vout: %w", err), http.StatusBadRequest)
	}

	utxo, err := h.State.QueryUTXO(database.OutPoint{TxID: txID, Index: uint32(vout)})
	if err != nil {
		return errs.Verdict(err)
	}

	return web.Respond(ctx, w, utxo, http.StatusOK)
}

// Mempool returns the transactions waiting to be mined in selection order.
func (h Handlers) Mempool(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	txs := toPoolTxs(h.State.QueryMempool())
	return web.Respond(ctx, w, txs, http.StatusOK)
}
