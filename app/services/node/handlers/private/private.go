// Package private maintains the group of handlers for node to node access.
package private

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/btpc/blockchain/business/sys/validate"
	"github.com/btpc/blockchain/business/web/errs"
	"github.com/btpc/blockchain/foundation/blockchain/state"
	"github.com/btpc/blockchain/foundation/web"
	"go.uber.org/zap"
)

// Handlers manages the set of node to node endpoints.
type Handlers struct {
	Log   *zap.SugaredLogger
	State *state.State
}

// ProposeBlock takes a block received from a peer, validates it and
// if that passes, adds the block to the local blockchain.
func (h Handlers) ProposeBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	v, err := web.GetValues(ctx)
	if err != nil {
		return web.NewShutdownError("web value missing from context")
	}

	var pb proposedBlock
	if err := web.Decode(r, &pb); err != nil {
		return errs.NewTrusted(fmt.Errorf("unable to decode payload: %w", err), http.StatusBadRequest)
	}

	if err := validate.Check(pb); err != nil {
		return err
	}

	block := pb.toBlock()

	// Ask the state package to validate the proposed block. If the block
	// passes validation, it will be added to the blockchain database.
	if err := h.State.ProcessProposedBlock(block); err != nil {
		return errs.Verdict(err)
	}

	h.Log.Infow("propose block", "traceid", v.TraceID, "hash", block.Hash(), "txs", len(block.Txs))

	resp := verdict{
		Status: "accepted",
		Height: h.State.Height(),
		Hash:   block.Hash(),
	}

	return web.Respond(ctx, w, resp, http.StatusAccepted)
}

// MineBlock mines the next block on the chain tip and waits for the result.
func (h Handlers) MineBlock(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	block, err := h.State.MineNewBlock(ctx)
	if err != nil {
		switch {
		case errors.Is(err, state.ErrNoMinerScript):
			return errs.NewTrusted(err, http.StatusPreconditionFailed)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return errs.NewTrusted(err, http.StatusServiceUnavailable)
		}
		return errs.Verdict(err)
	}

	resp := verdict{
		Status: "mined",
		Height: h.State.Height(),
		Hash:   block.Hash(),
	}

	return web.Respond(ctx, w, resp, http.StatusCreated)
}

// SignalMining asks the mining worker to start a mining operation.
func (h Handlers) SignalMining(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	if h.State.Worker == nil {
		return errs.NewTrusted(errors.New("mining worker not running"), http.StatusPreconditionFailed)
	}

	h.State.Worker.SignalStartMining()

	resp := struct {
		Status string `json:"status"`
	}{
		Status: "mining signalled",
	}

	return web.Respond(ctx, w, resp, http.StatusAccepted)
}
