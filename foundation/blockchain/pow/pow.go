// Package pow implements the proof of work search and its verification.
package pow

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/difficulty"
	"github.com/btpc/blockchain/foundation/blockchain/signature"
	"golang.org/x/sync/errgroup"
)

// ErrNonceExhausted is returned when no nonce in the searched range solves
// the header. The caller must change the timestamp or coinbase and retry.
var ErrNonceExhausted = errors.New("nonce space exhausted")

// errSolved stops the remaining workers once one has found a nonce.
var errSolved = errors.New("solved")

// nonceOffset is the position of the nonce in the serialized header.
const nonceOffset = database.HeaderSize - 4

// checkEvery is how many hashes a worker computes between checks for
// cancellation.
const checkEvery = 1 << 12

// EventHandler receives progress messages from the miner.
type EventHandler func(v string, args ...any)

// =============================================================================

// Verify recomputes the header hash and reports whether it meets the
// target, using the same comparison as the acceptance path.
func Verify(header database.BlockHeader, target difficulty.Target) bool {
	return target.Satisfied(header.Hash())
}

// Mine searches the full 32 bit nonce space for a nonce that solves the
// header, spreading the work over the specified number of workers.
func Mine(ctx context.Context, header database.BlockHeader, target difficulty.Target, workers int, ev EventHandler) (uint32, error) {
	return MineRange(ctx, header, target, 0, math.MaxUint32, workers, ev)
}

// MineRange searches the inclusive nonce range [first, last]. Each worker
// scans a disjoint sub-range and the first worker to report wins.
func MineRange(ctx context.Context, header database.BlockHeader, target difficulty.Target, first uint32, last uint32, workers int, ev EventHandler) (uint32, error) {
	if ev == nil {
		ev = func(string, ...any) {}
	}

	if last < first {
		return 0, exhausted(header, first, last)
	}

	if workers < 1 {
		workers = 1
	}

	total := uint64(last) - uint64(first) + 1
	if uint64(workers) > total {
		workers = int(total)
	}
	chunk := (total + uint64(workers) - 1) / uint64(workers)

	ev("pow: MineRange: MINING: started: range[%d-%d] workers[%d]", first, last, workers)

	var (
		solved atomic.Bool
		nonce  atomic.Uint32
	)

	g, gctx := errgroup.WithContext(ctx)
	for w := range workers {
		start := uint64(first) + uint64(w)*chunk
		end := min(start+chunk-1, uint64(last))

		g.Go(func() error {
			n, ok, err := scan(gctx, header, target, uint32(start), uint32(end))
			if err != nil {
				return err
			}

			if ok && solved.CompareAndSwap(false, true) {
				nonce.Store(n)
				return errSolved
			}

			return nil
		})
	}

	err := g.Wait()

	switch {
	case solved.Load():
		header.Nonce = nonce.Load()
		ev("pow: MineRange: MINING: SOLVED: nonce[%d] hash[%s]", header.Nonce, header.Hash())
		return header.Nonce, nil

	case ctx.Err() != nil:
		ev("pow: MineRange: MINING: CANCELLED")
		return 0, ctx.Err()

	case err != nil && !errors.Is(err, errSolved):
		return 0, err
	}

	ev("pow: MineRange: MINING: exhausted: range[%d-%d]", first, last)
	return 0, exhausted(header, first, last)
}

// exhausted wraps ErrNonceExhausted with the header and range searched.
func exhausted(header database.BlockHeader, first uint32, last uint32) error {
	return fmt.Errorf("range[%d-%d] bits[%08x] hash[%s]: %w", first, last, header.Bits, header.Hash(), ErrNonceExhausted)
}

// scan hashes every nonce in [start, end] until one meets the target or
// the context is cancelled.
func scan(ctx context.Context, header database.BlockHeader, target difficulty.Target, start uint32, end uint32) (uint32, bool, error) {
	buf := header.Bytes()

	for n := uint64(start); n <= uint64(end); n++ {
		if n%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return 0, false, err
			}
		}

		binary.LittleEndian.PutUint32(buf[nonceOffset:], uint32(n))
		if target.Satisfied(signature.Sum(buf)) {
			return uint32(n), true, nil
		}
	}

	return 0, false, nil
}
