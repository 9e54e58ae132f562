package consensus

import (
	"github.com/btpc/blockchain/foundation/blockchain/database"
)

// checkTimestamps enforces median time past, the future window and, on
// enforced networks, the minimum spacing from the parent.
func (e *Engine) checkTimestamps(b database.Block, previous database.Block, height uint64) error {
	ts := b.Header.TimeStamp

	mtp, err := e.MedianTimePast(previous, height-1)
	if err != nil {
		return err
	}

	if ts <= mtp {
		return &TimestampError{Kind: ErrTooOld, Timestamp: ts, Limit: mtp}
	}

	now := e.now().Unix()
	if now < 0 {
		now = 0
	}

	limit := uint64(now) + e.params.MaxFutureDrift
	if ts > limit {
		return &TimestampError{Kind: ErrTooFarFuture, Timestamp: ts, Limit: limit}
	}

	if e.params.Bypass {
		return nil
	}

	earliest := previous.Header.TimeStamp + e.params.MinBlockSpacing
	if ts < earliest {
		return &TimestampError{Kind: ErrTooSoonAfterParent, Timestamp: ts, Limit: earliest}
	}

	return nil
}
