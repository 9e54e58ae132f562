package state

import (
	"github.com/btpc/blockchain/foundation/blockchain/database"
)

// UpsertMempool accepts a transaction for inclusion in a future block. The
// transaction is validated against the committed ledger first.
func (s *State) UpsertMempool(tx database.Tx) (database.PoolTx, error) {
	ptx, err := s.validateTransaction(tx)
	if err != nil {
		s.metrics.TxRejected(err)
		return database.PoolTx{}, err
	}

	n, err := s.mempool.Upsert(ptx)
	if err != nil {
		s.metrics.TxRejected(err)
		return database.PoolTx{}, err
	}

	s.metrics.TxAdmitted(n)
	s.evHandler("state: UpsertMempool: tx[%s] fee[%d] mempool[%d]", ptx.ID, ptx.Fee, n)

	if s.Worker != nil {
		s.Worker.SignalStartMining()
	}

	return ptx, nil
}

// validateTransaction checks the transaction under the read lock so no
// block is applied halfway through the lookups.
func (s *State) validateTransaction(tx database.Tx) (database.PoolTx, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fee, err := s.engine.ValidateTransaction(tx)
	if err != nil {
		return database.PoolTx{}, err
	}

	return database.NewPoolTx(tx, fee, s.now()), nil
}
