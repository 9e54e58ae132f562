package state

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/btpc/blockchain/foundation/blockchain/database"
)

// ProcessProposedBlock takes a block received from outside the node,
// validates it and if that passes, adds the block to the local blockchain.
func (s *State) ProcessProposedBlock(block database.Block) error {
	s.evHandler("state: ProcessProposedBlock: started: prevBlk[%s]: newBlk[%s]: numTrans[%d]", block.Header.PrevBlockHash, block.Hash(), len(block.Txs))
	defer s.evHandler("state: ProcessProposedBlock: completed: newBlk[%s]", block.Hash())

	// Validate the block and then update the blockchain database.
	if err := s.validateUpdateDatabase(block); err != nil {
		return err
	}

	// If a mining operation is running it is working on a stale tip and
	// needs to stop. The worker restarts mining on the new tip.
	if s.Worker != nil {
		s.Worker.SignalCancelMining()
		s.Worker.SignalStartMining()
	}

	return nil
}

// =============================================================================

// validateUpdateDatabase takes the block and validates the block against the
// consensus rules. If the block passes, then the state of the node is updated
// including writing the block to storage. Validation and the write happen
// under one lock so no other block can be applied in between.
func (s *State) validateUpdateDatabase(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()

	s.evHandler("state: validateUpdateDatabase: validate block")

	batch, err := s.engine.ValidateBlock(block, s.latestBlock)
	if err != nil {
		s.metrics.BlockRejected(err)
		return err
	}

	s.evHandler("state: validateUpdateDatabase: write to storage: height[%d] removed[%d] inserted[%d]", batch.Height, len(batch.Removed), len(batch.Inserted))

	if err := s.storage.ApplyBatch(batch); err != nil {
		s.metrics.BlockRejected(err)
		return fmt.Errorf("apply block %d: %w", batch.Height, err)
	}

	s.engine.SetHeight(batch.Height)
	s.latestBlock = block

	removed := s.mempool.RemoveMined(block)
	s.evHandler("state: validateUpdateDatabase: removed from mempool[%d]", removed)

	s.metrics.BlockAccepted(batch.Height, len(block.Txs), time.Since(start))
	s.metrics.MempoolSize(s.mempool.Count())

	// Send an event about this new block.
	s.blockEvent(batch.Height, block)

	return nil
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(height uint64, block database.Block) {
	blockHeaderJSON, err := json.Marshal(block.Header)
	if err != nil {
		blockHeaderJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	txIDs := make([]string, len(block.Txs))
	for i, tx := range block.Txs {
		txIDs[i] = tx.ID().String()
	}

	blockTxsJSON, err := json.Marshal(txIDs)
	if err != nil {
		blockTxsJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: {"height":%d,"hash":%q,"header":%s,"txs":%s}`, height, block.Hash(), string(blockHeaderJSON), string(blockTxsJSON))
}
