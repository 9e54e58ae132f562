package memory_test

import (
	"testing"

	"github.com/btpc/blockchain/foundation/blockchain/database"
	"github.com/btpc/blockchain/foundation/blockchain/storage/memory"
	"github.com/btpc/blockchain/foundation/blockchain/storage/storagetest"
)

func Test_Memory(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) database.Storage {
		return memory.New()
	})
}
