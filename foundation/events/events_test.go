package events_test

import (
	"testing"

	"github.com/btpc/blockchain/foundation/events"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_Events(t *testing.T) {
	t.Log("Given the need to fan out node events to subscribers.")
	{
		evts := events.New()

		all := evts.Acquire("all")
		blocks := evts.Acquire("blocks", "viewer:")

		evts.Send("state: UpsertMempool: tx[00]")
		evts.Send("viewer: block: {}")

		t.Logf("\tTest 0:\tWhen a subscriber has no filter.")
		{
			if len(all) != 2 {
				t.Fatalf("\t%s\tTest 0:\tShould receive every message: got %d", failed, len(all))
			}
			t.Logf("\t%s\tTest 0:\tShould receive every message.", success)
		}

		t.Logf("\tTest 1:\tWhen a subscriber filters on a prefix.")
		{
			if len(blocks) != 1 || <-blocks != "viewer: block: {}" {
				t.Fatalf("\t%s\tTest 1:\tShould receive only the block event.", failed)
			}
			t.Logf("\t%s\tTest 1:\tShould receive only the block event.", success)
		}

		t.Logf("\tTest 2:\tWhen subscribers are released.")
		{
			if err := evts.Release("blocks"); err != nil {
				t.Fatalf("\t%s\tTest 2:\tShould release the subscriber: %v", failed, err)
			}
			if err := evts.Release("blocks"); err == nil {
				t.Fatalf("\t%s\tTest 2:\tShould fail to release twice.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould release a subscriber once.", success)

			evts.Shutdown()
			if _, open := <-blocks; open {
				t.Fatalf("\t%s\tTest 2:\tShould close released channels.", failed)
			}
			if evts.Count() != 0 {
				t.Fatalf("\t%s\tTest 2:\tShould remove every subscriber on shutdown.", failed)
			}
			t.Logf("\t%s\tTest 2:\tShould close every channel on shutdown.", success)
		}
	}
}
