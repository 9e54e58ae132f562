package reward_test

import (
	"errors"
	"testing"

	"github.com/btpc/blockchain/foundation/blockchain/reward"
)

// Success and failure markers.
const (
	success = "\u2713"
	failed  = "\u2717"
)

func Test_At(t *testing.T) {
	s := reward.Default()

	tt := []struct {
		name   string
		height uint64
		exp    uint64
	}{
		{"genesis", 0, 3_237_500_000},
		{"first", 1, 3_237_497_475},
		{"year-12", reward.DecayEndHeight / 2, 1_643_750_000},
		{"last-decay", reward.DecayEndHeight - 1, 50_002_526},
		{"tail", reward.DecayEndHeight, 50_000_000},
		{"far-tail", 100_000_000, 50_000_000},
	}

	t.Log("Given the need to compute block subsidies.")
	{
		for testID, tst := range tt {
			f := func(t *testing.T) {
				got, err := s.At(tst.height)
				if err != nil {
					t.Fatalf("\t%s\tTest %d:\tShould compute the reward: %v", failed, testID, err)
				}

				if got != tst.exp {
					t.Logf("\t\tTest %d:\tgot: %d", testID, got)
					t.Logf("\t\tTest %d:\texp: %d", testID, tst.exp)
					t.Fatalf("\t%s\tTest %d:\tShould get the expected reward at height %d.", failed, testID, tst.height)
				}
				t.Logf("\t%s\tTest %d:\tShould get the expected reward at height %d.", success, testID, tst.height)
			}

			t.Run(tst.name, f)
		}
	}
}

func Test_Monotonic(t *testing.T) {
	s := reward.Default()

	t.Log("Given the need for a deterministic non-increasing schedule.")
	{
		prev, err := s.At(0)
		if err != nil {
			t.Fatalf("\t%s\tShould compute the reward: %v", failed, err)
		}

		for h := uint64(1); h <= reward.DecayEndHeight+10_000; h += 997 {
			got, err := s.At(h)
			if err != nil {
				t.Fatalf("\t%s\tShould compute the reward at %d: %v", failed, h, err)
			}

			again, _ := s.At(h)
			if again != got {
				t.Fatalf("\t%s\tShould be deterministic at %d.", failed, h)
			}

			if got > prev {
				t.Fatalf("\t%s\tShould never increase: height %d got %d after %d.", failed, h, got, prev)
			}

			if got < reward.TailEmission {
				t.Fatalf("\t%s\tShould never drop below the tail at %d.", failed, h)
			}

			if h >= reward.DecayEndHeight && got != reward.TailEmission {
				t.Fatalf("\t%s\tShould pay the tail after the decay at %d.", failed, h)
			}

			prev = got
		}
		t.Logf("\t%s\tShould be deterministic, non-increasing and floored at the tail.", success)
	}
}

func Test_Overflow(t *testing.T) {
	s := reward.Schedule{Initial: 10, Tail: 20, DecayBlocks: 100}
	if _, err := s.At(5); !errors.Is(err, reward.ErrOverflow) {
		t.Fatalf("\t%s\tShould surface an invalid schedule as an error: %v", failed, err)
	}
	t.Logf("\t%s\tShould surface an invalid schedule as an error.", success)
}

func Test_Total(t *testing.T) {
	s := reward.Schedule{Initial: 100, Tail: 10, DecayBlocks: 10}

	total, err := s.Total(12)
	if err != nil {
		t.Fatalf("\t%s\tShould compute the total: %v", failed, err)
	}

	var exp uint64
	for h := uint64(0); h <= 12; h++ {
		r, _ := s.At(h)
		exp += r
	}

	if total.Uint64() != exp {
		t.Fatalf("\t%s\tShould sum the schedule to %d, got %d.", failed, exp, total.Uint64())
	}
	t.Logf("\t%s\tShould sum the schedule.", success)
}
