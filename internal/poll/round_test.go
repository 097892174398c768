package poll

import (
	"errors"
	"testing"
	"time"
)

func TestNewRoundZeroTally(t *testing.T) {
	r := newRound("q", []string{"a", "b", "c"}, 30*time.Second)
	if len(r.Tally) != 3 {
		t.Fatalf("tally has %d entries, want 3", len(r.Tally))
	}
	for opt, n := range r.Tally {
		if n != 0 {
			t.Errorf("tally[%q] = %d, want 0", opt, n)
		}
	}
	if len(r.Responses) != 0 {
		t.Errorf("responses not empty: %v", r.Responses)
	}
}

func TestRoundRecord(t *testing.T) {
	r := newRound("q", []string{"a", "b"}, 30*time.Second)

	if err := r.record("h1", "nope"); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("unknown option: error = %v, want ErrInvalidOption", err)
	}
	if err := r.record("h1", "a"); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := r.record("h1", "b"); !errors.Is(err, ErrDuplicateAnswer) {
		t.Fatalf("second answer: error = %v, want ErrDuplicateAnswer", err)
	}

	// First answer wins.
	if r.Responses["h1"] != "a" || r.Tally["a"] != 1 || r.Tally["b"] != 0 {
		t.Errorf("state after rejected rewrite: responses=%v tally=%v", r.Responses, r.Tally)
	}
}

func TestRoundSummaryInvariants(t *testing.T) {
	r := newRound("q", []string{"a", "b"}, 30*time.Second)
	_ = r.record("h1", "a")
	_ = r.record("h2", "a")
	_ = r.record("h3", "b")

	sum := r.summary(time.Now())
	total := 0
	for opt, n := range sum.Votes {
		if !r.hasOption(opt) {
			t.Errorf("summary vote for undeclared option %q", opt)
		}
		total += n
	}
	if total != sum.Total || sum.Total != len(r.Responses) {
		t.Errorf("sum(votes)=%d total=%d responses=%d, want all equal", total, sum.Total, len(r.Responses))
	}

	// The summary owns copies, not the live maps.
	sum.Votes["a"] = 99
	if r.Tally["a"] == 99 {
		t.Error("summary shares the live tally map")
	}
}

func TestRoundStopTimerIdempotent(t *testing.T) {
	r := newRound("q", []string{"a", "b"}, 30*time.Second)
	fired := make(chan struct{})
	r.timer = time.AfterFunc(10*time.Millisecond, func() { close(fired) })
	r.stopTimer()
	r.stopTimer()

	select {
	case <-fired:
		t.Error("cancelled timer fired")
	case <-time.After(50 * time.Millisecond):
	}
}
