package providers

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterWait(t *testing.T) {
	r := NewRateLimiter(600)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := r.Wait(ctx); err != nil {
			t.Fatalf("Wait: %v", err)
		}
	}

	st := r.Status()
	if st.TokensLimit != 600 {
		t.Errorf("TokensLimit = %d, want 600", st.TokensLimit)
	}
	if st.TokensAvailable > 600-3+1 {
		t.Errorf("TokensAvailable = %d after 3 waits", st.TokensAvailable)
	}
	if !st.Last429Time.IsZero() {
		t.Errorf("Last429Time = %v, want zero before any 429", st.Last429Time)
	}
}

func TestRateLimiterWaitCancelled(t *testing.T) {
	r := NewRateLimiter(1)
	r.Record429()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := r.Wait(ctx); err == nil {
		t.Error("Wait on a drained bucket should fail when the context expires")
	}
}

func TestRateLimiterRecord429(t *testing.T) {
	r := NewRateLimiter(60)

	before := time.Now()
	r.Record429()

	st := r.Status()
	if st.Last429Time.Before(before) {
		t.Errorf("Last429Time = %v, want at or after %v", st.Last429Time, before)
	}
	if st.TokensAvailable != 0 {
		t.Errorf("TokensAvailable = %d after 429, want 0", st.TokensAvailable)
	}
	if st.TimeUntilToken <= 0 {
		t.Errorf("TimeUntilToken = %v, want positive on a drained bucket", st.TimeUntilToken)
	}
}
