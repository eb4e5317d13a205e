package threat

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func testGate(t *testing.T) (*RedisGate, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisGate(client, DefaultWindow, zerolog.Nop()), mr
}

func TestClassifyEscalatesWithFailures(t *testing.T) {
	gate, _ := testGate(t)
	ctx := context.Background()
	const ip = "203.0.113.7"

	steps := []struct {
		failures int
		want     Tier
	}{
		{0, TierLow},
		{4, TierLow},
		{5, TierMedium},
		{9, TierMedium},
		{10, TierHigh},
		{19, TierHigh},
		{20, TierCritical},
	}

	recorded := 0
	for _, step := range steps {
		for recorded < step.failures {
			if err := gate.RecordFailure(ctx, ip); err != nil {
				t.Fatalf("RecordFailure: %v", err)
			}
			recorded++
		}
		if got := gate.Classify(ctx, ip); got != step.want {
			t.Errorf("after %d failures: tier = %s, want %s", step.failures, got, step.want)
		}
	}
}

func TestTierMonotonicAndBlocking(t *testing.T) {
	if TierLow.Blocking() || TierMedium.Blocking() {
		t.Error("Low/Medium must not block")
	}
	if !TierHigh.Blocking() || !TierCritical.Blocking() {
		t.Error("High/Critical must block")
	}
}

func TestWindowExpiryResetsCounter(t *testing.T) {
	gate, mr := testGate(t)
	ctx := context.Background()
	const ip = "203.0.113.8"

	for i := 0; i < criticalThreshold; i++ {
		if err := gate.RecordFailure(ctx, ip); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}
	if got := gate.Classify(ctx, ip); got != TierCritical {
		t.Fatalf("tier = %s, want Critical", got)
	}

	mr.FastForward(DefaultWindow + time.Second)

	if got := gate.Classify(ctx, ip); got != TierLow {
		t.Fatalf("tier after window = %s, want Low", got)
	}
}

func TestClassifyFailsClosedToMedium(t *testing.T) {
	gate, mr := testGate(t)
	mr.Close()

	if got := gate.Classify(context.Background(), "203.0.113.9"); got != TierMedium {
		t.Fatalf("tier with backend down = %s, want Medium", got)
	}
}

func TestClassifySeparatesOrigins(t *testing.T) {
	gate, _ := testGate(t)
	ctx := context.Background()

	for i := 0; i < highThreshold; i++ {
		if err := gate.RecordFailure(ctx, "198.51.100.1"); err != nil {
			t.Fatalf("RecordFailure: %v", err)
		}
	}

	if got := gate.Classify(ctx, "198.51.100.2"); got != TierLow {
		t.Fatalf("unrelated origin tier = %s, want Low", got)
	}
}
