package connectivity

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakePinger struct {
	err   error
	calls int
}

func (f *fakePinger) Ping(ctx context.Context) error {
	f.calls++
	return f.err
}

func TestStaticPolicies(t *testing.T) {
	ctx := context.Background()
	if !Always.Favorable(ctx) {
		t.Fatal("Always should be favorable")
	}
	if Never.Favorable(ctx) {
		t.Fatal("Never should not be favorable")
	}
}

func TestProbePolicy_UsesPingVerdict(t *testing.T) {
	ctx := context.Background()

	up := &fakePinger{}
	if !NewProbePolicy(up, time.Second).Favorable(ctx) {
		t.Fatal("reachable server should be favorable")
	}

	down := &fakePinger{err: errors.New("dial refused")}
	if NewProbePolicy(down, time.Second).Favorable(ctx) {
		t.Fatal("unreachable server should not be favorable")
	}
}

func TestProbePolicy_CachesBetweenProbes(t *testing.T) {
	ctx := context.Background()
	p := NewProbePolicy(&fakePinger{}, time.Hour)

	for i := 0; i < 5; i++ {
		if !p.Favorable(ctx) {
			t.Fatal("expected favorable")
		}
	}
	if calls := p.pinger.(*fakePinger).calls; calls != 1 {
		t.Fatalf("expected a single probe, got %d", calls)
	}
}

func TestProbePolicy_OfflineEnvWins(t *testing.T) {
	t.Setenv(OfflineEnv, "1")

	p := NewProbePolicy(&fakePinger{}, time.Second)
	if p.Favorable(context.Background()) {
		t.Fatal("env override should force offline")
	}
	if p.pinger.(*fakePinger).calls != 0 {
		t.Fatal("no probe should run when forced offline")
	}
}
