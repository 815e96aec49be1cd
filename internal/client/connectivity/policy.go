// Package connectivity decides whether a remote call is worth attempting.
// The upstream implementation sniffed user agents and hostnames; here the
// policy is an explicit capability the host environment supplies, so the
// sync logic is testable without faking network globals.
//
// A policy is advisory only: callers still wrap every remote call so that
// failures degrade the session to offline mode instead of propagating.
package connectivity

import (
	"context"
	"os"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// OfflineEnv forces offline mode when set to a non-empty value, the
// moral equivalent of the original local-development check.
const OfflineEnv = "MYLIST_OFFLINE"

// Policy reports whether going to the network is currently favorable.
type Policy interface {
	Favorable(ctx context.Context) bool
}

// PolicyFunc adapts a plain function to a Policy.
type PolicyFunc func(ctx context.Context) bool

func (f PolicyFunc) Favorable(ctx context.Context) bool { return f(ctx) }

// Always reports the network as favorable. Never reports it as not.
var (
	Always Policy = PolicyFunc(func(context.Context) bool { return true })
	Never  Policy = PolicyFunc(func(context.Context) bool { return false })
)

// Pinger is the probe surface a ProbePolicy needs; the api.Client
// satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProbePolicy judges favorability by probing the server's health
// endpoint. Probes are rate-limited: between probes the last verdict is
// reused, so a burst of operations costs at most one network round trip.
type ProbePolicy struct {
	pinger  Pinger
	timeout time.Duration
	limiter *rate.Limiter

	mu   sync.Mutex
	last bool
}

// NewProbePolicy builds a policy probing at most once per interval.
func NewProbePolicy(p Pinger, interval time.Duration) *ProbePolicy {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &ProbePolicy{
		pinger:  p,
		timeout: 2 * time.Second,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

func (p *ProbePolicy) Favorable(ctx context.Context) bool {
	if os.Getenv(OfflineEnv) != "" {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.limiter.Allow() {
		return p.last
	}

	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	p.last = p.pinger.Ping(probeCtx) == nil
	return p.last
}
