package scangate

import (
	"context"
	"sync"
	"time"
)

// Clock abstracts time for the cooldown window so tests can drive it.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// Result is what a check-in attempt resolved to.
type Result struct {
	GuestName  string
	IsNewEntry bool
	Message    string
}

// CheckInClient forwards an accepted credential to the check-in backend.
type CheckInClient interface {
	CheckIn(ctx context.Context, credential string) (Result, error)
}

const defaultCooldown = 3000 * time.Millisecond

// Gate sits between a scanner feed and the check-in backend and drops
// duplicate reads. Hardware scanners emit the same code many times per
// second while it is in frame; without the gate every frame would become
// a request and every request after the first a "already checked in"
// warning.
//
// Suppression is keyed on the credential value alone. Once a credential
// is accepted, identical reads are dropped until the cooldown elapses,
// regardless of how the forwarded request turns out. A failed request
// does not reopen the window: the next attempt for the same credential
// waits out the cooldown like any other repeat.
type Gate struct {
	client   CheckInClient
	notifier *Notifier
	clock    Clock
	cooldown time.Duration

	// refresh, when set, runs after every resolved check-in so the
	// station can update its attendance counters.
	refresh func()

	mu             sync.Mutex
	stopped        bool
	lastPayload    string
	lastAcceptedAt time.Time
	haveLast       bool

	// issued maps a credential to the sequence number of its most
	// recently forwarded request. A response whose sequence no longer
	// matches lost the race to a newer scan and is discarded.
	nextSeq uint64
	issued  map[string]uint64

	wg sync.WaitGroup
}

func NewGate(client CheckInClient, notifier *Notifier, opts ...GateOption) *Gate {
	g := &Gate{
		client:   client,
		notifier: notifier,
		clock:    systemClock{},
		cooldown: defaultCooldown,
		issued:   make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type GateOption func(*Gate)

func WithClock(c Clock) GateOption {
	return func(g *Gate) { g.clock = c }
}

func WithCooldown(d time.Duration) GateOption {
	return func(g *Gate) { g.cooldown = d }
}

// WithRefresh registers a hook run after each check-in attempt resolves.
func WithRefresh(fn func()) GateOption {
	return func(g *Gate) { g.refresh = fn }
}

// Observe feeds one scanner read into the gate. It returns true if the
// read was accepted and forwarded, false if it was dropped (empty
// payload or a repeat inside the cooldown window).
//
// The suppression state is updated before the forward is started, so a
// burst of identical reads cannot race past the gate while the first
// request is still in flight.
func (g *Gate) Observe(ctx context.Context, payload string) bool {
	if payload == "" {
		// Decode failures surface as empty reads. Dropping them keeps
		// a misread frame from clearing an active notification.
		return false
	}

	g.mu.Lock()
	if g.stopped {
		g.mu.Unlock()
		return false
	}
	now := g.clock.Now()
	if g.haveLast && payload == g.lastPayload && now.Sub(g.lastAcceptedAt) < g.cooldown {
		g.mu.Unlock()
		return false
	}
	g.lastPayload = payload
	g.lastAcceptedAt = now
	g.haveLast = true

	g.nextSeq++
	seq := g.nextSeq
	g.issued[payload] = seq
	g.mu.Unlock()

	g.notifier.Show(KindProcessing, "⏳", "Verifying entry...")

	g.wg.Add(1)
	go g.forward(ctx, payload, seq)
	return true
}

func (g *Gate) forward(ctx context.Context, payload string, seq uint64) {
	defer g.wg.Done()

	res, err := g.client.CheckIn(ctx, payload)

	g.mu.Lock()
	stale := g.issued[payload] != seq
	g.mu.Unlock()
	if stale {
		// A newer scan of the same credential is in flight; its
		// response owns the notification area now.
		return
	}

	switch {
	case err != nil:
		g.notifier.Show(KindError, "❌", err.Error())
	case res.IsNewEntry:
		g.notifier.Show(KindSuccess, "✅", res.Message)
	default:
		g.notifier.Show(KindWarning, "⚠️", res.Message)
	}

	if g.refresh != nil {
		g.refresh()
	}
}

// Stop detaches the gate from its payload source: further Observe calls
// are dropped. In-flight forwards are not cancelled; their completions
// still apply (or are discarded by the sequence check) when they arrive.
func (g *Gate) Stop() {
	g.mu.Lock()
	g.stopped = true
	g.mu.Unlock()
}

// Wait blocks until all in-flight forwards have resolved. Call it before
// shutdown so the last scan's outcome is still reported.
func (g *Gate) Wait() {
	g.wg.Wait()
}
