package testutil

import (
	"context"
	"sync"

	"github.com/roach88/santa/internal/notify"
)

// Call is one recorded Deliver.
type Call struct {
	Participant string
	Msg         notify.Message
}

// Gateway records every delivery and fails the participants it was told to.
type Gateway struct {
	mu     sync.Mutex
	calls  []Call
	fail   map[string]error
	onCall func(participant string)
}

// NewGateway returns a Gateway that delivers everything.
func NewGateway() *Gateway {
	return &Gateway{fail: map[string]error{}}
}

// Fail makes every later delivery to participant return err.
// A nil err makes deliveries succeed again.
func (g *Gateway) Fail(participant string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		delete(g.fail, participant)
		return
	}
	g.fail[participant] = err
}

// OnCall sets a hook run at the start of every Deliver, outside the lock.
// Tests use it to block a fan-out midway.
func (g *Gateway) OnCall(fn func(participant string)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onCall = fn
}

// Deliver records the call. Failed deliveries are recorded too.
func (g *Gateway) Deliver(_ context.Context, participant string, msg notify.Message) error {
	g.mu.Lock()
	hook := g.onCall
	g.mu.Unlock()
	if hook != nil {
		hook(participant)
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, Call{Participant: participant, Msg: msg})
	return g.fail[participant]
}

// Calls returns every recorded call in order.
func (g *Gateway) Calls() []Call {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]Call(nil), g.calls...)
}

// CallsTo returns how many deliveries were attempted to participant.
func (g *Gateway) CallsTo(participant string) int {
	n := 0
	for _, c := range g.Calls() {
		if c.Participant == participant {
			n++
		}
	}
	return n
}

// Reset forgets every recorded call. Failures and the hook are kept.
func (g *Gateway) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = nil
}
