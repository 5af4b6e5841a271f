// Package barrier provides a reusable (cyclic) barrier that can be broken.
//
// A broken barrier releases every waiting party with ErrBarrierBroken and stays
// broken, so a participant that fails mid-round cannot leave its peers blocked.
package barrier

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/arloliu/pactl/types"
)

// Barrier synchronizes a fixed number of parties over repeated rounds.
type Barrier struct {
	mu      sync.Mutex
	parties int
	waiting int
	gen     *generation
	cause   error
}

type generation struct {
	done chan struct{}
	err  error
}

// New creates a barrier for parties participants. Values below 1 are treated as 1.
func New(parties int) *Barrier {
	return &Barrier{
		parties: max(parties, 1),
		gen:     &generation{done: make(chan struct{})},
	}
}

// Parties returns the number of participants.
func (b *Barrier) Parties() int {
	return b.parties
}

// Await blocks until all parties called Await for the current round.
//
// It returns an error wrapping types.ErrBarrierBroken when the barrier is or
// becomes broken. A cancelled ctx breaks the barrier for everyone.
func (b *Barrier) Await(ctx context.Context) error {
	b.mu.Lock()
	if b.cause != nil {
		err := b.brokenErr()
		b.mu.Unlock()

		return err
	}

	g := b.gen
	b.waiting++
	if b.waiting == b.parties {
		b.waiting = 0
		b.gen = &generation{done: make(chan struct{})}
		close(g.done)
		b.mu.Unlock()

		return nil
	}
	b.mu.Unlock()

	select {
	case <-g.done:
		return g.err
	case <-ctx.Done():
		b.Break(ctx.Err())

		// the round may have completed or been broken concurrently
		<-g.done

		return g.err
	}
}

// Break breaks the barrier with cause. Only the first cause is kept.
func (b *Barrier) Break(cause error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cause != nil {
		return
	}
	if cause == nil {
		cause = errors.New("broken without cause")
	}
	b.cause = cause

	g := b.gen
	g.err = b.brokenErr()
	b.waiting = 0
	close(g.done)
}

// Err returns the cause the barrier was broken with, or nil.
func (b *Barrier) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.cause
}

func (b *Barrier) brokenErr() error {
	return fmt.Errorf("%w: %w", types.ErrBarrierBroken, b.cause)
}
