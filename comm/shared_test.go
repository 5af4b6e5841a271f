package comm

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/pactl/types"
)

// scripted sends one message to each peer for the first rounds and records
// what it receives.
type scripted struct {
	id      types.PartitionID
	rounds  int
	sent    int
	mu      sync.Mutex
	got     []string
	failOn  string
	perPeer map[types.PartitionID]int
}

func (p *scripted) Outbound(peer types.PartitionID, buf []byte) []byte {
	if p.perPeer == nil {
		p.perPeer = make(map[types.PartitionID]int)
	}
	if p.perPeer[peer] >= p.rounds {
		return buf
	}
	p.perPeer[peer]++

	return fmt.Appendf(buf, "%d->%d#%d", p.id, peer, p.perPeer[peer])
}

func (p *scripted) Inbound(from types.PartitionID, buf []byte) error {
	msg := string(buf)
	if msg == p.failOn {
		return errors.New("rejected " + msg)
	}
	p.mu.Lock()
	p.got = append(p.got, fmt.Sprintf("%d:%s", from, msg))
	p.mu.Unlock()

	return nil
}

func runSession(ctx context.Context, comms []Comm, parts []*scripted) ([]int, error) {
	rounds := make([]int, len(comms))
	eg, egCtx := errgroup.WithContext(ctx)
	for i, c := range comms {
		eg.Go(func() error {
			for {
				delivered, err := c.Synchronize(egCtx, parts[i])
				if err != nil {
					return err
				}
				rounds[i]++
				if !delivered {
					return nil
				}
			}
		})
	}

	return rounds, eg.Wait()
}

func TestShared_Rounds(t *testing.T) {
	const n = 4
	comms, err := NewShared(SharedConfig{PoolSize: 2}).Open(context.Background(), n)
	require.NoError(t, err)
	require.Len(t, comms, n)

	parts := make([]*scripted, n)
	for i := range parts {
		require.Equal(t, types.PartitionID(i), comms[i].ID())
		require.Equal(t, n, comms[i].Size())
		// partition i keeps sending for i rounds
		parts[i] = &scripted{id: types.PartitionID(i), rounds: i}
	}

	rounds, err := runSession(context.Background(), comms, parts)
	require.NoError(t, err)

	// every partition observes the same number of rounds: n-1 delivering plus one quiet
	for _, r := range rounds {
		require.Equal(t, n, r)
	}
	for i, p := range parts {
		expected := 0
		for j := range n {
			if j != i {
				expected += j
			}
		}
		require.Len(t, p.got, expected, "partition %d", i)
	}
	require.Contains(t, parts[0].got, "3:3->0#3")

	for _, c := range comms {
		require.NoError(t, c.Close())
	}
}

func TestShared_SinglePartition(t *testing.T) {
	comms, err := NewShared(SharedConfig{}).Open(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, []Comm{Noop{}}, comms)

	delivered, err := comms[0].Synchronize(context.Background(), &scripted{rounds: 5})
	require.NoError(t, err)
	require.False(t, delivered)
}

func TestShared_InvalidSize(t *testing.T) {
	_, err := NewShared(SharedConfig{}).Open(context.Background(), 0)
	require.ErrorIs(t, err, types.ErrNoPartitions)
}

func TestShared_InboundFailureBreaksSession(t *testing.T) {
	const n = 3
	comms, err := NewShared(SharedConfig{}).Open(context.Background(), n)
	require.NoError(t, err)

	parts := make([]*scripted, n)
	for i := range parts {
		parts[i] = &scripted{id: types.PartitionID(i), rounds: 3}
	}
	parts[2].failOn = "0->2#2"

	_, err = runSession(context.Background(), comms, parts)
	require.Error(t, err)
	require.ErrorContains(t, err, "rejected 0->2#2")
}

func TestShared_CloseUnblocksPeers(t *testing.T) {
	comms, err := NewShared(SharedConfig{}).Open(context.Background(), 2)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := comms[0].Synchronize(context.Background(), &scripted{})
		done <- err
	}()

	require.NoError(t, comms[1].Close())
	err = <-done
	require.ErrorIs(t, err, types.ErrBarrierBroken)
	require.ErrorIs(t, err, types.ErrTransportClosed)

	_, err = comms[1].Synchronize(context.Background(), &scripted{})
	require.ErrorIs(t, err, types.ErrTransportClosed)
}

func TestShared_ContextCancel(t *testing.T) {
	comms, err := NewShared(SharedConfig{}).Open(context.Background(), 2)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = comms[0].Synchronize(ctx, &scripted{})
	require.Error(t, err)

	// the broken session fails the peer as well
	_, err = comms[1].Synchronize(context.Background(), &scripted{})
	require.ErrorIs(t, err, types.ErrBarrierBroken)
}

func TestNoop(t *testing.T) {
	var c Comm = Noop{}
	require.Equal(t, types.PartitionID(0), c.ID())
	require.Equal(t, 1, c.Size())
	require.NoError(t, c.Close())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Synchronize(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestBufferPool(t *testing.T) {
	p := NewBufferPool(2, 16)
	require.Nil(t, p.Get())

	p.Put(make([]byte, 4, 8))
	p.Put(make([]byte, 4, 8))
	p.Put(make([]byte, 4, 8)) // over limit
	require.Equal(t, 2, p.Idle())

	p.Put(make([]byte, 0, 64)) // too large
	require.Equal(t, 2, p.Idle())

	buf := p.Get()
	require.Empty(t, buf)
	require.Equal(t, 8, cap(buf))
	require.Equal(t, 1, p.Idle())
}
