package comm

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/pactl/types"
)

// rendezvousTTL bounds how long registrations of crashed sessions linger.
const rendezvousTTL = time.Hour

// rendezvousRetry is the pause between attempts to obtain the bucket.
const rendezvousRetry = 25 * time.Millisecond

// rendezvousBucket opens the KV bucket in which partitions register, creating
// it on first use. Partitions of a new session usually join at the same moment
// and race to create it; a loser opens the winner's bucket on its next attempt.
// Failures are retried until ctx, which carries the rendezvous timeout, ends.
func rendezvousBucket(ctx context.Context, js jetstream.JetStream, bucket string) (jetstream.KeyValue, error) {
	var lastErr error
	for {
		kv, err := js.KeyValue(ctx, bucket)
		if errors.Is(err, jetstream.ErrBucketNotFound) {
			kv, err = js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
				Bucket:      bucket,
				Description: "pactl session rendezvous",
				Storage:     jetstream.MemoryStorage,
				TTL:         rendezvousTTL,
			})
		}
		switch {
		case err == nil:
			return kv, nil
		case errors.Is(err, jetstream.ErrJetStreamNotEnabled):
			return nil, fmt.Errorf("rendezvous bucket %s: %w", bucket, err)
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("rendezvous bucket %s: %w (last error: %v)", bucket, ctx.Err(), lastErr)
		case <-time.After(rendezvousRetry):
		}
	}
}

// rendezvous tracks the endpoints of one session in a KV bucket. Every endpoint
// registers the key "<session>.<partition>" once its subscription is live.
type rendezvous struct {
	kv      jetstream.KeyValue
	session string
	n       int
}

func (r *rendezvous) key(id types.PartitionID) string {
	return r.session + "." + strconv.Itoa(int(id))
}

// register announces id. A second endpoint for the same partition is rejected.
func (r *rendezvous) register(ctx context.Context, id types.PartitionID, subject string) error {
	if _, err := r.kv.Create(ctx, r.key(id), []byte(subject)); err != nil {
		if errors.Is(err, jetstream.ErrKeyExists) {
			return fmt.Errorf("%w: partition %d joined session %s twice", types.ErrProtocolViolation, id, r.session)
		}

		return fmt.Errorf("register partition %d: %w", id, err)
	}

	return nil
}

// await blocks until all n partitions registered.
func (r *rendezvous) await(ctx context.Context) error {
	w, err := r.kv.Watch(ctx, r.session+".*")
	if err != nil {
		return fmt.Errorf("watch session %s: %w", r.session, err)
	}
	defer func() { _ = w.Stop() }()

	joined := make(map[int]struct{}, r.n)
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("session %s: %d of %d partitions joined: %w", r.session, len(joined), r.n, ctx.Err())
		case entry, ok := <-w.Updates():
			if !ok {
				return fmt.Errorf("session %s: rendezvous watcher stopped", r.session)
			}
			if entry == nil {
				// end of initial values
				continue
			}
			id, err := strconv.Atoi(strings.TrimPrefix(entry.Key(), r.session+"."))
			if err != nil || id < 0 || id >= r.n {
				return fmt.Errorf("%w: unexpected rendezvous key %q", types.ErrProtocolViolation, entry.Key())
			}
			if entry.Operation() == jetstream.KeyValuePut {
				joined[id] = struct{}{}
			}
			if len(joined) == r.n {
				return nil
			}
		}
	}
}

// leave removes the registration of id.
func (r *rendezvous) leave(ctx context.Context, id types.PartitionID) error {
	return r.kv.Delete(ctx, r.key(id))
}
