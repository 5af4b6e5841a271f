package comm

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/nats-io/nuid"
	"golang.org/x/sync/errgroup"

	"github.com/arloliu/pactl/internal/logging"
	"github.com/arloliu/pactl/types"
)

// NATSConfig configures the NATS transport.
type NATSConfig struct {
	// SubjectPrefix prefixes the per-endpoint subjects "<prefix>.<session>.<partition>".
	SubjectPrefix string

	// RendezvousBucket is the JetStream KV bucket endpoints register in.
	RendezvousBucket string

	// RendezvousTimeout bounds the wait for all partitions to join.
	RendezvousTimeout time.Duration

	// MaxPayload caps the payload bytes per message (0 = server limit).
	MaxPayload int

	// PoolSize is the number of idle buffers each endpoint keeps.
	PoolSize int

	Logger types.Logger
}

// DefaultNATSConfig returns the transport defaults.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		SubjectPrefix:     "pactl.round",
		RendezvousBucket:  "pactl-rendezvous",
		RendezvousTimeout: 10 * time.Second,
		PoolSize:          16,
	}
}

// NATSTransport runs sessions over NATS subjects. Endpoints of one session may
// live in different processes; they find each other through a JetStream KV
// bucket and exchange one envelope per peer and round.
type NATSTransport struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	cfg    NATSConfig
	logger types.Logger
}

var _ Transport = (*NATSTransport)(nil)

// NewNATS creates a transport over an established connection.
//
// Zero fields of cfg take their DefaultNATSConfig values.
func NewNATS(nc *nats.Conn, cfg NATSConfig) (*NATSTransport, error) {
	if nc == nil {
		return nil, fmt.Errorf("%w: nil NATS connection", types.ErrInvalidConfig)
	}
	def := DefaultNATSConfig()
	if cfg.SubjectPrefix == "" {
		cfg.SubjectPrefix = def.SubjectPrefix
	}
	if cfg.RendezvousBucket == "" {
		cfg.RendezvousBucket = def.RendezvousBucket
	}
	if cfg.RendezvousTimeout <= 0 {
		cfg.RendezvousTimeout = def.RendezvousTimeout
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = def.PoolSize
	}
	if cfg.MaxPayload < 0 {
		return nil, fmt.Errorf("%w: negative max payload", types.ErrInvalidConfig)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	return &NATSTransport{nc: nc, js: js, cfg: cfg, logger: logger}, nil
}

// Open creates a new session and joins all n of its endpoints from this process.
func (t *NATSTransport) Open(ctx context.Context, n int) ([]Comm, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: NATS session of %d partitions", types.ErrNoPartitions, n)
	}

	session := nuid.Next()
	comms := make([]Comm, n)
	eg, egCtx := errgroup.WithContext(ctx)
	for i := range n {
		eg.Go(func() error {
			c, err := t.Join(egCtx, session, types.PartitionID(i), n)
			comms[i] = c
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		for _, c := range comms {
			if c != nil {
				_ = c.Close()
			}
		}

		return nil, err
	}

	return comms, nil
}

// Join connects partition id to session, blocking until all n partitions
// joined or the rendezvous timeout expires.
//
// Every process of a distributed run calls Join with the same session and n.
func (t *NATSTransport) Join(ctx context.Context, session string, id types.PartitionID, n int) (Comm, error) {
	switch {
	case n < 1:
		return nil, fmt.Errorf("%w: NATS session of %d partitions", types.ErrNoPartitions, n)
	case id < 0 || int(id) >= n:
		return nil, fmt.Errorf("%w: partition %d of %d", types.ErrInvalidConfig, id, n)
	case session == "" || strings.ContainsAny(session, ".*> \t\r\n"):
		return nil, fmt.Errorf("%w: invalid session name %q", types.ErrInvalidConfig, session)
	}
	if n == 1 {
		return Noop{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, t.cfg.RendezvousTimeout)
	defer cancel()

	kv, err := rendezvousBucket(ctx, t.js, t.cfg.RendezvousBucket)
	if err != nil {
		return nil, err
	}

	e := &natsEndpoint{
		t:       t,
		id:      id,
		n:       n,
		session: session,
		rv:      &rendezvous{kv: kv, session: session, n: n},
		pool:    NewBufferPool(t.cfg.PoolSize, 0),
		pending: make(map[uint64][]envelope),
		logger:  logging.With(t.logger, "session", session, "partition", id),
	}

	e.sub, err = t.nc.SubscribeSync(t.subject(session, id))
	if err != nil {
		return nil, fmt.Errorf("subscribe partition %d: %w", id, err)
	}
	if err := e.sub.SetPendingLimits(-1, -1); err != nil {
		_ = e.sub.Unsubscribe()
		return nil, err
	}
	// the subscription must be live on the server before peers learn about it
	if err := t.nc.FlushWithContext(ctx); err != nil {
		_ = e.sub.Unsubscribe()
		return nil, fmt.Errorf("flush subscription: %w", err)
	}

	if err := e.rv.register(ctx, id, e.sub.Subject); err != nil {
		_ = e.sub.Unsubscribe()
		return nil, err
	}
	e.registered = true
	e.logger.Debug("registered in rendezvous", "bucket", t.cfg.RendezvousBucket)

	if err := e.rv.await(ctx); err != nil {
		_ = e.Close()
		return nil, err
	}
	e.logger.Debug("all partitions joined", "partitions", n)

	return e, nil
}

func (t *NATSTransport) subject(session string, id types.PartitionID) string {
	return t.cfg.SubjectPrefix + "." + session + "." + strconv.Itoa(int(id))
}

// chunkSize is the payload budget of one envelope.
func (t *NATSTransport) chunkSize() int {
	limit := int(t.nc.MaxPayload()) - envelopeOverhead
	if t.cfg.MaxPayload > 0 && t.cfg.MaxPayload < limit {
		limit = t.cfg.MaxPayload
	}

	return max(limit, 1)
}

type natsEndpoint struct {
	t       *NATSTransport
	id      types.PartitionID
	n       int
	session string
	rv      *rendezvous
	sub     *nats.Subscription
	pool    *BufferPool
	logger  types.Logger

	round      uint64
	pending    map[uint64][]envelope // envelopes of later rounds
	registered bool
	closed     bool
	failed     error
}

var _ Comm = (*natsEndpoint)(nil)

func (e *natsEndpoint) ID() types.PartitionID { return e.id }
func (e *natsEndpoint) Size() int             { return e.n }

// Synchronize runs one round: every endpoint publishes its outbound buffer for
// each peer, then collects the final envelope of every peer.
func (e *natsEndpoint) Synchronize(ctx context.Context, p Participant) (delivered bool, err error) {
	switch {
	case e.closed:
		return false, types.ErrTransportClosed
	case e.failed != nil:
		return false, e.failed
	}
	defer func() {
		if err != nil {
			e.fail(err)
		}
	}()
	if err := ctx.Err(); err != nil {
		return false, err
	}

	e.round++

	// gather first: each envelope announces whether the sender sent anything at all
	out := make([][]byte, e.n)
	sentAny := false
	for peer := range e.n {
		if peer == int(e.id) {
			continue
		}
		out[peer] = p.Outbound(types.PartitionID(peer), e.pool.Get())
		sentAny = sentAny || len(out[peer]) > 0
	}
	for peer, buf := range out {
		if peer == int(e.id) {
			continue
		}
		if err := e.publish(types.PartitionID(peer), buf, sentAny); err != nil {
			return false, err
		}
		e.pool.Put(buf)
	}

	return e.collect(ctx, p, sentAny)
}

// publish sends buf to peer, split into envelopes of at most chunkSize bytes.
func (e *natsEndpoint) publish(peer types.PartitionID, buf []byte, sentAny bool) error {
	subject := e.t.subject(e.session, peer)
	chunk := e.t.chunkSize()
	msg := e.pool.Get()
	defer func() { e.pool.Put(msg) }()

	for {
		part := buf[:min(len(buf), chunk)]
		buf = buf[len(part):]
		env := envelope{round: e.round, from: e.id, sentAny: sentAny, payload: part, final: len(buf) == 0}
		msg = env.append(msg[:0])
		if err := e.t.nc.Publish(subject, msg); err != nil {
			return fmt.Errorf("publish round %d to partition %d: %w", e.round, peer, err)
		}
		if env.final {
			return nil
		}
	}
}

// collect receives the envelopes of the current round and applies them.
func (e *natsEndpoint) collect(ctx context.Context, p Participant, sentAny bool) (bool, error) {
	parts := make([][]byte, e.n)
	done := make([]bool, e.n)
	done[e.id] = true
	remaining := e.n - 1
	delivered := sentAny

	accept := func(env envelope) error {
		from := env.from
		if done[from] {
			return fmt.Errorf("%w: duplicate envelope from partition %d in round %d",
				types.ErrProtocolViolation, from, e.round)
		}
		parts[from] = append(parts[from], env.payload...)
		if !env.final {
			return nil
		}
		done[from] = true
		remaining--
		delivered = delivered || env.sentAny
		if len(parts[from]) == 0 {
			return nil
		}
		if err := p.Inbound(from, parts[from]); err != nil {
			return fmt.Errorf("partition %d: apply deltas from %d: %w", e.id, from, err)
		}

		return nil
	}

	for _, env := range e.pending[e.round] {
		if err := accept(env); err != nil {
			return false, err
		}
	}
	delete(e.pending, e.round)

	for remaining > 0 {
		msg, err := e.sub.NextMsgWithContext(ctx)
		if err != nil {
			return false, fmt.Errorf("round %d: %w", e.round, err)
		}
		env, err := parseEnvelope(msg.Data)
		if err != nil {
			return false, err
		}
		if env.from < 0 || int(env.from) >= e.n || env.from == e.id {
			return false, fmt.Errorf("%w: envelope from partition %d", types.ErrProtocolViolation, env.from)
		}
		if env.abort != "" {
			return false, fmt.Errorf("%w: partition %d aborted: %s", types.ErrBarrierBroken, env.from, env.abort)
		}

		switch {
		case env.round == e.round:
			if err := accept(env); err != nil {
				return false, err
			}
		case env.round > e.round:
			e.pending[env.round] = append(e.pending[env.round], env)
		default:
			return false, fmt.Errorf("%w: envelope of round %d from partition %d during round %d",
				types.ErrProtocolViolation, env.round, env.from, e.round)
		}
	}

	return delivered, nil
}

// fail marks the endpoint broken and tells the peers, unless the failure came
// from a peer in the first place.
func (e *natsEndpoint) fail(cause error) {
	if e.failed != nil {
		return
	}
	e.failed = fmt.Errorf("%w: %w", types.ErrBarrierBroken, cause)
	if errors.Is(cause, types.ErrBarrierBroken) {
		e.failed = cause
		return
	}

	e.logger.Warn("aborting session", "round", e.round, "error", cause)
	env := envelope{round: e.round, from: e.id, final: true, abort: cause.Error()}
	msg := env.append(nil)
	for peer := range e.n {
		if peer != int(e.id) {
			_ = e.t.nc.Publish(e.t.subject(e.session, types.PartitionID(peer)), msg)
		}
	}
}

// Close unsubscribes and leaves the rendezvous. Envelopes buffered for a round
// that never ran indicate that the peers disagreed on the number of rounds.
func (e *natsEndpoint) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true

	var errs []error
	if err := e.sub.Unsubscribe(); err != nil && !errors.Is(err, nats.ErrConnectionClosed) {
		errs = append(errs, fmt.Errorf("unsubscribe: %w", err))
	}
	if e.registered {
		ctx, cancel := context.WithTimeout(context.Background(), e.t.cfg.RendezvousTimeout)
		defer cancel()
		if err := e.rv.leave(ctx, e.id); err != nil {
			errs = append(errs, fmt.Errorf("leave rendezvous: %w", err))
		}
	}
	if len(e.pending) > 0 && e.failed == nil {
		errs = append(errs, fmt.Errorf("%w: closed with envelopes of %d future rounds buffered",
			types.ErrProtocolViolation, len(e.pending)))
	}

	return errors.Join(errs...)
}
