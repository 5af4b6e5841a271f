package pactl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/arloliu/pactl/comm"
	"github.com/arloliu/pactl/fixpoint"
	"github.com/arloliu/pactl/formula"
	"github.com/arloliu/pactl/internal/hooks"
	"github.com/arloliu/pactl/internal/logging"
	"github.com/arloliu/pactl/internal/metrics"
	"github.com/arloliu/pactl/solver"
	"github.com/arloliu/pactl/types"
)

// Checker verifies formulas over a partitioned transition system.
//
// Every Verify call opens a new transport session with one endpoint per
// partition and evaluates each partition on its own goroutine. A Checker may be
// used by several goroutines; their Verify calls run independent sessions.
type Checker[C any] struct {
	cfg       Config
	fragments []Fragment[C]
	solvers   []Solver[C]
	owned     [][]State
	states    int

	transport comm.Transport
	hooks     types.Hooks
	metrics   MetricsCollector
	logger    Logger
}

// NewChecker creates a checker for the given partitions.
//
// fragments[i] must be the fragment of partition i and all fragments must
// describe the same state space. solvers holds one solver per partition, or a
// single solver shared by all of them, which is then wrapped with
// solver.Synchronized. Results are homed in the first solver.
//
// Of cfg the checker reads MaxRounds, BufferPoolSize and Transport. The work
// pool fields (Parallelism, BatchTarget and the chunk sizes) are validated so
// one Config serves both entry points, but only FindTerminalComponents uses them.
//
// Parameters:
//   - fragments: One fragment per partition, indexed by partition id
//   - solvers: One solver per partition, or exactly one shared solver
//   - cfg: Configuration (nil means DefaultConfig); missing values are defaulted
//   - opts: Optional dependencies (logger, metrics, hooks, transport)
//
// Returns:
//   - *Checker[C]: The checker
//   - error: ErrNoPartitions, ErrFragmentMismatch or a configuration error
//
// Example:
//
//	fragments, _ := g.Fragments(pf)
//	checker, err := pactl.NewChecker(fragments, []pactl.Solver[bitset.Colors]{s}, nil)
func NewChecker[C any](fragments []Fragment[C], solvers []Solver[C], cfg *Config, opts ...Option) (*Checker[C], error) {
	if len(fragments) == 0 {
		return nil, ErrNoPartitions
	}

	config := DefaultConfig()
	if cfg != nil {
		config = *cfg
	}
	SetDefaults(&config)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	options := &checkerOptions{}
	for _, opt := range opts {
		opt(options)
	}

	metricsCollector := options.metrics
	if metricsCollector == nil {
		metricsCollector = metrics.NewNop()
	}

	loggerInstance := options.logger
	if loggerInstance == nil {
		loggerInstance = logging.NewNop()
	}

	config.ValidateWithWarnings(loggerInstance)

	if err := validateFragments(fragments); err != nil {
		return nil, err
	}

	partitionSolvers, err := distributeSolvers(solvers, len(fragments))
	if err != nil {
		return nil, err
	}

	transport := options.transport
	if transport == nil && options.nc != nil {
		transport, err = comm.NewNATS(options.nc, config.natsConfig(loggerInstance))
		if err != nil {
			return nil, err
		}
	}
	if transport == nil {
		transport = comm.NewShared(comm.SharedConfig{PoolSize: config.BufferPoolSize})
	}

	c := &Checker[C]{
		cfg:       config,
		fragments: fragments,
		solvers:   partitionSolvers,
		owned:     make([][]State, len(fragments)),
		states:    fragments[0].StateCount(),
		transport: transport,
		hooks:     hooks.Complete(options.hooks),
		metrics:   metricsCollector,
		logger:    loggerInstance,
	}
	for i, f := range fragments {
		c.owned[i] = types.OwnedStates(f)
	}

	return c, nil
}

func validateFragments[C any](fragments []Fragment[C]) error {
	n := len(fragments)
	states := -1
	for i, f := range fragments {
		if f == nil {
			return fmt.Errorf("%w: fragment %d is nil", ErrFragmentMismatch, i)
		}
		if int(f.ID()) != i {
			return fmt.Errorf("%w: fragment at index %d has id %d", ErrFragmentMismatch, i, f.ID())
		}
		if size := f.Partition().Size(); size != n {
			return fmt.Errorf("%w: fragment %d expects %d partitions, got %d fragments",
				ErrFragmentMismatch, i, size, n)
		}
		if states >= 0 && f.StateCount() != states {
			return fmt.Errorf("%w: fragment %d has %d states, fragment 0 has %d",
				ErrFragmentMismatch, i, f.StateCount(), states)
		}
		states = f.StateCount()
	}

	return nil
}

func distributeSolvers[C any](solvers []Solver[C], n int) ([]Solver[C], error) {
	switch {
	case len(solvers) == 1:
		shared := solvers[0]
		if shared == nil {
			return nil, fmt.Errorf("%w: nil solver", ErrInvalidConfig)
		}
		if n > 1 {
			shared = solver.NewSynchronized(shared)
		}
		out := make([]Solver[C], n)
		for i := range out {
			out[i] = shared
		}

		return out, nil
	case len(solvers) == n:
		for i, s := range solvers {
			if s == nil {
				return nil, fmt.Errorf("%w: solver %d is nil", ErrInvalidConfig, i)
			}
		}

		return solvers, nil
	default:
		return nil, fmt.Errorf("%w: %d solvers for %d partitions", ErrInvalidConfig, len(solvers), n)
	}
}

// Partitions returns the number of partitions.
func (c *Checker[C]) Partitions() int {
	return len(c.fragments)
}

// StateCount returns the number of states of the transition system.
func (c *Checker[C]) StateCount() int {
	return c.states
}

// Solver returns the solver results are homed in.
func (c *Checker[C]) Solver() Solver[C] {
	return c.solvers[0]
}

// Verify evaluates f on every state.
//
// f is normalized first; it must be closed, i.e. every state variable must be
// bound by a Bind, Exists or Forall. Sub-formulas that occur several times are
// evaluated once.
//
// Parameters:
//   - ctx: Context for cancellation; cancelling it breaks the running session
//   - f: The formula to verify
//
// Returns:
//   - *Result[C]: Colors per state for which f holds
//   - error: Evaluation error; no partial results are returned
func (c *Checker[C]) Verify(ctx context.Context, f formula.Formula) (*Result[C], error) {
	results, err := c.VerifyAll(ctx, f)
	if err != nil {
		return nil, err
	}

	return results[0], nil
}

// VerifyAll evaluates several formulas in one session.
//
// The formulas share the session and the sub-formula cache, so common
// sub-formulas are evaluated once for all of them.
//
// Returns:
//   - []*Result[C]: One result per formula, in order
//   - error: The first evaluation error
func (c *Checker[C]) VerifyAll(ctx context.Context, fs ...formula.Formula) (results []*Result[C], err error) {
	started := time.Now()
	defer func() {
		c.metrics.RecordVerify(time.Since(started).Seconds(), err == nil)
		if err != nil {
			c.logger.Error("verification failed", "formulas", len(fs), "error", err)
			if hookErr := c.hooks.OnError(ctx, err); hookErr != nil {
				c.logger.Warn("OnError hook failed", "error", hookErr)
			}
		}
	}()

	normalized := make([]formula.Formula, len(fs))
	for i, f := range fs {
		if f == nil {
			return nil, fmt.Errorf("%w: nil formula", ErrUnsupportedFormula)
		}
		n := formula.Normalize(f)
		if free := formula.FreeVariables(n); len(free) > 0 {
			return nil, fmt.Errorf("%w: %v in %s", ErrUnboundVariable, free, f)
		}
		normalized[i] = n
	}

	c.logger.Debug("verification started", "formulas", len(fs), "partitions", len(c.fragments))

	v, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	defer v.close()

	results = make([]*Result[C], 0, len(fs))
	for _, f := range normalized {
		fStarted := time.Now()
		evaluated, hits := v.evaluated, v.hits

		perPartition, err := v.eval(ctx, f)
		if err != nil {
			return nil, err
		}
		states, err := c.merge(perPartition)
		if err != nil {
			return nil, err
		}

		r := &Result[C]{
			Formula:   f,
			States:    states,
			Solver:    c.solvers[0],
			Duration:  time.Since(fStarted),
			Evaluated: v.evaluated - evaluated,
			CacheHits: v.hits - hits,
		}
		c.logger.Info("formula verified",
			"formula", f.String(),
			"states", len(r.States),
			"evaluated", r.Evaluated,
			"cacheHits", r.CacheHits,
			"duration", r.Duration)
		results = append(results, r)
	}

	return results, nil
}

// merge collects the owned entries of every partition into the first solver.
func (c *Checker[C]) merge(perPartition []StateMap[C]) (StateMap[C], error) {
	home := c.solvers[0]
	out := make(StateMap[C])
	for i, m := range perPartition {
		for s, colors := range m {
			if c.fragments[i].Partition().Owner(s) != PartitionID(i) {
				return nil, fmt.Errorf("%w: partition %d returned state %d it does not own",
					ErrInvariantViolation, i, s)
			}
			if i > 0 {
				moved, err := c.solvers[i].TransferTo(colors, home)
				if err != nil {
					return nil, fmt.Errorf("transfer state %d from partition %d: %w", s, i, err)
				}
				colors = moved
			}
			out[s] = colors
		}
	}

	return out, nil
}

// verification is the state of one session: the partition environments and the
// sub-formula cache shared by all formulas evaluated in it.
type verification[C any] struct {
	c     *Checker[C]
	comms []comm.Comm
	envs  []*fixpoint.Env[C]
	cache map[string][]StateMap[C]

	evaluated int
	hits      int
}

func (c *Checker[C]) open(ctx context.Context) (*verification[C], error) {
	n := len(c.fragments)
	comms, err := c.transport.Open(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	if len(comms) != n {
		for _, cm := range comms {
			_ = cm.Close()
		}

		return nil, fmt.Errorf("%w: transport opened %d endpoints for %d partitions",
			ErrCommSizeMismatch, len(comms), n)
	}

	v := &verification[C]{
		c:     c,
		comms: comms,
		envs:  make([]*fixpoint.Env[C], n),
		cache: make(map[string][]StateMap[C]),
	}
	for i := range n {
		v.envs[i] = &fixpoint.Env[C]{
			Fragment:  c.fragments[i],
			Solver:    c.solvers[i],
			Comm:      comms[i],
			Logger:    c.logger,
			Metrics:   c.metrics,
			MaxRounds: c.cfg.MaxRounds,
		}
		if err := v.envs[i].Validate(); err != nil {
			v.close()
			return nil, err
		}
	}
	c.logger.Debug("session opened", "partitions", n, "states", c.states)

	return v, nil
}

func (v *verification[C]) close() {
	errs := make([]error, 0, len(v.comms))
	for _, cm := range v.comms {
		errs = append(errs, cm.Close())
	}
	if err := errors.Join(errs...); err != nil {
		v.c.logger.Warn("closing session failed", "error", err)
	}
}

// eval returns the value of the closed formula f on every partition.
func (v *verification[C]) eval(ctx context.Context, f formula.Formula) ([]StateMap[C], error) {
	if cached, ok := v.cache[formula.Key(f)]; ok {
		v.hit()
		return cached, nil
	}

	g, err := newOpGraph(f)
	if err != nil {
		return nil, err
	}

	values := make([][]StateMap[C], len(g.nodes))
	for i, node := range g.nodes {
		if cached, ok := v.cache[node.key]; ok {
			v.hit()
			values[i] = cached
			continue
		}

		started := time.Now()
		var value []StateMap[C]
		if node.kind == opHybrid {
			value, err = v.expand(ctx, node.f)
		} else {
			value, err = v.parallel(ctx, func(ctx context.Context, p int) (StateMap[C], error) {
				return v.evalNode(ctx, p, node, values)
			})
		}
		if err != nil {
			return nil, fmt.Errorf("evaluate %s: %w", node.key, err)
		}
		elapsed := time.Since(started)

		v.cache[node.key] = value
		values[i] = value
		v.evaluated++

		if node.kind == opLocal {
			v.c.metrics.RecordOperatorDuration(localOpName(node.f), elapsed.Seconds())
		}
		if hookErr := v.c.hooks.OnFormulaEvaluated(ctx, node.key, elapsed); hookErr != nil {
			v.c.logger.Warn("OnFormulaEvaluated hook failed", "formula", node.key, "error", hookErr)
		}
	}

	return values[len(values)-1], nil
}

func (v *verification[C]) hit() {
	v.hits++
	v.c.metrics.RecordCacheHit()
}

// parallel runs fn for every partition on its own goroutine. A panic in fn is
// reported as ErrInvariantViolation; the first error cancels the other
// partitions, which breaks the session.
func (v *verification[C]) parallel(ctx context.Context, fn func(ctx context.Context, p int) (StateMap[C], error)) ([]StateMap[C], error) {
	out := make([]StateMap[C], len(v.envs))
	g, gctx := errgroup.WithContext(ctx)
	for p := range v.envs {
		g.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("%w: partition %d panicked: %v", ErrInvariantViolation, p, r)
				}
			}()

			m, err := fn(gctx, p)
			if err != nil {
				return err
			}
			out[p] = m

			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

// evalNode computes one non-hybrid node on partition p from the values of its
// children.
func (v *verification[C]) evalNode(ctx context.Context, p int, node opNode, values [][]StateMap[C]) (StateMap[C], error) {
	env := v.envs[p]
	child := func(i int) StateMap[C] { return values[node.children[i]][p] }

	switch node.kind {
	case opFixPoint:
		args := fixpoint.Args[C]{Inner: child(0)}
		if node.spec.Op.Binary() {
			args = fixpoint.Args[C]{Path: child(0), Inner: child(1)}
		}

		return fixpoint.Evaluate(ctx, env, node.spec, args)
	case opBroadcast:
		at := node.f.(formula.AtState)
		colors, err := fixpoint.Broadcast(ctx, env, at.State, child(0))
		if err != nil {
			return nil, err
		}

		return v.constant(p, colors), nil
	}

	s := env.Solver
	switch n := node.f.(type) {
	case formula.True:
		return v.constant(p, s.True()), nil
	case formula.False:
		return make(StateMap[C]), nil
	case formula.Proposition:
		m, err := env.Fragment.Eval(n.Name)
		if err != nil {
			return nil, err
		}

		return v.ownedPart(p, m), nil
	case formula.Location:
		if int(n.State) >= v.c.states {
			return nil, fmt.Errorf("%w: location #%d", ErrStateOutOfRange, n.State)
		}
		out := make(StateMap[C], 1)
		if env.Fragment.Partition().Owner(n.State) == env.Fragment.ID() {
			out[n.State] = s.True()
		}

		return out, nil
	case formula.Not:
		inner := child(0)
		out := make(StateMap[C])
		for _, st := range v.c.owned[p] {
			if colors := s.Not(inner.Get(st, s)); !s.IsEmpty(colors) {
				out[st] = colors
			}
		}

		return out, nil
	case formula.And:
		left, right := child(0), child(1)
		out := make(StateMap[C])
		for st, l := range left {
			r, ok := right[st]
			if !ok {
				continue
			}
			if colors := s.And(l, r); !s.IsEmpty(colors) {
				out[st] = colors
			}
		}

		return out, nil
	case formula.Or:
		return union(s, child(0), child(1)), nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormula, node.key)
}

// constant maps every state owned by partition p to colors.
func (v *verification[C]) constant(p int, colors C) StateMap[C] {
	s := v.envs[p].Solver
	if s.IsEmpty(colors) {
		return make(StateMap[C])
	}
	out := make(StateMap[C], len(v.c.owned[p]))
	for _, st := range v.c.owned[p] {
		out[st] = colors
	}

	return out
}

// ownedPart keeps the non-empty entries of m that partition p owns.
func (v *verification[C]) ownedPart(p int, m StateMap[C]) StateMap[C] {
	env := v.envs[p]
	pf, id := env.Fragment.Partition(), env.Fragment.ID()
	out := make(StateMap[C], len(m))
	for st, colors := range m {
		if pf.Owner(st) == id && !env.Solver.IsEmpty(colors) {
			out[st] = colors
		}
	}

	return out
}

func union[C any](s Solver[C], a, b StateMap[C]) StateMap[C] {
	out := make(StateMap[C], max(len(a), len(b)))
	for st, colors := range a {
		out[st] = colors
	}
	for st, colors := range b {
		if prev, ok := out[st]; ok {
			colors = s.Or(prev, colors)
		}
		out[st] = colors
	}

	return out
}

func localOpName(f formula.Formula) string {
	switch f.(type) {
	case formula.True:
		return "true"
	case formula.False:
		return "false"
	case formula.Proposition:
		return "proposition"
	case formula.Location:
		return "location"
	case formula.Not:
		return "not"
	case formula.And:
		return "and"
	case formula.Or:
		return "or"
	}

	return "unknown"
}
