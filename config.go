package pactl

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/pactl/comm"
	"github.com/arloliu/pactl/internal/workpool"
)

// TransportConfig configures the NATS transport used by WithNATS.
type TransportConfig struct {
	// SubjectPrefix prefixes the per-partition subjects "<prefix>.<session>.<partition>".
	SubjectPrefix string `yaml:"subjectPrefix"`

	// RendezvousBucket is the JetStream KV bucket in which partitions register.
	RendezvousBucket string `yaml:"rendezvousBucket"`

	// RendezvousTimeout is the maximum time to wait for all partitions of a
	// session to register.
	// Recommended: 10 seconds.
	RendezvousTimeout time.Duration `yaml:"rendezvousTimeout"`

	// MaxPayload caps the payload bytes of one message (0 = server limit).
	// Larger outbound buffers are split into several messages.
	MaxPayload int `yaml:"maxPayload"`
}

// Config is the configuration for the Checker and the terminal-component decomposition.
//
// All duration fields accept standard Go duration strings like "500us", "2ms", "10s".
type Config struct {
	// Parallelism is the number of workers FindTerminalComponents uses for
	// reachability passes, sink detection and pivot selection. Must be at
	// least 1. Verify does not read it: partitions synchronize in lock-step
	// rounds, so each one always gets its own goroutine.
	Parallelism int `yaml:"parallelism"`

	// BatchTarget, InitialChunkSize and MaxChunkSize tune the same
	// FindTerminalComponents work pool.
	//
	// BatchTarget is the desired wall time of one work batch. The batch size
	// doubles while batches finish under half of it and halves when they exceed
	// twice of it.
	BatchTarget time.Duration `yaml:"batchTarget"`

	// InitialChunkSize is the batch size before the first measurement.
	InitialChunkSize int `yaml:"initialChunkSize"`

	// MaxChunkSize bounds the batch size.
	MaxChunkSize int `yaml:"maxChunkSize"`

	// BufferPoolSize is the number of idle message buffers a session keeps.
	BufferPoolSize int `yaml:"bufferPoolSize"`

	// MaxRounds aborts a fixed point that needs more synchronization rounds
	// with ErrInvariantViolation (0 = unlimited).
	MaxRounds int `yaml:"maxRounds"`

	// Transport configures the NATS transport.
	Transport TransportConfig `yaml:"transport"`
}

// DefaultConfig returns a Config with sensible defaults.
//
// Returns:
//   - Config: Configuration with default values
func DefaultConfig() Config {
	nats := comm.DefaultNATSConfig()

	return Config{
		Parallelism:      4,
		BatchTarget:      time.Millisecond,
		InitialChunkSize: 16,
		MaxChunkSize:     4096,
		BufferPoolSize:   64,
		MaxRounds:        0, // unlimited
		Transport: TransportConfig{
			SubjectPrefix:     nats.SubjectPrefix,
			RendezvousBucket:  nats.RendezvousBucket,
			RendezvousTimeout: nats.RendezvousTimeout,
			MaxPayload:        0, // server limit
		},
	}
}

// SetDefaults fills in missing configuration values with defaults.
//
// Parameters:
//   - cfg: Config to apply defaults to (modified in place)
func SetDefaults(cfg *Config) {
	defaults := DefaultConfig()

	if cfg.Parallelism == 0 {
		cfg.Parallelism = defaults.Parallelism
	}
	if cfg.BatchTarget == 0 {
		cfg.BatchTarget = defaults.BatchTarget
	}
	if cfg.InitialChunkSize == 0 {
		cfg.InitialChunkSize = defaults.InitialChunkSize
	}
	if cfg.MaxChunkSize == 0 {
		cfg.MaxChunkSize = defaults.MaxChunkSize
	}
	if cfg.BufferPoolSize == 0 {
		cfg.BufferPoolSize = defaults.BufferPoolSize
	}
	if cfg.Transport.SubjectPrefix == "" {
		cfg.Transport.SubjectPrefix = defaults.Transport.SubjectPrefix
	}
	if cfg.Transport.RendezvousBucket == "" {
		cfg.Transport.RendezvousBucket = defaults.Transport.RendezvousBucket
	}
	if cfg.Transport.RendezvousTimeout == 0 {
		cfg.Transport.RendezvousTimeout = defaults.Transport.RendezvousTimeout
	}
	// Note: MaxRounds and MaxPayload of 0 are valid (no limit), so we don't apply defaults
}

// Validate checks configuration constraints and returns an error for invalid values.
//
// Hard Validation Rules:
//   - Parallelism >= 1
//   - BatchTarget > 0
//   - 1 <= InitialChunkSize <= MaxChunkSize
//   - BufferPoolSize, MaxRounds, Transport.MaxPayload >= 0
//   - Transport.RendezvousTimeout > 0
//
// Returns:
//   - error: Validation error wrapping ErrInvalidConfig, nil if valid
func (cfg *Config) Validate() error {
	if cfg.Parallelism < 1 {
		return fmt.Errorf("%w: %w: got %d", ErrInvalidConfig, ErrInvalidParallelism, cfg.Parallelism)
	}
	if cfg.BatchTarget <= 0 {
		return fmt.Errorf("%w: BatchTarget must be > 0, got %v", ErrInvalidConfig, cfg.BatchTarget)
	}
	if cfg.InitialChunkSize < 1 {
		return fmt.Errorf("%w: InitialChunkSize must be >= 1, got %d", ErrInvalidConfig, cfg.InitialChunkSize)
	}
	if cfg.MaxChunkSize < cfg.InitialChunkSize {
		return fmt.Errorf("%w: MaxChunkSize (%d) must be >= InitialChunkSize (%d)",
			ErrInvalidConfig, cfg.MaxChunkSize, cfg.InitialChunkSize)
	}
	if cfg.BufferPoolSize < 0 {
		return fmt.Errorf("%w: BufferPoolSize must be >= 0, got %d", ErrInvalidConfig, cfg.BufferPoolSize)
	}
	if cfg.MaxRounds < 0 {
		return fmt.Errorf("%w: MaxRounds must be >= 0, got %d", ErrInvalidConfig, cfg.MaxRounds)
	}
	if cfg.Transport.MaxPayload < 0 {
		return fmt.Errorf("%w: Transport.MaxPayload must be >= 0, got %d", ErrInvalidConfig, cfg.Transport.MaxPayload)
	}
	if cfg.Transport.RendezvousTimeout <= 0 {
		return fmt.Errorf("%w: Transport.RendezvousTimeout must be > 0, got %v",
			ErrInvalidConfig, cfg.Transport.RendezvousTimeout)
	}

	return nil
}

// ValidateWithWarnings checks configuration and logs warnings for non-recommended values.
//
// This is called after Validate() in NewChecker() to provide operator guidance.
//
// Parameters:
//   - logger: Logger instance for warning output
func (cfg *Config) ValidateWithWarnings(logger Logger) {
	if cfg.BatchTarget > 100*time.Millisecond {
		logger.Warn(
			"BatchTarget is long, workers may idle at the end of a pass",
			"batchTarget", cfg.BatchTarget,
			"recommended", "1ms",
		)
	}

	if cfg.MaxRounds > 0 && cfg.MaxRounds < 16 {
		logger.Warn(
			"MaxRounds is low, fixed points over long paths may be aborted",
			"maxRounds", cfg.MaxRounds,
			"recommended", "0 (unlimited) or the state count",
		)
	}

	if cfg.BufferPoolSize == 0 {
		logger.Warn("BufferPoolSize is 0, message buffers are not reused")
	}
}

// TestConfig returns a configuration for fast, deterministic test execution.
//
// Small chunks spread even tiny graphs over all workers, and MaxRounds turns
// a non-terminating fixed point into an error instead of a hanging test.
//
// Returns:
//   - Config: Configuration tuned for tests
//
// Example:
//
//	cfg := pactl.TestConfig()
//	checker, err := pactl.NewChecker(fragments, solvers, &cfg)
func TestConfig() Config {
	cfg := DefaultConfig()

	cfg.Parallelism = 2
	cfg.InitialChunkSize = 1
	cfg.MaxChunkSize = 8
	cfg.BufferPoolSize = 8
	cfg.MaxRounds = 10_000
	cfg.Transport.RendezvousTimeout = 5 * time.Second

	return cfg
}

// LoadConfig reads a YAML configuration file and applies defaults to unset fields.
//
// Returns:
//   - Config: The loaded configuration
//   - error: Read, parse or validation error
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parse %s: %w", ErrInvalidConfig, path, err)
	}
	SetDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// workPool builds the work pool described by cfg.
func (cfg *Config) workPool() *workpool.Pool {
	return workpool.New(workpool.Config{
		Workers:      cfg.Parallelism,
		BatchTarget:  cfg.BatchTarget,
		InitialChunk: cfg.InitialChunkSize,
		MaxChunk:     cfg.MaxChunkSize,
	})
}

// natsConfig converts the transport section for comm.NewNATS.
func (cfg *Config) natsConfig(logger Logger) comm.NATSConfig {
	return comm.NATSConfig{
		SubjectPrefix:     cfg.Transport.SubjectPrefix,
		RendezvousBucket:  cfg.Transport.RendezvousBucket,
		RendezvousTimeout: cfg.Transport.RendezvousTimeout,
		MaxPayload:        cfg.Transport.MaxPayload,
		PoolSize:          cfg.BufferPoolSize,
		Logger:            logger,
	}
}
