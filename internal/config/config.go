// Package config holds the ambient runtime configuration every `cmd/duck`
// subcommand shares: heap size and the dispatch-loop step budget. These
// are the only two knobs the host needs before it can build a
// lang/duck.Host (spec.md §6.1's init(heap_capacity) and §5's
// cooperative-cancellation step counter), loaded from the environment the
// way a long-running service would, rather than from a config file.
package config

import "github.com/caarlos0/env/v6"

// Config is parsed once at process startup via Load.
type Config struct {
	// HeapCapacity is the object-pool's fixed slot count (spec.md §3.2's
	// heap, not Go's own heap). A program that allocates more live objects
	// than this fails with OutOfMemory after a full GC, rather than growing.
	HeapCapacity int `env:"DUCK_HEAP_CAPACITY" envDefault:"65536"`

	// MaxSteps bounds the total number of dispatched VM instructions across
	// a run, independent from wall-clock time (spec.md §5 explicitly
	// disclaims timeouts for user code, but a long-running host still wants
	// a circuit breaker against a runaway script). Zero disables the limit.
	MaxSteps uint64 `env:"DUCK_MAX_STEPS" envDefault:"0"`
}

// Load parses Config from the process environment, applying envDefault
// where a variable is unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
