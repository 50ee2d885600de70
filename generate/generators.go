// Package generate provides named value generators bound to struct fields
// through the gen attribute, e.g. `attr:"id;gen:uuid"`.
package generate

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// Generator produces values for attribute-bound fields.
type Generator interface {
	Generate() (any, error)
	Name() string
}

// UUIDGenerator generates UUID v4 values.
type UUIDGenerator struct{}

func (g UUIDGenerator) Generate() (any, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("generate: uuid: %w", err)
	}
	return id, nil
}

func (g UUIDGenerator) Name() string { return "uuid" }

// ULIDGenerator generates monotonic ULID values.
type ULIDGenerator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{entropy: ulid.Monotonic(rand.Reader, 0)}
}

func (g *ULIDGenerator) Generate() (any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(time.Now()), g.entropy)
	if err != nil {
		return nil, fmt.Errorf("generate: ulid: %w", err)
	}
	return id, nil
}

func (g *ULIDGenerator) Name() string { return "ulid" }

// SnowflakeGenerator generates Twitter Snowflake-like int64 IDs:
// 41 bits of millisecond timestamp, 10 bits of machine ID, 12 bits of
// per-millisecond sequence.
type SnowflakeGenerator struct {
	mu        sync.Mutex
	machineID uint64
	sequence  uint64
	lastTime  uint64
	epoch     uint64
}

func NewSnowflakeGenerator(machineID uint64) *SnowflakeGenerator {
	epoch := uint64(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli())
	return &SnowflakeGenerator{
		machineID: machineID & 0x3FF,
		epoch:     epoch,
	}
}

func (g *SnowflakeGenerator) Generate() (any, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := uint64(time.Now().UnixMilli())
	if now < g.lastTime {
		return nil, fmt.Errorf("generate: snowflake: clock moved backwards")
	}

	if now == g.lastTime {
		g.sequence = (g.sequence + 1) & 0xFFF
		if g.sequence == 0 {
			for now <= g.lastTime {
				now = uint64(time.Now().UnixMilli())
			}
		}
	} else {
		g.sequence = 0
	}
	g.lastTime = now

	return int64(((now - g.epoch) << 22) | (g.machineID << 12) | g.sequence), nil
}

func (g *SnowflakeGenerator) Name() string { return "snowflake" }

const defaultNanoIDAlphabet = "_-0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NanoIDGenerator generates NanoID strings.
type NanoIDGenerator struct {
	size     int
	alphabet string
}

func NewNanoIDGenerator(size int, alphabet string) *NanoIDGenerator {
	if size <= 0 {
		size = 21
	}
	if alphabet == "" {
		alphabet = defaultNanoIDAlphabet
	}
	return &NanoIDGenerator{size: size, alphabet: alphabet}
}

func (g *NanoIDGenerator) Generate() (any, error) {
	raw := make([]byte, g.size)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("generate: nanoid: %w", err)
	}

	id := make([]byte, g.size)
	for i := range raw {
		id[i] = g.alphabet[raw[i]%byte(len(g.alphabet))]
	}
	return string(id), nil
}

func (g *NanoIDGenerator) Name() string { return "nanoid" }

// Registry maps generator names to implementations.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
}

var defaultRegistry = NewRegistry()

func NewRegistry() *Registry {
	r := &Registry{generators: make(map[string]Generator, 8)}

	r.Register(UUIDGenerator{})
	r.Register(NewULIDGenerator())
	r.Register(NewSnowflakeGenerator(1))
	r.Register(NewNanoIDGenerator(21, ""))

	return r
}

func (r *Registry) Register(g Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[g.Name()] = g
}

func (r *Registry) Get(name string) (Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.generators[name]
	return g, ok
}

func (r *Registry) Generate(name string) (any, error) {
	g, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("generate: unknown generator %q", name)
	}
	return g.Generate()
}

// Register adds a generator to the default registry.
func Register(g Generator) {
	defaultRegistry.Register(g)
}

// Get returns a generator from the default registry.
func Get(name string) (Generator, bool) {
	return defaultRegistry.Get(name)
}

// ID generates one value from a named generator in the default registry.
func ID(name string) (any, error) {
	return defaultRegistry.Generate(name)
}
