package travel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Shubham-murar/supervisor-multi-agent/engine/infra/cache"
	"github.com/Shubham-murar/supervisor-multi-agent/pkg/config"
)

// ErrCheckpointNotFound is returned when no state is stored for a run ID.
var ErrCheckpointNotFound = errors.New("travel: checkpoint not found")

// Checkpointer persists run state between stages.
type Checkpointer interface {
	Save(ctx context.Context, s *State) error
	Load(ctx context.Context, runID string) (*State, error)
}

// MemoryCheckpointer keeps states in a bounded in-process cache.
type MemoryCheckpointer struct {
	cache *ristretto.Cache[string, []byte]
	ttl   time.Duration
}

func NewMemoryCheckpointer(ttl time.Duration) (*MemoryCheckpointer, error) {
	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: 10_000,
		MaxCost:     64 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkpoint cache: %w", err)
	}
	return &MemoryCheckpointer{cache: c, ttl: ttl}, nil
}

func (m *MemoryCheckpointer) Save(_ context.Context, s *State) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if !m.cache.SetWithTTL(s.RunID, raw, int64(len(raw)), m.ttl) {
		return fmt.Errorf("checkpoint for run %s was dropped", s.RunID)
	}
	m.cache.Wait()
	return nil
}

func (m *MemoryCheckpointer) Load(_ context.Context, runID string) (*State, error) {
	raw, ok := m.cache.Get(runID)
	if !ok {
		return nil, ErrCheckpointNotFound
	}
	return decodeState(raw)
}

func (m *MemoryCheckpointer) Close() {
	m.cache.Close()
}

// RedisCheckpointer stores states as JSON under prefix+runID.
type RedisCheckpointer struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisCheckpointer(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisCheckpointer {
	return &RedisCheckpointer{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisCheckpointer) Save(ctx context.Context, s *State) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	if err := r.client.Set(ctx, r.prefix+s.RunID, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	return nil
}

func (r *RedisCheckpointer) Load(ctx context.Context, runID string) (*State, error) {
	raw, err := r.client.Get(ctx, r.prefix+runID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCheckpointNotFound
		}
		return nil, fmt.Errorf("load checkpoint: %w", err)
	}
	return decodeState(raw)
}

func decodeState(raw []byte) (*State, error) {
	var s State
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode checkpoint: %w", err)
	}
	return &s, nil
}

// NewCheckpointer builds the checkpointer selected by cfg.Checkpoint.Driver.
// It returns nil for "none". cleanup is always safe to call.
func NewCheckpointer(ctx context.Context, cfg *config.Config) (Checkpointer, func(), error) {
	cp := cfg.Checkpoint
	switch cp.Driver {
	case "", "none":
		return nil, func() {}, nil
	case "memory":
		m, err := NewMemoryCheckpointer(cp.TTL)
		if err != nil {
			return nil, nil, err
		}
		return m, m.Close, nil
	case "redis":
		client, cleanup, err := cache.Setup(ctx, cache.FromAppConfig(cfg))
		if err != nil {
			return nil, nil, fmt.Errorf("checkpoint redis: %w", err)
		}
		return NewRedisCheckpointer(client, cp.Prefix, cp.TTL), cleanup, nil
	default:
		return nil, nil, fmt.Errorf("unknown checkpoint driver %q", cp.Driver)
	}
}
