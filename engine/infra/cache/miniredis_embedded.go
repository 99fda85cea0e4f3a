package cache

import (
	"context"
	"fmt"
	"sync"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/Shubham-murar/supervisor-multi-agent/pkg/logger"
)

// MiniredisEmbedded runs an in-process Redis server for single-node use.
// State does not survive a restart.
type MiniredisEmbedded struct {
	server *miniredis.Miniredis
	client *redis.Client
	once   sync.Once
}

// NewMiniredisEmbedded starts the server and connects a client to it.
func NewMiniredisEmbedded(ctx context.Context) (*MiniredisEmbedded, error) {
	server := miniredis.NewMiniRedis()
	if err := server.Start(); err != nil {
		return nil, fmt.Errorf("starting embedded redis: %w", err)
	}
	client := redis.NewClient(&redis.Options{Addr: server.Addr()})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		server.Close()
		return nil, fmt.Errorf("pinging embedded redis: %w", err)
	}
	logger.FromContext(ctx).Debug("Embedded Redis started", "addr", server.Addr())
	return &MiniredisEmbedded{server: server, client: client}, nil
}

func (m *MiniredisEmbedded) Client() redis.UniversalClient {
	return m.client
}

// Close stops client and server. Safe to call more than once.
func (m *MiniredisEmbedded) Close(ctx context.Context) error {
	var err error
	m.once.Do(func() {
		err = m.client.Close()
		m.server.Close()
		logger.FromContext(ctx).Debug("Embedded Redis stopped")
	})
	return err
}
