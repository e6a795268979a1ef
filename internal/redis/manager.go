package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/openkeyhub/governance/internal/setup/config"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// Logical databases. Locks live apart from the cache so flushing cached read
// models never drops a held sweep lock.
const (
	CacheDBIndex = 0
	LockDBIndex  = 1
)

// Manager lazily opens one rueidis client per logical database and shares it.
type Manager struct {
	mu      sync.Mutex
	clients map[int]rueidis.Client
	config  *config.Redis
	logger  *zap.Logger
}

// NewManager returns a Manager that connects on first use.
func NewManager(cfg *config.Redis, logger *zap.Logger) *Manager {
	return &Manager{
		clients: make(map[int]rueidis.Client),
		config:  cfg,
		logger:  logger.Named("redis"),
	}
}

// GetClient returns the client for dbIndex, connecting if needed.
func (m *Manager) GetClient(dbIndex int) (rueidis.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if client, ok := m.clients[dbIndex]; ok {
		return client, nil
	}

	client, err := rueidis.NewClient(m.clientOption(dbIndex))
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis client for DB %d: %w", dbIndex, err)
	}

	m.clients[dbIndex] = client
	m.logger.Info("Connected to Redis",
		zap.String("addr", m.config.Address()),
		zap.Int("dbIndex", dbIndex))
	return client, nil
}

func (m *Manager) clientOption(dbIndex int) rueidis.ClientOption {
	return rueidis.ClientOption{
		InitAddress:  []string{m.config.Address()},
		Username:     m.config.Username,
		Password:     m.config.Password,
		SelectDB:     dbIndex,
		ClientName:   "governance",
		DisableCache: m.config.DisableCache,
	}
}

// Ping checks every open client and returns the first failure.
func (m *Manager) Ping(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for dbIndex, client := range m.clients {
		if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
			return fmt.Errorf("redis DB %d unreachable: %w", dbIndex, err)
		}
	}
	return nil
}

// Close shuts down every open client. Safe to call more than once.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for dbIndex, client := range m.clients {
		client.Close()
		delete(m.clients, dbIndex)
	}
	m.logger.Info("Closed Redis clients")
}
