package invite

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	id "namegate/pkg/domain"
)

var isUsedDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "namegate_invite_used_check_duration_ms",
	Help:    "Latency of replay-ledger lookups in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const usedInviteKeyPrefix = "invite:used:"

// RedisLedger is a Redis-backed replay ledger for distributed deployments
// where multiple instances must share consumption state. Keys carry no TTL:
// the ledger is append-only for the lifetime of the registry.
type RedisLedger struct {
	client *redis.Client
}

// NewRedis constructs a Redis-backed invite ledger.
func NewRedis(client *redis.Client) *RedisLedger {
	return &RedisLedger{client: client}
}

func (l *RedisLedger) MarkUsed(ctx context.Context, inviteID id.Hash) error {
	key := usedInviteKeyPrefix + inviteID.String()
	// Key existence is what matters; "1" is a plain marker. No expiry.
	return l.client.Set(ctx, key, "1", 0).Err()
}

func (l *RedisLedger) IsUsed(ctx context.Context, inviteID id.Hash) (bool, error) {
	start := time.Now()
	defer func() {
		isUsedDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	key := usedInviteKeyPrefix + inviteID.String()
	_, err := l.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
