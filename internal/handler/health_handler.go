package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stemsi/exstem-mockexam/internal/config"
	"github.com/stemsi/exstem-mockexam/internal/response"
)

// Pinger is satisfied by *pgxpool.Pool. Use PingFunc for redis.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

// Ping calls f.
func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// QueueLengther reports the backlog of a persistence queue.
type QueueLengther interface {
	LLen(ctx context.Context, key string) *redis.IntCmd
}

var persistenceQueues = []string{
	config.WorkerKey.PersistSessionLogsQueue,
	config.WorkerKey.PersistReviewUpdatesQueue,
	config.WorkerKey.PersistTopicOutcomesQueue,
	config.WorkerKey.BadgeTriggersQueue,
}

// HealthHandler reports dependency reachability and worker backlog.
type HealthHandler struct {
	deps      map[string]Pinger
	queues    QueueLengther
	startTime time.Time
}

// NewHealthHandler creates a new HealthHandler. queues may be nil.
func NewHealthHandler(deps map[string]Pinger, queues QueueLengther) *HealthHandler {
	return &HealthHandler{deps: deps, queues: queues, startTime: time.Now()}
}

// Health godoc
// GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := make(map[string]string, len(h.deps))
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			checks[name] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "up"
	}

	backlog := make(map[string]int64, len(persistenceQueues))
	if h.queues != nil {
		for _, q := range persistenceQueues {
			if n, err := h.queues.LLen(ctx, q).Result(); err == nil {
				backlog[q] = n
			}
		}
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	response.Success(c, status, gin.H{
		"status":         state,
		"checks":         checks,
		"queues":         backlog,
		"uptime_seconds": int64(time.Since(h.startTime).Seconds()),
	})
}
