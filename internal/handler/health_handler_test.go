package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/exstem-mockexam/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	rdb := newMemRedis()
	rdb.lists[config.WorkerKey.PersistSessionLogsQueue] = []string{"{}", "{}"}

	up := PingFunc(func(context.Context) error { return nil })
	down := PingFunc(func(context.Context) error { return errors.New("refused") })

	tests := []struct {
		name   string
		deps   map[string]Pinger
		status int
		state  string
	}{
		{"all up", map[string]Pinger{"postgres": up, "redis": up}, http.StatusOK, "ok"},
		{"redis down", map[string]Pinger{"postgres": up, "redis": down}, http.StatusServiceUnavailable, "degraded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewHealthHandler(tt.deps, rdb).Health)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.status, w.Code)
			var body struct {
				Data struct {
					Status string           `json:"status"`
					Queues map[string]int64 `json:"queues"`
				} `json:"data"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.state, body.Data.Status)
			assert.Equal(t, int64(2), body.Data.Queues[config.WorkerKey.PersistSessionLogsQueue])
		})
	}
}
