package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

type DBPinger interface {
	PingContext(ctx context.Context) error
}

type RedisPinger interface {
	Ping(ctx context.Context) error
}

type QueueHealth interface {
	Healthy() bool
}

type HealthHandler struct {
	DB        DBPinger
	Redis     RedisPinger
	Queue     QueueHealth
	QueueName string
	StartTime time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

// Os campos podem ser nil: dependência ausente aparece como "not configured".
func NewHealthHandler(db DBPinger, redis RedisPinger, queue QueueHealth, queueName string) *HealthHandler {
	return &HealthHandler{
		DB:        db,
		Redis:     redis,
		Queue:     queue,
		QueueName: queueName,
		StartTime: time.Now(),
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	deps := make(map[string]string)

	if h.DB != nil {
		deps["database"] = pingStatus(h.DB.PingContext(ctx))
	} else {
		deps["database"] = "not configured"
	}

	if h.Redis != nil {
		deps["redis"] = pingStatus(h.Redis.Ping(ctx))
	} else {
		deps["redis"] = "not configured"
	}

	queueKey := "queue"
	if h.QueueName != "" {
		queueKey = h.QueueName
	}
	switch {
	case h.Queue == nil:
		deps[queueKey] = "not configured"
	case h.Queue.Healthy():
		deps[queueKey] = "healthy"
	default:
		deps[queueKey] = "unhealthy: connection closed"
	}

	status := "healthy"
	for _, v := range deps {
		if v != "healthy" && v != "not configured" {
			status = "degraded"
			break
		}
	}

	code := http.StatusOK
	if status == "degraded" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthResponse{
		Status:       status,
		Version:      "1.0.0",
		Uptime:       time.Since(h.StartTime).Round(time.Second).String(),
		Dependencies: deps,
	})
}

func pingStatus(err error) string {
	if err != nil {
		return fmt.Sprintf("unhealthy: %v", err)
	}
	return "healthy"
}
