package db

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
)

type poolStats struct {
	TotalConns      int32  `json:"total_conns"`
	IdleConns       int32  `json:"idle_conns"`
	AcquiredConns   int32  `json:"acquired_conns"`
	MaxConns        int32  `json:"max_conns"`
	AcquireCount    int64  `json:"acquire_count"`
	AcquireDuration string `json:"acquire_duration"`
}

type storeHealth struct {
	Status  string    `json:"status"`
	Backend string    `json:"backend"`
	Error   string    `json:"error,omitempty"`
	Pool    poolStats `json:"pool"`
}

func statsOf(pool *pgxpool.Pool) poolStats {
	s := pool.Stat()
	return poolStats{
		TotalConns:      s.TotalConns(),
		IdleConns:       s.IdleConns(),
		AcquiredConns:   s.AcquiredConns(),
		MaxConns:        s.MaxConns(),
		AcquireCount:    s.AcquireCount(),
		AcquireDuration: s.AcquireDuration().String(),
	}
}

// HealthHandler answers /health/store for the Postgres backend: 200 with
// pool statistics, or 503 when a ping does not return within five seconds.
func HealthHandler(pool *pgxpool.Pool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()

		body := storeHealth{Status: "healthy", Backend: "postgres"}
		code := http.StatusOK
		if err := pool.Ping(ctx); err != nil {
			body.Status, body.Error = "unhealthy", err.Error()
			code = http.StatusServiceUnavailable
		}
		body.Pool = statsOf(pool)
		return c.JSON(code, body)
	}
}
