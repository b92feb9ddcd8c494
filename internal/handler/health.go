package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gonza-rom/jmr-stock-sub000/internal/infra"
	"github.com/gonza-rom/jmr-stock-sub000/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health returns a JSON health check response.
// The database is required; Redis is reported but optional when not configured.
// Never exposes credentials or internals.
func Health(db *gorm.DB, rdb *redis.Client, mailerCB *infra.CircuitBreaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		status := http.StatusOK
		if dbStatus != "connected" {
			status = http.StatusServiceUnavailable
		}
		body := gin.H{"db": dbStatus}

		if rdb == nil {
			body["redis"] = "disabled"
		} else if rdb.Ping(ctx).Err() != nil {
			body["redis"] = "error"
			status = http.StatusServiceUnavailable
		} else {
			body["redis"] = "connected"
			q := worker.NewRedisQueue(rdb)
			dlq := gin.H{}
			for _, name := range []string{worker.QueueEmail, worker.QueueAlertas} {
				if n, err := worker.DLQLength(ctx, q, name); err == nil {
					dlq[name] = n
				}
			}
			body["dlq"] = dlq
		}
		if mailerCB != nil {
			body["mailer"] = mailerCB.State().String()
		}

		body["ok"] = status == http.StatusOK
		c.JSON(status, body)
	}
}
