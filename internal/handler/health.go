package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/tomi191/Garden-Center-Exotic-sub001/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type healthReport struct {
	OK       bool   `json:"ok"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
	// EmailDLQ is the number of notification emails that exhausted retries.
	EmailDLQ      int64 `json:"email_dlq"`
	EmailRetrying int64 `json:"email_retrying"`
}

// Health godoc
// @Summary Liveness and dependency check
// @Tags health
// @Produce json
// @Success 200 {object} healthReport
// @Failure 503 {object} healthReport
// @Router /health [get]
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		report := healthReport{Database: "up", Redis: "up"}
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			report.Database = "down"
		}
		if rdb.Ping(ctx).Err() != nil {
			report.Redis = "down"
		} else {
			if n, err := worker.DLQLength(ctx, rdb, worker.QueueEmail); err == nil {
				report.EmailDLQ = n
			}
			if n, err := worker.DelayedLength(ctx, rdb, worker.QueueEmail); err == nil {
				report.EmailRetrying = n
			}
		}

		report.OK = report.Database == "up" && report.Redis == "up"
		status := http.StatusOK
		if !report.OK {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, report)
	}
}
