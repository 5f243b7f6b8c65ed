package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/marketsync/internal/config"
	"github.com/jafarshop/marketsync/internal/repository"
	"github.com/jafarshop/marketsync/internal/service"
	pkgerrors "github.com/jafarshop/marketsync/pkg/errors"
)

// SyncRequest is the sync trigger payload
type SyncRequest struct {
	Setting      string    `json:"setting"`
	CreatedAfter time.Time `json:"created_after" binding:"required"`
}

// SyncResponse lists the sales orders a run created or updated
type SyncResponse struct {
	SalesOrders []string `json:"sales_orders"`
}

// HandleSync handles POST /v1/sync
func HandleSync(cfg *config.Config, repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SyncRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		setting := req.Setting
		if setting == "" {
			setting = cfg.Marketplace.SettingName
		}

		salesOrders, err := service.SyncOrders(c.Request.Context(), repos, setting, req.CreatedAfter, logger)
		if err != nil {
			var notFound *pkgerrors.ErrNotFound
			switch {
			case errors.As(err, &notFound):
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			case errors.Is(err, service.ErrSyncDisabled):
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			case errors.Is(err, service.ErrMaxRetriesExceeded):
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			default:
				logger.Error("Sync run failed", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			}
			return
		}

		if salesOrders == nil {
			salesOrders = []string{}
		}

		c.JSON(http.StatusOK, SyncResponse{SalesOrders: salesOrders})
	}
}
