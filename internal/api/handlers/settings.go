package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jafarshop/marketsync/internal/domain"
	"github.com/jafarshop/marketsync/internal/repository"
	pkgerrors "github.com/jafarshop/marketsync/pkg/errors"
)

// SettingsResponse is the settings view with credentials redacted
type SettingsResponse struct {
	Name            string `json:"name"`
	CountryCode     string `json:"country_code"`
	MaxRetryLimit   int    `json:"max_retry_limit"`
	EnableSync      bool   `json:"enable_sync"`
	Company         string `json:"company"`
	PriceList       string `json:"price_list"`
	Warehouse       string `json:"warehouse"`
	TaxesAndCharges bool   `json:"taxes_and_charges"`
}

func settingsResponse(s *domain.SyncSettings) SettingsResponse {
	return SettingsResponse{
		Name:            s.Name,
		CountryCode:     s.CountryCode,
		MaxRetryLimit:   s.MaxRetryLimit,
		EnableSync:      s.EnableSync,
		Company:         s.Company,
		PriceList:       s.PriceList,
		Warehouse:       s.Warehouse,
		TaxesAndCharges: s.TaxesAndCharges,
	}
}

// HandleGetSettings handles GET /v1/admin/settings/:name
func HandleGetSettings(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		settings, err := repos.Settings.GetByName(c.Request.Context(), c.Param("name"))
		if err != nil {
			var notFound *pkgerrors.ErrNotFound
			if errors.As(err, &notFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "settings not found"})
				return
			}
			logger.Error("Failed to get settings", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		c.JSON(http.StatusOK, settingsResponse(settings))
	}
}

// HandleEnableSync handles POST /v1/admin/settings/:name/enable, re-arming
// the circuit breaker after an operator dealt with the upstream failure.
func HandleEnableSync(repos *repository.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		name := c.Param("name")

		settings, err := repos.Settings.GetByName(c.Request.Context(), name)
		if err != nil {
			var notFound *pkgerrors.ErrNotFound
			if errors.As(err, &notFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "settings not found"})
				return
			}
			logger.Error("Failed to get settings", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		if err := repos.Settings.SetEnableSync(c.Request.Context(), name, true); err != nil {
			logger.Error("Failed to enable sync", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		settings.EnableSync = true
		logger.Info("Sync re-enabled", zap.String("setting", name))

		c.JSON(http.StatusOK, settingsResponse(settings))
	}
}
