package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/linkpage/internal/logger"
	"github.com/linkpage/internal/service"
)

// HealthCheck 提供部署平台与监控系统使用的健康检查端点。
func (a *API) HealthCheck(c *gin.Context) {
	sqlDB, err := a.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "database handle unavailable",
		})
		return
	}

	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"message": "database unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": "up",
	})
}

type siteSettingsRequest struct {
	SiteName   string `json:"siteName"`
	Tagline    string `json:"tagline"`
	SubTagline string `json:"subTagline"`
	LogoURL    string `json:"logoUrl"`
	FooterText string `json:"footerText"`
	Bio        string `json:"bio"`
}

// GetSiteSettings 返回当前品牌设置。
func (a *API) GetSiteSettings(c *gin.Context) {
	settings, err := a.settings.GetSettings()
	if err != nil {
		logger.Error().Err(err).Msg("load site settings failed")
		respondError(c, http.StatusInternalServerError, "failed to load settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{"settings": siteSettingsPayload(settings)})
}

// UpdateSiteSettings 保存品牌设置。
func (a *API) UpdateSiteSettings(c *gin.Context) {
	var payload siteSettingsRequest
	if !bindJSON(c, &payload, "invalid settings payload") {
		return
	}

	settings, err := a.settings.UpdateSettings(payload.toInput())
	if err != nil {
		logger.Error().Err(err).Msg("save site settings failed")
		respondError(c, http.StatusInternalServerError, "failed to save settings")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "settings saved",
		"settings": siteSettingsPayload(settings),
	})
}

func (r siteSettingsRequest) toInput() service.SiteSettingsInput {
	return service.SiteSettingsInput{
		SiteName:   r.SiteName,
		Tagline:    r.Tagline,
		SubTagline: r.SubTagline,
		LogoURL:    r.LogoURL,
		FooterText: r.FooterText,
		Bio:        r.Bio,
	}
}

func siteSettingsPayload(settings service.SiteSettings) gin.H {
	return gin.H{
		"siteName":   settings.SiteName,
		"tagline":    settings.Tagline,
		"subTagline": settings.SubTagline,
		"logoUrl":    settings.LogoURL,
		"footerText": settings.FooterText,
		"bio":        settings.Bio,
	}
}
