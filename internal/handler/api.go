package handler

import (
	"html/template"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/linkpage/internal/db"
	"github.com/linkpage/internal/logger"
	"github.com/linkpage/internal/service"
	"gorm.io/gorm"
)

// API bundles shared dependencies for HTTP handlers.
type API struct {
	db        *gorm.DB
	links     *service.LinkService
	source    service.LinkSource
	settings  *service.SiteSettingService
	analytics analyticsProvider
	auth      *service.AuthService
	now       func() time.Time
}

type siteViewModel struct {
	Name       string
	Tagline    string
	SubTagline string
	LogoURL    string
	FooterText string
	Bio        template.HTML
}

const siteSettingsContextKey = "__site_settings"

// NewAPI constructs a handler set. links manages the link store for the admin
// panel; source feeds the public page and may be a static list.
func NewAPI(gdb *gorm.DB, links *service.LinkService, source service.LinkSource) *API {
	if source == nil {
		source = service.NewStoreLinkSource(links)
	}
	return &API{
		db:        gdb,
		links:     links,
		source:    source,
		settings:  service.NewSiteSettingService(gdb),
		analytics: service.NewAnalyticsService(gdb),
		auth:      service.NewAuthService(gdb),
		now:       time.Now,
	}
}

// DB exposes the underlying gorm instance.
func (a *API) DB() *gorm.DB {
	return a.db
}

func (a *API) siteSettings(c *gin.Context) siteViewModel {
	if cached, exists := c.Get(siteSettingsContextKey); exists {
		if view, ok := cached.(siteViewModel); ok {
			return view
		}
	}

	settings, err := a.settings.GetSettings()
	if err != nil {
		logger.Warn().Err(err).Msg("load site settings failed, using defaults")
		settings = service.DefaultSiteSettings()
	}

	view := siteViewModel{
		Name:       strings.TrimSpace(settings.SiteName),
		Tagline:    settings.Tagline,
		SubTagline: settings.SubTagline,
		LogoURL:    settings.LogoURL,
		FooterText: settings.FooterText,
	}
	if strings.TrimSpace(settings.Bio) != "" {
		if html, err := renderMarkdown(settings.Bio); err == nil {
			view.Bio = html
		} else {
			logger.Warn().Err(err).Msg("render bio failed")
		}
	}

	c.Set(siteSettingsContextKey, view)
	return view
}

func (a *API) renderHTML(c *gin.Context, status int, template string, data gin.H) {
	view := a.siteSettings(c)

	payload := gin.H{}
	for key, value := range data {
		payload[key] = value
	}

	if _, exists := payload["site"]; !exists {
		payload["site"] = gin.H{
			"name":       view.Name,
			"tagline":    view.Tagline,
			"subTagline": view.SubTagline,
			"logoUrl":    view.LogoURL,
			"footerText": view.FooterText,
			"bio":        view.Bio,
		}
	}
	if _, exists := payload["year"]; !exists {
		payload["year"] = a.now().Year()
	}

	c.HTML(status, template, payload)
}

type analyticsProvider interface {
	RecordLinkClick(linkID uint, info service.ClickInfo, now time.Time) (*db.LinkStatistic, error)
	LinkStatsMap(linkIDs []uint) (map[uint]db.LinkStatistic, error)
	ForgetLink(linkID uint) error
}
