package router

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/linkpage/internal/handler"
	"github.com/linkpage/internal/middleware"
	"github.com/linkpage/internal/service"
	"github.com/linkpage/web"
	"gorm.io/gorm"
)

const sessionName = "linkpage_session"

// Options 汇总构建路由所需的依赖。
type Options struct {
	DB            *gorm.DB
	Links         *service.LinkService
	Source        service.LinkSource
	SessionSecret string
	SecureCookies bool
	CORSOrigins   []string
	// LoginLimiter 为空时使用默认的登录限流器。
	LoginLimiter *middleware.IPRateLimiter
}

// SetupRouter 配置 Gin 引擎和路由
func SetupRouter(opts Options) (*gin.Engine, error) {
	if opts.DB == nil || opts.Links == nil {
		return nil, fmt.Errorf("router: database and link service are required")
	}
	if strings.TrimSpace(opts.SessionSecret) == "" {
		return nil, fmt.Errorf("router: session secret is required")
	}

	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestLogger(), middleware.SecurityHeaders(opts.SecureCookies))
	if cors := middleware.CORS(opts.CORSOrigins); cors != nil {
		r.Use(cors)
	}

	store := cookie.NewStore([]byte(opts.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   7 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("router: parse templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)
	r.StaticFS("/static", http.FS(web.Static()))

	limiter := opts.LoginLimiter
	if limiter == nil {
		limiter = middleware.NewLoginLimiter()
	}

	api := handler.NewAPI(opts.DB, opts.Links, opts.Source)

	r.GET("/", api.ShowHome)
	r.GET("/links", api.ShowLinkList)
	r.GET("/go/:id", api.FollowLink)
	r.GET("/healthz", api.HealthCheck)

	r.GET("/login", api.ShowLoginPage)
	r.POST("/login", middleware.RateLimit(limiter), api.Login)
	r.GET("/logout", api.Logout)
	r.POST("/logout", api.Logout)

	admin := r.Group("/admin")
	{
		pages := admin.Group("")
		pages.Use(handler.AuthRequired())
		{
			pages.GET("", api.ShowAdmin)
			pages.POST("/links", api.SubmitLink)
			pages.GET("/links/:id/delete", api.ConfirmDeleteLink)
			pages.POST("/links/:id/delete", api.DeleteLink)
			pages.POST("/links/:id/move", api.MoveLink)
		}

		// JSON 接口
		apiGroup := admin.Group("/api")
		apiGroup.Use(handler.APIAuthRequired())
		{
			apiGroup.GET("/links", api.ListLinks)
			apiGroup.POST("/links", api.CreateLink)
			apiGroup.PUT("/links/reorder", api.ReorderLinks)
			apiGroup.PUT("/links/:id", api.UpdateLink)
			apiGroup.DELETE("/links/:id", api.DeleteLinkJSON)

			apiGroup.GET("/settings", api.GetSiteSettings)
			apiGroup.PUT("/settings", api.UpdateSiteSettings)
		}
	}

	return r, nil
}
