package handler

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/linkpage/internal/db"
	"github.com/linkpage/internal/logger"
	"github.com/linkpage/internal/service"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify),
		goldmark.WithRendererOptions(html.WithHardWraps(), html.WithXHTML()),
	)
	sanitizer = bluemonday.UGCPolicy()
)

const (
	visitorCookieName   = "lp_visitor_id"
	visitorCookieMaxAge = 365 * 24 * 60 * 60

	publicEmptyText = "No links available."
)

// publicLink 是前台按钮的渲染数据，Target 为最终跳转地址。
// Divider 表示该按钮开启了一个新的分组。
type publicLink struct {
	Text     string
	Icon     string
	Target   string
	External bool
	Divider  bool
	Notes    []string
}

// ShowHome 渲染前台页面骨架，链接列表由 HTMX 异步加载。
func (a *API) ShowHome(c *gin.Context) {
	a.renderHTML(c, http.StatusOK, "home.html", gin.H{})
}

// ShowLinkList 返回链接按钮片段，加载失败时记录日志并展示空状态。
func (a *API) ShowLinkList(c *gin.Context) {
	links, err := a.source.Links(c.Request.Context())
	if err != nil {
		logger.Error().Err(err).Msg("load public links failed")
		links = nil
	}

	items := make([]publicLink, 0, len(links))
	for i, link := range links {
		item := toPublicLink(link)
		item.Divider = i > 0 && link.Group != links[i-1].Group
		items = append(items, item)
	}

	a.renderHTML(c, http.StatusOK, "links.html", gin.H{
		"links":     items,
		"emptyText": publicEmptyText,
	})
}

// FollowLink 记录点击后跳转到链接地址。
func (a *API) FollowLink(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		c.AbortWithStatus(http.StatusNotFound)
		return
	}

	link, err := a.links.GetLink(c.Request.Context(), id)
	if err != nil {
		status, _ := linkErrorStatus(err)
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Uint("id", id).Msg("resolve link failed")
		}
		c.AbortWithStatus(status)
		return
	}

	if a.analytics != nil {
		info := service.ClickInfo{
			VisitorID: a.ensureVisitorID(c),
			Referrer:  c.Request.Referer(),
			UserAgent: c.Request.UserAgent(),
		}
		if _, recordErr := a.analytics.RecordLinkClick(link.ID, info, a.now().UTC()); recordErr != nil {
			c.Error(recordErr) // 不影响跳转
		}
	}

	c.Redirect(http.StatusFound, link.Href)
}

func toPublicLink(link db.Link) publicLink {
	item := publicLink{Text: link.Text, Icon: link.Icon, Target: link.Href, Notes: link.Notes}
	if link.ID != 0 && link.Href != "#" {
		item.Target = "/go/" + uintToString(link.ID)
	}
	item.External = strings.HasPrefix(link.Href, "http://") || strings.HasPrefix(link.Href, "https://")
	return item
}

func (a *API) ensureVisitorID(c *gin.Context) string {
	if id, err := c.Cookie(visitorCookieName); err == nil && strings.TrimSpace(id) != "" {
		return id
	}

	visitorID := uuid.NewString()
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     visitorCookieName,
		Value:    visitorID,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.Request.TLS != nil,
		MaxAge:   visitorCookieMaxAge,
		Expires:  a.now().Add(365 * 24 * time.Hour),
		SameSite: http.SameSiteLaxMode,
	})

	return visitorID
}

func renderMarkdown(content string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	safe := sanitizer.SanitizeBytes(buf.Bytes())
	return template.HTML(safe), nil
}
