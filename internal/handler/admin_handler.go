package handler

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/linkpage/internal/db"
	"github.com/linkpage/internal/logger"
	"github.com/linkpage/internal/service"
	"github.com/linkpage/internal/view"
)

const (
	flashError   = "error"
	flashSuccess = "success"

	adminEmptyText = "No links yet. Add one to get started."
)

// linkForm 保存后台表单的当前值，ID 为 0 时表示新增。
type linkForm struct {
	ID   uint
	Text string
	Href string
	Icon string
	Open bool
}

func (f linkForm) Editing() bool {
	return f.ID != 0
}

type adminLinkRow struct {
	db.Link
	Clicks         uint64
	UniqueVisitors uint64
	First          bool
	Last           bool
}

// ShowAdmin 渲染后台链接管理页，每次都直接从存储读取最新列表。
func (a *API) ShowAdmin(c *gin.Context) {
	form := linkForm{}
	if c.Query("new") == "1" {
		form.Open = true
	}
	a.renderAdmin(c, http.StatusOK, form, "")
}

func (a *API) renderAdmin(c *gin.Context, status int, form linkForm, errorMessage string) {
	session := sessions.Default(c)
	flashErrors := session.Flashes(flashError)
	flashSuccesses := session.Flashes(flashSuccess)
	if len(flashErrors)+len(flashSuccesses) > 0 {
		if err := session.Save(); err != nil {
			logger.Warn().Err(err).Msg("save session after reading flashes failed")
		}
	}
	if errorMessage == "" && len(flashErrors) > 0 {
		errorMessage, _ = flashErrors[0].(string)
	}
	successMessage := ""
	if len(flashSuccesses) > 0 {
		successMessage, _ = flashSuccesses[0].(string)
	}

	links, err := a.links.ListLinks(c.Request.Context())
	if err != nil {
		logger.Error().Err(err).Msg("load links for admin failed")
		links = nil
		if errorMessage == "" {
			_, message := linkErrorStatus(err)
			errorMessage = "Error loading links: " + message
		}
	}

	if raw := c.Query("edit"); raw != "" && !form.Open {
		if id, parseErr := parseUint(raw, "id"); parseErr == nil {
			for _, link := range links {
				if link.ID == id {
					form = linkForm{ID: link.ID, Text: link.Text, Href: link.Href, Icon: link.Icon, Open: true}
					break
				}
			}
		}
		if !form.Open && errorMessage == "" {
			errorMessage = "That link no longer exists."
		}
	}

	rows := a.adminRows(links)

	username, _ := session.Get(sessionKeyUsername).(string)
	a.renderHTML(c, status, "admin.html", gin.H{
		"title":          "Manage links",
		"username":       username,
		"links":          rows,
		"form":           form,
		"iconOptions":    view.LinkIconOptions(),
		"errorMessage":   errorMessage,
		"successMessage": successMessage,
		"emptyText":      adminEmptyText,
	})
}

func (a *API) adminRows(links []db.Link) []adminLinkRow {
	ids := make([]uint, 0, len(links))
	for _, link := range links {
		ids = append(ids, link.ID)
	}

	stats := map[uint]db.LinkStatistic{}
	if a.analytics != nil && len(ids) > 0 {
		loaded, err := a.analytics.LinkStatsMap(ids)
		if err != nil {
			logger.Warn().Err(err).Msg("load link stats failed")
		} else {
			stats = loaded
		}
	}

	rows := make([]adminLinkRow, 0, len(links))
	for index, link := range links {
		stat := stats[link.ID]
		rows = append(rows, adminLinkRow{
			Link:           link,
			Clicks:         stat.Clicks,
			UniqueVisitors: stat.UniqueVisitors,
			First:          index == 0,
			Last:           index == len(links)-1,
		})
	}
	return rows
}

// SubmitLink 处理后台表单：带 id 时更新，否则新增。
func (a *API) SubmitLink(c *gin.Context) {
	form := linkForm{
		Text: c.PostForm("text"),
		Href: c.PostForm("href"),
		Icon: c.PostForm("icon"),
		Open: true,
	}
	if raw := c.PostForm("id"); raw != "" {
		id, err := parseUint(raw, "id")
		if err != nil {
			a.renderAdmin(c, http.StatusBadRequest, form, "Error saving link: invalid link id")
			return
		}
		form.ID = id
	}

	input := service.LinkInput{Text: form.Text, Href: form.Href, Icon: view.ResolveLinkIcon(form.Icon)}
	ctx := c.Request.Context()

	var (
		link *db.Link
		err  error
	)
	if form.Editing() {
		link, err = a.links.UpdateLink(ctx, form.ID, input)
	} else {
		link, err = a.links.CreateLink(ctx, input)
	}
	if err != nil {
		status, message := linkErrorStatus(err)
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Uint("id", form.ID).Msg("save link failed")
		}
		a.renderAdmin(c, status, form, "Error saving link: "+message)
		return
	}

	message := "Link added."
	if form.Editing() {
		message = "Link updated."
	}
	logger.Info().Uint("id", link.ID).Int("order", link.Order).Msg(message)
	a.redirectWithFlash(c, flashSuccess, message)
}

// ConfirmDeleteLink 渲染删除确认页，供未启用脚本的浏览器使用。
func (a *API) ConfirmDeleteLink(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		a.redirectWithFlash(c, flashError, "Error deleting link: invalid link id")
		return
	}

	link, err := a.links.GetLink(c.Request.Context(), id)
	if err != nil {
		_, message := linkErrorStatus(err)
		a.redirectWithFlash(c, flashError, "Error deleting link: "+message)
		return
	}

	a.renderHTML(c, http.StatusOK, "admin_confirm_delete.html", gin.H{
		"title": "Delete link",
		"link":  link,
	})
}

// DeleteLink 删除链接，必须携带 confirm=yes，否则转到确认页。
func (a *API) DeleteLink(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		a.redirectWithFlash(c, flashError, "Error deleting link: invalid link id")
		return
	}

	if c.PostForm("confirm") != "yes" {
		c.Redirect(http.StatusFound, "/admin/links/"+uintToString(id)+"/delete")
		return
	}

	if err := a.links.DeleteLink(c.Request.Context(), id); err != nil {
		status, message := linkErrorStatus(err)
		if status >= http.StatusInternalServerError {
			logger.Error().Err(err).Uint("id", id).Msg("delete link failed")
		}
		a.redirectWithFlash(c, flashError, "Error deleting link: "+message)
		return
	}

	a.forgetLinkStats(id)
	logger.Info().Uint("id", id).Msg("link deleted")
	a.redirectWithFlash(c, flashSuccess, "Link deleted.")
}

// MoveLink 将链接与相邻的上一条或下一条交换位置。
func (a *API) MoveLink(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		a.redirectWithFlash(c, flashError, "Error reordering links: invalid link id")
		return
	}

	ctx := c.Request.Context()
	links, err := a.links.ListLinks(ctx)
	if err != nil {
		_, message := linkErrorStatus(err)
		a.redirectWithFlash(c, flashError, "Error reordering links: "+message)
		return
	}

	ids, moved := moveLinkID(links, id, c.PostForm("direction"))
	if !moved {
		c.Redirect(http.StatusFound, "/admin")
		return
	}

	if err := a.links.ReorderLinks(ctx, ids); err != nil {
		_, message := linkErrorStatus(err)
		a.redirectWithFlash(c, flashError, "Error reordering links: "+message)
		return
	}
	c.Redirect(http.StatusFound, "/admin")
}

func moveLinkID(links []db.Link, id uint, direction string) ([]uint, bool) {
	ids := make([]uint, len(links))
	position := -1
	for index, link := range links {
		ids[index] = link.ID
		if link.ID == id {
			position = index
		}
	}
	if position < 0 {
		return nil, false
	}

	target := position - 1
	if direction == "down" {
		target = position + 1
	}
	if target < 0 || target >= len(ids) {
		return nil, false
	}

	ids[position], ids[target] = ids[target], ids[position]
	return ids, true
}

func (a *API) forgetLinkStats(id uint) {
	if a.analytics == nil {
		return
	}
	if err := a.analytics.ForgetLink(id); err != nil {
		logger.Warn().Err(err).Uint("id", id).Msg("clear link stats failed")
	}
}

func (a *API) redirectWithFlash(c *gin.Context, key, message string) {
	session := sessions.Default(c)
	session.AddFlash(message, key)
	if err := session.Save(); err != nil {
		logger.Warn().Err(err).Msg("save flash failed")
	}
	c.Redirect(http.StatusFound, "/admin")
}
