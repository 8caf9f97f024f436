package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/linkpage/internal/db"
	"github.com/linkpage/internal/service"
	"github.com/linkpage/internal/view"
)

type linkRequest struct {
	Text string `json:"text"`
	Href string `json:"href"`
	Icon string `json:"icon"`
}

type linkReorderRequest struct {
	IDs []uint `json:"ids"`
}

// ListLinks 返回后台使用的完整链接列表
func (a *API) ListLinks(c *gin.Context) {
	links, err := a.links.ListLinks(c.Request.Context())
	if err != nil {
		handleLinkError(c, err)
		return
	}

	items := make([]gin.H, 0, len(links))
	for _, link := range links {
		items = append(items, linkPayload(link))
	}

	c.JSON(http.StatusOK, gin.H{"links": items})
}

// CreateLink 新增链接，排在当前最后
func (a *API) CreateLink(c *gin.Context) {
	var payload linkRequest
	if !bindJSON(c, &payload, "invalid link payload") {
		return
	}

	link, err := a.links.CreateLink(c.Request.Context(), payload.toInput())
	if err != nil {
		handleLinkError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "link created",
		"link":    linkPayload(*link),
	})
}

// UpdateLink 替换链接的文字、地址与图标
func (a *API) UpdateLink(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid link id")
		return
	}

	var payload linkRequest
	if !bindJSON(c, &payload, "invalid link payload") {
		return
	}

	link, err := a.links.UpdateLink(c.Request.Context(), id, payload.toInput())
	if err != nil {
		handleLinkError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "link updated",
		"link":    linkPayload(*link),
	})
}

// DeleteLinkJSON 删除指定链接
func (a *API) DeleteLinkJSON(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid link id")
		return
	}

	if err := a.links.DeleteLink(c.Request.Context(), id); err != nil {
		handleLinkError(c, err)
		return
	}
	a.forgetLinkStats(id)

	c.JSON(http.StatusOK, gin.H{"message": "link deleted"})
}

// ReorderLinks 按给定的 ID 顺序重新编号
func (a *API) ReorderLinks(c *gin.Context) {
	var payload linkReorderRequest
	if !bindJSON(c, &payload, "invalid reorder payload") {
		return
	}

	if err := a.links.ReorderLinks(c.Request.Context(), payload.IDs); err != nil {
		handleLinkError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "order updated"})
}

func (r linkRequest) toInput() service.LinkInput {
	return service.LinkInput{
		Text: r.Text,
		Href: r.Href,
		Icon: view.ResolveLinkIcon(r.Icon),
	}
}

func linkPayload(link db.Link) gin.H {
	return gin.H{
		"id":    link.ID,
		"text":  link.Text,
		"href":  link.Href,
		"icon":  link.Icon,
		"order": link.Order,
	}
}
