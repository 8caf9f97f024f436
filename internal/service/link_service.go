package service

import (
	"cmp"
	"context"
	"fmt"
	"html"
	"net/url"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/linkpage/internal/db"
	"github.com/microcosm-cc/bluemonday"
)

const (
	maxLinkTextRunes = 120
	maxLinkIconRunes = 16
)

var plainTextPolicy = bluemonday.StrictPolicy()

// LinkService 负责维护前台展示的链接按钮
// 提供排序、增删改查能力，与 handler 和具体存储解耦
type LinkService struct {
	store LinkStore
	cache LinkCache
}

// NewLinkService 构造 LinkService，cache 为 nil 时不缓存
func NewLinkService(store LinkStore, cache LinkCache) *LinkService {
	if cache == nil {
		cache = NewMemoryLinkCache(0)
	}
	return &LinkService{store: store, cache: cache}
}

// LinkInput 描述创建或更新链接时可设置的字段
type LinkInput struct {
	Text string
	Href string
	Icon string
}

// ListLinks 直接从存储读取链接，按 order 升序返回，并刷新缓存副本
func (s *LinkService) ListLinks(ctx context.Context) ([]db.Link, error) {
	links, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	sortLinks(links)
	s.cache.Set(ctx, links)
	return links, nil
}

// CachedLinks 优先返回缓存副本，未命中时回源存储
func (s *LinkService) CachedLinks(ctx context.Context) ([]db.Link, error) {
	if links, ok := s.cache.Get(ctx); ok {
		return links, nil
	}
	return s.ListLinks(ctx)
}

// GetLink 根据主键获取链接
func (s *LinkService) GetLink(ctx context.Context, id uint) (*db.Link, error) {
	return s.store.Get(ctx, id)
}

// CreateLink 新建链接，order 取当前最大值加一，空列表时为 0
func (s *LinkService) CreateLink(ctx context.Context, input LinkInput) (*db.Link, error) {
	patch, err := normalizeLinkInput(input)
	if err != nil {
		return nil, err
	}

	maxOrder, err := s.store.MaxOrder(ctx)
	if err != nil {
		return nil, err
	}

	link := db.Link{
		Text:  patch.Text,
		Href:  patch.Href,
		Icon:  patch.Icon,
		Order: maxOrder + 1,
	}
	if err := s.store.Insert(ctx, &link); err != nil {
		return nil, err
	}

	s.cache.Append(ctx, link)
	return &link, nil
}

// UpdateLink 替换文字、链接与图标，ID 与 order 保持不变
func (s *LinkService) UpdateLink(ctx context.Context, id uint, input LinkInput) (*db.Link, error) {
	patch, err := normalizeLinkInput(input)
	if err != nil {
		return nil, err
	}

	link, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}

	s.cache.Replace(ctx, *link)
	return link, nil
}

// DeleteLink 删除指定链接，目标不存在时返回 ErrLinkNotFound 且不修改缓存
func (s *LinkService) DeleteLink(ctx context.Context, id uint) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.Remove(ctx, id)
	return nil
}

// ReorderLinks 按给定顺序重排，传入的 IDs 会被依次赋值 0,1,2...
func (s *LinkService) ReorderLinks(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			return fmt.Errorf("%w: link id is required", ErrLinkInvalidInput)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate link id %d", ErrLinkInvalidInput, id)
		}
		seen[id] = struct{}{}
	}

	if err := s.store.SetOrder(ctx, ids); err != nil {
		return err
	}

	s.cache.Invalidate(ctx)
	return nil
}

func sortLinks(links []db.Link) {
	slices.SortStableFunc(links, func(a, b db.Link) int {
		if diff := cmp.Compare(a.Order, b.Order); diff != 0 {
			return diff
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func normalizeLinkInput(input LinkInput) (db.LinkPatch, error) {
	text := stripMarkup(input.Text)
	href := strings.TrimSpace(input.Href)
	icon := stripMarkup(input.Icon)

	if text == "" {
		return db.LinkPatch{}, fmt.Errorf("%w: text is required", ErrLinkInvalidInput)
	}
	if utf8.RuneCountInString(text) > maxLinkTextRunes {
		return db.LinkPatch{}, fmt.Errorf("%w: text is too long", ErrLinkInvalidInput)
	}
	if href == "" {
		return db.LinkPatch{}, fmt.Errorf("%w: href is required", ErrLinkInvalidInput)
	}
	if err := validateHref(href); err != nil {
		return db.LinkPatch{}, err
	}
	if utf8.RuneCountInString(icon) > maxLinkIconRunes {
		return db.LinkPatch{}, fmt.Errorf("%w: icon is too long", ErrLinkInvalidInput)
	}

	return db.LinkPatch{Text: text, Href: href, Icon: icon}, nil
}

func stripMarkup(raw string) string {
	return strings.TrimSpace(html.UnescapeString(plainTextPolicy.Sanitize(raw)))
}

// validateHref 接受 "#" 占位链接以及绝对的 http/https/mailto/tel 地址
func validateHref(href string) error {
	if href == "#" {
		return nil
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return fmt.Errorf("%w: href is not a valid URL", ErrLinkInvalidInput)
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
		if parsed.Host == "" {
			return fmt.Errorf("%w: href must include a host", ErrLinkInvalidInput)
		}
	case "mailto", "tel":
		if parsed.Opaque == "" {
			return fmt.Errorf("%w: href is incomplete", ErrLinkInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unsupported href scheme %q", ErrLinkInvalidInput, parsed.Scheme)
	}
	return nil
}
