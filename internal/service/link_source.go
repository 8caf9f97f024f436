package service

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/linkpage/internal/db"
	"gopkg.in/yaml.v3"
)

//go:embed default_links.yaml
var defaultStaticLinks []byte

// LinkSource 为前台页面提供按顺序排列的链接。
type LinkSource interface {
	Links(ctx context.Context) ([]db.Link, error)
}

// StoreLinkSource 通过 LinkService 读取链接，优先使用缓存副本。
type StoreLinkSource struct {
	links *LinkService
}

// NewStoreLinkSource 构造 StoreLinkSource
func NewStoreLinkSource(links *LinkService) *StoreLinkSource {
	return &StoreLinkSource{links: links}
}

func (s *StoreLinkSource) Links(ctx context.Context) ([]db.Link, error) {
	return s.links.CachedLinks(ctx)
}

type staticLinkEntry struct {
	Text  string `yaml:"text"`
	Href  string `yaml:"href"`
	Icon  string `yaml:"icon"`
	Order *int   `yaml:"order"`
	// Group 相同的相邻链接归为一组，组与组之间显示分隔线
	Group string   `yaml:"group"`
	Notes []string `yaml:"notes"`
}

type staticLinkFile struct {
	Links []staticLinkEntry `yaml:"links"`
}

// StaticLinkSource 返回从 YAML 载入的固定链接列表，链接没有 ID。
type StaticLinkSource struct {
	links []db.Link
}

// NewStaticLinkSource 解析 YAML 内容，未写 order 的条目按出现顺序编号。
func NewStaticLinkSource(raw []byte) (*StaticLinkSource, error) {
	var file staticLinkFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse static links: %w", err)
	}

	links := make([]db.Link, 0, len(file.Links))
	for index, entry := range file.Links {
		patch, err := normalizeLinkInput(LinkInput{Text: entry.Text, Href: entry.Href, Icon: entry.Icon})
		if err != nil {
			return nil, fmt.Errorf("static link %d: %w", index+1, err)
		}

		order := index
		if entry.Order != nil {
			order = *entry.Order
		}
		links = append(links, db.Link{
			Text:  patch.Text,
			Href:  patch.Href,
			Icon:  patch.Icon,
			Order: order,
			Group: strings.TrimSpace(entry.Group),
			Notes: trimNotes(entry.Notes),
		})
	}

	sortLinks(links)
	return &StaticLinkSource{links: links}, nil
}

func trimNotes(notes []string) []string {
	var out []string
	for _, note := range notes {
		if trimmed := stripMarkup(note); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// LoadStaticLinkSource 从文件读取静态链接，path 为空时使用内置列表。
func LoadStaticLinkSource(path string) (*StaticLinkSource, error) {
	if strings.TrimSpace(path) == "" {
		return NewStaticLinkSource(defaultStaticLinks)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read static links: %w", err)
	}
	return NewStaticLinkSource(raw)
}

func (s *StaticLinkSource) Links(context.Context) ([]db.Link, error) {
	return slices.Clone(s.links), nil
}
