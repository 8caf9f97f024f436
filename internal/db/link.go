package db

import "time"

// Link 是前台展示的一个链接按钮
// Order 值越小越靠前，相同时按 ID 升序
// Icon 通常是一个 emoji，可以为空
// Group 和 Notes 只由静态列表提供，不落库
type Link struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"size:120;not null" json:"text"`
	Href      string    `gorm:"size:2048;not null" json:"href"`
	Icon      string    `gorm:"size:64" json:"icon"`
	Order     int       `gorm:"column:order;default:0;index" json:"order"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Group string   `gorm:"-" json:"-"`
	Notes []string `gorm:"-" json:"-"`
}

// TableName 返回自定义表名
func (Link) TableName() string {
	return "links"
}

// LinkPatch 描述可被编辑的链接字段，ID 与 Order 不在其中。
type LinkPatch struct {
	Text string `json:"text"`
	Href string `json:"href"`
	Icon string `json:"icon"`
}
