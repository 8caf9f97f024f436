package db

import "time"

// LinkStatistic 汇总单个链接的点击数据。
type LinkStatistic struct {
	ID             uint   `gorm:"primaryKey"`
	LinkID         uint   `gorm:"uniqueIndex"`
	Clicks         uint64 `gorm:"default:0"`
	UniqueVisitors uint64 `gorm:"default:0"`
	LastClickedAt  time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName 指定自定义表名，避免自动复数化导致的歧义。
func (LinkStatistic) TableName() string {
	return "link_statistics"
}

// LinkClick 记录访客层面的点击，用于 UV 去重。
type LinkClick struct {
	ID            uint   `gorm:"primaryKey"`
	LinkID        uint   `gorm:"uniqueIndex:idx_link_visitor"`
	VisitorID     string `gorm:"size:64;uniqueIndex:idx_link_visitor"`
	Referrer      string `gorm:"size:512"`
	UserAgent     string `gorm:"size:512"`
	LastClickedAt time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// TableName 指定自定义表名。
func (LinkClick) TableName() string {
	return "link_clicks"
}
