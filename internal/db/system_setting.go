package db

import "gorm.io/gorm"

// SystemSetting 存储后台可配置的系统级键值对。
type SystemSetting struct {
	gorm.Model
	Key   string `gorm:"size:100;uniqueIndex;not null"`
	Value string `gorm:"type:text"`
}

// TableName 自定义表名以保持命名一致。
func (SystemSetting) TableName() string {
	return "system_settings"
}

const (
	// SettingKeySiteName 表示站点名称。
	SettingKeySiteName = "site_name"
	// SettingKeyTagline 表示页头主标语。
	SettingKeyTagline = "tagline"
	// SettingKeySubTagline 表示页头副标语。
	SettingKeySubTagline = "sub_tagline"
	// SettingKeyLogoURL 表示站点 Logo 链接。
	SettingKeyLogoURL = "logo_url"
	// SettingKeyFooterText 表示页脚标语。
	SettingKeyFooterText = "footer_text"
	// SettingKeyBio 表示页头下方的 Markdown 简介。
	SettingKeyBio = "bio"
)
