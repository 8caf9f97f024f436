package service

import (
	"fmt"
	"strings"

	"github.com/linkpage/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultSiteName   = "Slimmetry"
	defaultTagline    = "Your partner in the journey to confidence."
	defaultSubTagline = "glow. slim. transform."
	defaultFooterText = "Glow · Slim · Transform"
)

// SiteSettings 描述页头与页脚的品牌信息。
type SiteSettings struct {
	SiteName   string
	Tagline    string
	SubTagline string
	LogoURL    string
	FooterText string
	Bio        string
}

// SiteSettingsInput 用于更新品牌信息。
type SiteSettingsInput struct {
	SiteName   string
	Tagline    string
	SubTagline string
	LogoURL    string
	FooterText string
	Bio        string
}

// SiteSettingService 提供品牌信息的读取与更新能力。
type SiteSettingService struct {
	db *gorm.DB
}

// NewSiteSettingService 构造 SiteSettingService。
func NewSiteSettingService(gdb *gorm.DB) *SiteSettingService {
	return &SiteSettingService{db: gdb}
}

var settingKeys = []string{
	db.SettingKeySiteName,
	db.SettingKeyTagline,
	db.SettingKeySubTagline,
	db.SettingKeyLogoURL,
	db.SettingKeyFooterText,
	db.SettingKeyBio,
}

// DefaultSiteSettings 返回未配置时使用的品牌信息。
func DefaultSiteSettings() SiteSettings {
	return SiteSettings{
		SiteName:   defaultSiteName,
		Tagline:    defaultTagline,
		SubTagline: defaultSubTagline,
		FooterText: defaultFooterText,
	}
}

// GetSettings 读取品牌信息，如未设置将返回默认值。
func (s *SiteSettingService) GetSettings() (SiteSettings, error) {
	result := DefaultSiteSettings()

	var records []db.SystemSetting
	if err := s.db.Where("key IN ?", settingKeys).Find(&records).Error; err != nil {
		return result, fmt.Errorf("load site settings: %w", err)
	}

	for _, record := range records {
		value := strings.TrimSpace(record.Value)
		switch record.Key {
		case db.SettingKeySiteName:
			if value != "" {
				result.SiteName = value
			}
		case db.SettingKeyTagline:
			result.Tagline = value
		case db.SettingKeySubTagline:
			result.SubTagline = value
		case db.SettingKeyLogoURL:
			result.LogoURL = value
		case db.SettingKeyFooterText:
			result.FooterText = value
		case db.SettingKeyBio:
			result.Bio = record.Value
		}
	}

	return result, nil
}

// UpdateSettings 保存品牌信息，未填写站点名称时回退默认值。
func (s *SiteSettingService) UpdateSettings(input SiteSettingsInput) (SiteSettings, error) {
	sanitized := SiteSettings{
		SiteName:   stripMarkup(input.SiteName),
		Tagline:    stripMarkup(input.Tagline),
		SubTagline: stripMarkup(input.SubTagline),
		LogoURL:    strings.TrimSpace(input.LogoURL),
		FooterText: stripMarkup(input.FooterText),
		Bio:        strings.TrimSpace(input.Bio),
	}
	if sanitized.SiteName == "" {
		sanitized.SiteName = defaultSiteName
	}

	values := map[string]string{
		db.SettingKeySiteName:   sanitized.SiteName,
		db.SettingKeyTagline:    sanitized.Tagline,
		db.SettingKeySubTagline: sanitized.SubTagline,
		db.SettingKeyLogoURL:    sanitized.LogoURL,
		db.SettingKeyFooterText: sanitized.FooterText,
		db.SettingKeyBio:        sanitized.Bio,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, key := range settingKeys {
			if err := upsertSetting(tx, key, values[key]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return SiteSettings{}, fmt.Errorf("update site settings: %w", err)
	}

	return sanitized, nil
}

func upsertSetting(tx *gorm.DB, key, value string) error {
	setting := db.SystemSetting{Key: key, Value: value}
	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"value":      value,
			"updated_at": gorm.Expr("CURRENT_TIMESTAMP"),
		}),
	}).Create(&setting).Error; err != nil {
		return fmt.Errorf("upsert setting %s: %w", key, err)
	}
	return nil
}
