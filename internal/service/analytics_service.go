package service

import (
	"errors"
	"strings"
	"time"

	"github.com/linkpage/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClickInfo 描述一次点击的来源信息。
type ClickInfo struct {
	VisitorID string
	Referrer  string
	UserAgent string
}

// AnalyticsService 负责处理链接点击相关的统计逻辑。
type AnalyticsService struct {
	db *gorm.DB
}

// NewAnalyticsService 创建 AnalyticsService。
func NewAnalyticsService(gdb *gorm.DB) *AnalyticsService {
	return &AnalyticsService{db: gdb}
}

// RecordLinkClick 记录访客对链接的点击，并返回最新的统计数据。
func (s *AnalyticsService) RecordLinkClick(linkID uint, info ClickInfo, now time.Time) (*db.LinkStatistic, error) {
	if info.VisitorID == "" || linkID == 0 {
		return nil, errors.New("invalid visitor or link id")
	}

	var stats db.LinkStatistic

	if err := s.db.Transaction(func(tx *gorm.DB) error {
		click := db.LinkClick{
			LinkID:        linkID,
			VisitorID:     info.VisitorID,
			Referrer:      truncate(info.Referrer, 512),
			UserAgent:     truncate(info.UserAgent, 512),
			LastClickedAt: now,
		}
		insert := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "link_id"}, {Name: "visitor_id"}},
			DoNothing: true,
		}).Create(&click)
		if insert.Error != nil {
			return insert.Error
		}

		isNewVisitor := insert.RowsAffected == 1
		if !isNewVisitor {
			if err := tx.Model(&db.LinkClick{}).
				Where("link_id = ? AND visitor_id = ?", linkID, info.VisitorID).
				Update("last_clicked_at", now).Error; err != nil {
				return err
			}
		}

		statsResult := tx.Where("link_id = ?", linkID).First(&stats)
		switch {
		case errors.Is(statsResult.Error, gorm.ErrRecordNotFound):
			stats = db.LinkStatistic{LinkID: linkID}
			if err := tx.Create(&stats).Error; err != nil {
				return err
			}
		case statsResult.Error != nil:
			return statsResult.Error
		}

		stats.Clicks++
		if isNewVisitor {
			stats.UniqueVisitors++
		}
		stats.LastClickedAt = now

		return tx.Save(&stats).Error
	}); err != nil {
		return nil, err
	}

	return &stats, nil
}

// LinkStatsMap 返回指定链接的统计数据，没有点击的链接不会出现在结果中。
func (s *AnalyticsService) LinkStatsMap(linkIDs []uint) (map[uint]db.LinkStatistic, error) {
	result := make(map[uint]db.LinkStatistic, len(linkIDs))
	if len(linkIDs) == 0 {
		return result, nil
	}

	var stats []db.LinkStatistic
	if err := s.db.Where("link_id IN ?", linkIDs).Find(&stats).Error; err != nil {
		return nil, err
	}

	for _, stat := range stats {
		result[stat.LinkID] = stat
	}
	return result, nil
}

// ForgetLink 在链接删除后清理其点击数据。
func (s *AnalyticsService) ForgetLink(linkID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("link_id = ?", linkID).Delete(&db.LinkClick{}).Error; err != nil {
			return err
		}
		return tx.Where("link_id = ?", linkID).Delete(&db.LinkStatistic{}).Error
	})
}

func truncate(value string, limit int) string {
	trimmed := strings.TrimSpace(value)
	runes := []rune(trimmed)
	if len(runes) <= limit {
		return trimmed
	}
	return string(runes[:limit])
}
