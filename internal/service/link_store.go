package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/linkpage/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrLinkNotFound 在指定的链接不存在时返回
	ErrLinkNotFound = errors.New("link not found")
	// ErrLinkInvalidInput 在输入数据不完整或格式错误时返回
	ErrLinkInvalidInput = errors.New("invalid link input")
)

// StoreError 包装链接存储返回的任何失败（网络、校验、权限策略等）。
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("link store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// wrapStoreError 将底层错误包装为 StoreError，ErrLinkNotFound 原样返回。
func wrapStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrLinkNotFound) {
		return err
	}
	var storeErr *StoreError
	if errors.As(err, &storeErr) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// LinkStore 是链接记录的持久化边界。
// List 按 order 升序（相同时按 id 升序）返回全部链接；
// MaxOrder 在没有任何链接时返回 -1；
// Update/Delete 找不到目标时返回 ErrLinkNotFound。
type LinkStore interface {
	List(ctx context.Context) ([]db.Link, error)
	Get(ctx context.Context, id uint) (*db.Link, error)
	MaxOrder(ctx context.Context) (int, error)
	Insert(ctx context.Context, link *db.Link) error
	Update(ctx context.Context, id uint, patch db.LinkPatch) (*db.Link, error)
	Delete(ctx context.Context, id uint) error
	SetOrder(ctx context.Context, ids []uint) error
}

// GormLinkStore 使用 gorm 将链接保存在本地数据库中。
type GormLinkStore struct {
	db *gorm.DB
}

// NewGormLinkStore 构造 GormLinkStore
func NewGormLinkStore(gdb *gorm.DB) *GormLinkStore {
	return &GormLinkStore{db: gdb}
}

var orderColumn = clause.Column{Name: "order"}

func (s *GormLinkStore) List(ctx context.Context) ([]db.Link, error) {
	var links []db.Link
	err := s.db.WithContext(ctx).
		Order(clause.OrderByColumn{Column: orderColumn}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Find(&links).Error
	if err != nil {
		return nil, wrapStoreError("list", err)
	}
	return links, nil
}

func (s *GormLinkStore) Get(ctx context.Context, id uint) (*db.Link, error) {
	var link db.Link
	if err := s.db.WithContext(ctx).First(&link, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, wrapStoreError("get", err)
	}
	return &link, nil
}

func (s *GormLinkStore) MaxOrder(ctx context.Context) (int, error) {
	var maxOrder int
	if err := s.db.WithContext(ctx).Model(&db.Link{}).
		Select(`COALESCE(MAX("order"), -1)`).
		Scan(&maxOrder).Error; err != nil {
		return 0, wrapStoreError("max order", err)
	}
	return maxOrder, nil
}

func (s *GormLinkStore) Insert(ctx context.Context, link *db.Link) error {
	if err := s.db.WithContext(ctx).Create(link).Error; err != nil {
		return wrapStoreError("insert", err)
	}
	return nil
}

func (s *GormLinkStore) Update(ctx context.Context, id uint, patch db.LinkPatch) (*db.Link, error) {
	// 只写可编辑的列，order 只由 SetOrder 维护
	result := s.db.WithContext(ctx).Model(&db.Link{}).Where("id = ?", id).
		Updates(map[string]any{"text": patch.Text, "href": patch.Href, "icon": patch.Icon})
	if result.Error != nil {
		return nil, wrapStoreError("update", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrLinkNotFound
	}
	return s.Get(ctx, id)
}

func (s *GormLinkStore) Delete(ctx context.Context, id uint) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&db.Link{})
	if result.Error != nil {
		return wrapStoreError("delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}

// SetOrder 按给定顺序依次赋值 0,1,2...，未包含的条目保持原排序
func (s *GormLinkStore) SetOrder(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for index, id := range ids {
			if err := tx.Model(&db.Link{}).Where("id = ?", id).Update("order", index).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return wrapStoreError("reorder", err)
	}
	return nil
}
