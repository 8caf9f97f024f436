package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/linkpage/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ErrInvalidCredentials 表示用户名或密码错误。
var ErrInvalidCredentials = errors.New("invalid username or password")

// AuthService 校验后台管理员凭据。
type AuthService struct {
	db *gorm.DB
}

// NewAuthService 构造 AuthService
func NewAuthService(gdb *gorm.DB) *AuthService {
	return &AuthService{db: gdb}
}

// Authenticate 根据用户名查找管理员并比对 bcrypt 哈希
func (s *AuthService) Authenticate(username, password string) (*db.User, error) {
	trimmed := strings.TrimSpace(username)
	if trimmed == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	var user db.User
	if err := s.db.Where("username = ?", trimmed).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &user, nil
}
