package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/devtrack/internal/db"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

// UserService 负责用户档案
// 身份校验由外部提供方完成，本服务只在首次见到 subject 时惰性建档
// subject → 用户的映射带短期缓存，避免每个请求都查库
type UserService struct {
	db    *gorm.DB
	cache *gocache.Cache
}

// ProfileInput 定义可由用户修改的档案字段，nil 表示不变更
type ProfileInput struct {
	DisplayName *string
	Preferences *string
}

// NewUserService 构造 UserService
func NewUserService(gdb *gorm.DB) *UserService {
	return &UserService{
		db:    gdb,
		cache: gocache.New(5*time.Minute, 10*time.Minute),
	}
}

// EnsureUser 按 subject 返回用户，不存在则创建。
func (s *UserService) EnsureUser(subject, email, displayName string) (*db.User, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return nil, invalidField("subject", "缺少身份标识")
	}

	if cached, found := s.cache.Get(subject); found {
		if user, ok := cached.(*db.User); ok {
			return user, nil
		}
	}

	var user db.User
	err := s.db.Where("subject = ?", subject).First(&user).Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("load user: %w", err)
		}
		user = db.User{
			Subject:     subject,
			Email:       strings.TrimSpace(email),
			DisplayName: strings.TrimSpace(displayName),
			Role:        "user",
		}
		if err := s.db.Create(&user).Error; err != nil {
			return nil, fmt.Errorf("create user: %w", err)
		}
	}

	s.cache.Set(subject, &user, gocache.DefaultExpiration)
	return &user, nil
}

// Get 按 ID 返回用户。
func (s *UserService) Get(id uint) (*db.User, error) {
	var user db.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &user, nil
}

// UpdateProfile 更新展示名与偏好，偏好必须是合法 JSON。
func (s *UserService) UpdateProfile(id uint, input ProfileInput) (*db.User, error) {
	user, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if input.DisplayName != nil {
		user.DisplayName = strings.TrimSpace(*input.DisplayName)
	}
	if input.Preferences != nil {
		prefs := strings.TrimSpace(*input.Preferences)
		if prefs != "" && !json.Valid([]byte(prefs)) {
			return nil, invalidField("preferences", "偏好必须是合法的 JSON")
		}
		user.Preferences = prefs
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}

	s.cache.Delete(user.Subject)
	return user, nil
}
