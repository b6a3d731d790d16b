package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/devtrack/internal/db"
	"gorm.io/gorm"
)

var (
	// ErrTagExists 在同名标签已存在时返回
	ErrTagExists = errors.New("tag already exists")
)

// TagService 负责标签的增删改查
// 标签按用户隔离，名称在同一用户下唯一
type TagService struct {
	db *gorm.DB
}

// TagInput 定义创建/更新标签的字段
type TagInput struct {
	Name  string
	Color string
}

// NewTagService 构造 TagService
func NewTagService(gdb *gorm.DB) *TagService {
	return &TagService{db: gdb}
}

// List 返回当前用户的全部标签。
func (s *TagService) List(ownerID uint) ([]db.Tag, error) {
	var tags []db.Tag
	if err := s.db.Where("owner_id = ?", ownerID).
		Order("name ASC").
		Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}

// Get 根据 ID 获取标签。
func (s *TagService) Get(ownerID, id uint) (*db.Tag, error) {
	var tag db.Tag
	if err := s.db.Where("owner_id = ?", ownerID).First(&tag, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get tag: %w", err)
	}
	return &tag, nil
}

// Create 新建标签。
func (s *TagService) Create(ownerID uint, input TagInput) (*db.Tag, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalidField("name", "标签名称不能为空")
	}

	var count int64
	if err := s.db.Model(&db.Tag{}).
		Where("owner_id = ? AND name = ?", ownerID, name).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check tag name: %w", err)
	}
	if count > 0 {
		return nil, ErrTagExists
	}

	tag := db.Tag{OwnerID: ownerID, Name: name, Color: strings.TrimSpace(input.Color)}
	if err := s.db.Create(&tag).Error; err != nil {
		return nil, fmt.Errorf("create tag: %w", err)
	}
	return &tag, nil
}

// Update 更新标签名称与颜色。
func (s *TagService) Update(ownerID, id uint, input TagInput) (*db.Tag, error) {
	tag, err := s.Get(ownerID, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalidField("name", "标签名称不能为空")
	}

	var count int64
	if err := s.db.Model(&db.Tag{}).
		Where("owner_id = ? AND name = ? AND id <> ?", ownerID, name, id).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("check tag name: %w", err)
	}
	if count > 0 {
		return nil, ErrTagExists
	}

	tag.Name = name
	tag.Color = strings.TrimSpace(input.Color)
	if err := s.db.Save(tag).Error; err != nil {
		return nil, fmt.Errorf("update tag: %w", err)
	}
	return tag, nil
}

// Delete 删除标签并清理各实体上的引用。
func (s *TagService) Delete(ownerID, id uint) error {
	tag, err := s.Get(ownerID, id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, join := range []string{"skill_tags", "project_tags", "resource_tags", "time_entry_tags"} {
			if err := tx.Exec(fmt.Sprintf("DELETE FROM %s WHERE tag_id = ?", join), tag.ID).Error; err != nil {
				return fmt.Errorf("clear %s: %w", join, err)
			}
		}
		if err := tx.Delete(&db.Tag{}, tag.ID).Error; err != nil {
			return fmt.Errorf("delete tag: %w", err)
		}
		return nil
	})
}
