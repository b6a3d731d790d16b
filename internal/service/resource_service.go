package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/devtrack/internal/db"
	"gorm.io/gorm"
)

var resourceTypes = map[string]bool{
	"documentation": true, "video": true, "course": true,
	"article": true, "tutorial": true, "other": true,
}

// ResourceService 负责学习资源的增删改查与批量更新
type ResourceService struct {
	db *gorm.DB
}

// ResourceInput 定义创建/更新资源时可配置字段
type ResourceInput struct {
	Title     string
	URL       string
	Type      string
	SkillID   *uint
	ProjectID *uint
	Notes     string
	Read      bool
	Favorite  bool
	TagIDs    []uint
}

// ResourcePatch 定义批量更新的可变字段，nil 表示不变更
type ResourcePatch struct {
	Title    *string `json:"title"`
	URL      *string `json:"url"`
	Type     *string `json:"type"`
	Notes    *string `json:"notes"`
	Read     *bool   `json:"read"`
	Favorite *bool   `json:"favorite"`
}

// ResourceBatchItem 是批量更新中的单条目
type ResourceBatchItem struct {
	ID   uint          `json:"id"`
	Data ResourcePatch `json:"data"`
}

// ResourceBatchResult 汇总批量更新的逐条结果
type ResourceBatchResult struct {
	Updated []db.Resource
	Errors  []BatchError
}

// ResourceFilter 描述列表过滤条件
type ResourceFilter struct {
	Pagination
	Type      string
	SkillID   *uint
	ProjectID *uint
	Read      *bool
	Favorite  *bool
	Search    string
	TagIDs    []uint
	SortBy    string
	SortOrder string
}

// ResourceListResult 是分页后的资源集合
type ResourceListResult struct {
	Items []db.Resource
	Total int64
}

// NewResourceService 构造 ResourceService
func NewResourceService(gdb *gorm.DB) *ResourceService {
	return &ResourceService{db: gdb}
}

// List 返回资源集合，支持筛选/分页/排序。
func (s *ResourceService) List(ownerID uint, filter ResourceFilter) (*ResourceListResult, error) {
	filter.Normalize()

	query := s.db.Model(&db.Resource{}).Where("resources.owner_id = ?", ownerID)

	if filter.Type != "" {
		query = query.Where("resources.type = ?", filter.Type)
	}
	if filter.SkillID != nil {
		query = query.Where("resources.skill_id = ?", *filter.SkillID)
	}
	if filter.ProjectID != nil {
		query = query.Where("resources.project_id = ?", *filter.ProjectID)
	}
	if filter.Read != nil {
		query = query.Where("resources.read = ?", *filter.Read)
	}
	if filter.Favorite != nil {
		query = query.Where("resources.favorite = ?", *filter.Favorite)
	}
	if filter.Search != "" {
		like := fmt.Sprintf("%%%s%%", strings.TrimSpace(filter.Search))
		query = query.Where("resources.title LIKE ? OR resources.notes LIKE ?", like, like)
	}
	if len(filter.TagIDs) > 0 {
		query = query.
			Joins("JOIN resource_tags ON resource_tags.resource_id = resources.id").
			Where("resource_tags.tag_id IN ?", filter.TagIDs).
			Distinct("resources.*")
	}

	result := &ResourceListResult{}
	if err := query.Count(&result.Total).Error; err != nil {
		return nil, fmt.Errorf("count resources: %w", err)
	}

	if err := query.Preload("Tags").
		Order(resourceSortClause(filter.SortBy, filter.SortOrder)).
		Limit(filter.Limit).Offset(filter.Offset()).
		Find(&result.Items).Error; err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}

	return result, nil
}

// Get 根据 ID 获取资源，跨租户按不存在处理。
func (s *ResourceService) Get(ownerID, id uint) (*db.Resource, error) {
	var resource db.Resource
	if err := s.db.Preload("Tags").
		Where("owner_id = ?", ownerID).
		First(&resource, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get resource: %w", err)
	}
	return &resource, nil
}

// Create 新建资源。
func (s *ResourceService) Create(ownerID uint, input ResourceInput) (*db.Resource, error) {
	if err := s.validateResourceInput(ownerID, input); err != nil {
		return nil, err
	}

	tags, err := ownedTags(s.db, ownerID, input.TagIDs)
	if err != nil {
		return nil, err
	}

	resource := db.Resource{
		OwnerID:   ownerID,
		Title:     strings.TrimSpace(input.Title),
		URL:       strings.TrimSpace(input.URL),
		Type:      normalizeEnum(input.Type, resourceTypes, "other"),
		SkillID:   input.SkillID,
		ProjectID: input.ProjectID,
		Notes:     input.Notes,
		Read:      input.Read,
		Favorite:  input.Favorite,
		Tags:      tags,
	}

	if err := s.db.Create(&resource).Error; err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	return &resource, nil
}

// Update 全量更新资源。
func (s *ResourceService) Update(ownerID, id uint, input ResourceInput) (*db.Resource, error) {
	if err := s.validateResourceInput(ownerID, input); err != nil {
		return nil, err
	}

	existing, err := s.Get(ownerID, id)
	if err != nil {
		return nil, err
	}

	tags, err := ownedTags(s.db, ownerID, input.TagIDs)
	if err != nil {
		return nil, err
	}

	existing.Title = strings.TrimSpace(input.Title)
	existing.URL = strings.TrimSpace(input.URL)
	existing.Type = normalizeEnum(input.Type, resourceTypes, "other")
	existing.SkillID = input.SkillID
	existing.ProjectID = input.ProjectID
	existing.Notes = input.Notes
	existing.Read = input.Read
	existing.Favorite = input.Favorite

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(existing).Association("Tags").Replace(tags); err != nil {
			return fmt.Errorf("replace resource tags: %w", err)
		}
		if err := tx.Omit("Tags").Save(existing).Error; err != nil {
			return fmt.Errorf("update resource: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	existing.Tags = tags
	return existing, nil
}

// Delete 删除资源。
func (s *ResourceService) Delete(ownerID, id uint) error {
	resource, err := s.Get(ownerID, id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(resource).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("clear resource tags: %w", err)
		}
		if err := tx.Delete(&db.Resource{}, resource.ID).Error; err != nil {
			return fmt.Errorf("delete resource: %w", err)
		}
		return nil
	})
}

// BatchUpdate 逐条校验后在单个事务中提交。
func (s *ResourceService) BatchUpdate(ownerID uint, items []ResourceBatchItem) (*ResourceBatchResult, error) {
	if len(items) > MaxBatchSize {
		return nil, ErrBatchTooLarge
	}

	result := &ResourceBatchResult{
		Updated: make([]db.Resource, 0, len(items)),
		Errors:  make([]BatchError, 0),
	}

	stagedWrites := make([]*db.Resource, 0, len(items))

	for _, item := range items {
		resource, err := s.Get(ownerID, item.ID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				result.Errors = append(result.Errors, BatchError{
					ID: item.ID, Code: BatchErrNotFound, Message: "资源不存在",
				})
				continue
			}
			return nil, err
		}

		applyResourcePatch(resource, item.Data)

		if resource.Title == "" {
			result.Errors = append(result.Errors, BatchError{
				ID: item.ID, Code: BatchErrValidation, Message: "资源标题不能为空",
			})
			continue
		}
		if !resourceTypes[resource.Type] {
			result.Errors = append(result.Errors, BatchError{
				ID: item.ID, Code: BatchErrValidation, Message: "不支持的资源类型",
			})
			continue
		}

		stagedWrites = append(stagedWrites, resource)
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, resource := range stagedWrites {
			if err := tx.Omit("Tags").Save(resource).Error; err != nil {
				return fmt.Errorf("save resource %d: %w", resource.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, resource := range stagedWrites {
		result.Updated = append(result.Updated, *resource)
	}
	return result, nil
}

func applyResourcePatch(resource *db.Resource, patch ResourcePatch) {
	if patch.Title != nil {
		resource.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.URL != nil {
		resource.URL = strings.TrimSpace(*patch.URL)
	}
	if patch.Type != nil {
		resource.Type = strings.TrimSpace(*patch.Type)
	}
	if patch.Notes != nil {
		resource.Notes = *patch.Notes
	}
	if patch.Read != nil {
		resource.Read = *patch.Read
	}
	if patch.Favorite != nil {
		resource.Favorite = *patch.Favorite
	}
}

// validateResourceInput 校验输入并确认关联的技能/项目属于当前用户。
func (s *ResourceService) validateResourceInput(ownerID uint, input ResourceInput) error {
	if strings.TrimSpace(input.Title) == "" {
		return invalidField("title", "资源标题不能为空")
	}
	if input.Type != "" && !resourceTypes[strings.TrimSpace(input.Type)] {
		return invalidField("type", "不支持的资源类型")
	}

	if input.SkillID != nil {
		var count int64
		if err := s.db.Model(&db.Skill{}).
			Where("owner_id = ? AND id = ?", ownerID, *input.SkillID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("check linked skill: %w", err)
		}
		if count == 0 {
			return invalidField("skillId", "关联的技能不存在")
		}
	}
	if input.ProjectID != nil {
		var count int64
		if err := s.db.Model(&db.Project{}).
			Where("owner_id = ? AND id = ?", ownerID, *input.ProjectID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("check linked project: %w", err)
		}
		if count == 0 {
			return invalidField("projectId", "关联的项目不存在")
		}
	}
	return nil
}

func resourceSortClause(sortBy, sortOrder string) string {
	column := "created_at"
	switch strings.TrimSpace(sortBy) {
	case "title":
		column = "title"
	case "type":
		column = "type"
	case "updatedAt", "updated_at":
		column = "updated_at"
	}

	order := "DESC"
	if strings.EqualFold(strings.TrimSpace(sortOrder), "asc") {
		order = "ASC"
	}

	return fmt.Sprintf("resources.%s %s", column, order)
}
