package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/devtrack/gate"
	"github.com/devtrack/internal/db"
	"gorm.io/gorm"
)

var skillCategories = map[string]bool{
	"language": true, "framework": true, "library": true,
	"tool": true, "database": true, "runtime": true, "other": true,
}

var skillStatuses = map[string]bool{
	gate.SkillWantToLearn: true,
	gate.SkillLearning:    true,
	gate.SkillMastered:    true,
}

// SkillService 负责技能数据的增删改查与批量更新
// 所有查询都以 owner 过滤，跨租户的 ID 一律按不存在处理
type SkillService struct {
	db         *gorm.DB
	activities *ActivityService
}

// SkillInput 定义创建/更新技能时可配置字段
type SkillInput struct {
	Name       string
	Category   string
	Status     string
	Icon       string
	ProjectIDs []uint
	TagIDs     []uint
}

// SkillPatch 定义批量更新的可变字段，nil 表示不变更
type SkillPatch struct {
	Name     *string `json:"name"`
	Category *string `json:"category"`
	Status   *string `json:"status"`
	Icon     *string `json:"icon"`
}

// SkillBatchItem 是批量更新中的单条目
type SkillBatchItem struct {
	ID   uint       `json:"id"`
	Data SkillPatch `json:"data"`
}

// SkillBatchResult 汇总批量更新的逐条结果
type SkillBatchResult struct {
	Updated []db.Skill
	Errors  []BatchError
}

// SkillFilter 描述列表过滤条件
type SkillFilter struct {
	Pagination
	Status    string
	Category  string
	Search    string
	TagIDs    []uint
	SortBy    string
	SortOrder string
}

// SkillListResult 是分页后的技能集合
type SkillListResult struct {
	Items []db.Skill
	Total int64
}

// NewSkillService 构造 SkillService
func NewSkillService(gdb *gorm.DB, activities *ActivityService) *SkillService {
	return &SkillService{db: gdb, activities: activities}
}

// List 返回技能集合，支持筛选/分页/排序。
func (s *SkillService) List(ownerID uint, filter SkillFilter) (*SkillListResult, error) {
	filter.Normalize()

	query := s.db.Model(&db.Skill{}).Where("skills.owner_id = ?", ownerID)

	if filter.Status != "" {
		query = query.Where("skills.status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("skills.category = ?", filter.Category)
	}
	if filter.Search != "" {
		like := fmt.Sprintf("%%%s%%", strings.TrimSpace(filter.Search))
		query = query.Where("skills.name LIKE ?", like)
	}
	if len(filter.TagIDs) > 0 {
		query = query.
			Joins("JOIN skill_tags ON skill_tags.skill_id = skills.id").
			Where("skill_tags.tag_id IN ?", filter.TagIDs).
			Distinct("skills.*")
	}

	result := &SkillListResult{}
	if err := query.Count(&result.Total).Error; err != nil {
		return nil, fmt.Errorf("count skills: %w", err)
	}

	if err := query.Preload("Projects").Preload("Tags").
		Order(sortClause("skills", filter.SortBy, filter.SortOrder)).
		Limit(filter.Limit).Offset(filter.Offset()).
		Find(&result.Items).Error; err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}

	return result, nil
}

// Get 根据 ID 获取技能，跨租户按不存在处理。
func (s *SkillService) Get(ownerID, id uint) (*db.Skill, error) {
	var skill db.Skill
	if err := s.db.Preload("Projects").Preload("Tags").
		Where("owner_id = ?", ownerID).
		First(&skill, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get skill: %w", err)
	}
	return &skill, nil
}

// Create 新建技能，并记录一条 learning 动态。
func (s *SkillService) Create(ownerID uint, input SkillInput) (*db.Skill, error) {
	if err := validateSkillInput(input); err != nil {
		return nil, err
	}

	projects, err := s.ownedProjects(ownerID, input.ProjectIDs)
	if err != nil {
		return nil, err
	}
	tags, err := ownedTags(s.db, ownerID, input.TagIDs)
	if err != nil {
		return nil, err
	}

	if verdict := gate.CheckSkillStatus(input.Status, projectRefs(projects)); !verdict.Valid {
		return nil, invalidField("status", verdict.Reason)
	}

	skill := db.Skill{
		OwnerID:  ownerID,
		Name:     strings.TrimSpace(input.Name),
		Category: normalizeEnum(input.Category, skillCategories, "other"),
		Status:   normalizeEnum(input.Status, skillStatuses, gate.SkillWantToLearn),
		Icon:     strings.TrimSpace(input.Icon),
		Projects: projects,
		Tags:     tags,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&skill).Error; err != nil {
			return fmt.Errorf("create skill: %w", err)
		}
		_, err := s.activities.LogTx(tx, ownerID, ActivityInput{
			Type:        ActivityLearning,
			Description: fmt.Sprintf("开始学习 %s", skill.Name),
			SkillID:     &skill.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	return &skill, nil
}

// Update 全量更新技能，状态进入 mastered 时执行 gate 校验并记录里程碑。
func (s *SkillService) Update(ownerID, id uint, input SkillInput) (*db.Skill, error) {
	if err := validateSkillInput(input); err != nil {
		return nil, err
	}

	existing, err := s.Get(ownerID, id)
	if err != nil {
		return nil, err
	}

	projects, err := s.ownedProjects(ownerID, input.ProjectIDs)
	if err != nil {
		return nil, err
	}
	tags, err := ownedTags(s.db, ownerID, input.TagIDs)
	if err != nil {
		return nil, err
	}

	newStatus := normalizeEnum(input.Status, skillStatuses, gate.SkillWantToLearn)
	if verdict := gate.CheckSkillStatus(newStatus, projectRefs(projects)); !verdict.Valid {
		return nil, invalidField("status", verdict.Reason)
	}

	becameMastered := newStatus == gate.SkillMastered && existing.Status != gate.SkillMastered

	existing.Name = strings.TrimSpace(input.Name)
	existing.Category = normalizeEnum(input.Category, skillCategories, "other")
	existing.Status = newStatus
	existing.Icon = strings.TrimSpace(input.Icon)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(existing).Association("Projects").Replace(projects); err != nil {
			return fmt.Errorf("replace skill projects: %w", err)
		}
		if err := tx.Model(existing).Association("Tags").Replace(tags); err != nil {
			return fmt.Errorf("replace skill tags: %w", err)
		}
		if err := tx.Omit("Projects", "Tags").Save(existing).Error; err != nil {
			return fmt.Errorf("update skill: %w", err)
		}
		if becameMastered {
			_, err := s.activities.LogTx(tx, ownerID, ActivityInput{
				Type:        ActivityMilestone,
				Description: fmt.Sprintf("掌握了 %s", existing.Name),
				SkillID:     &existing.ID,
			})
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	existing.Projects = projects
	existing.Tags = tags
	return existing, nil
}

// Delete 删除技能并清理正反向关联。
func (s *SkillService) Delete(ownerID, id uint) error {
	skill, err := s.Get(ownerID, id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(skill).Association("Projects").Clear(); err != nil {
			return fmt.Errorf("clear skill projects: %w", err)
		}
		if err := tx.Model(skill).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("clear skill tags: %w", err)
		}
		if err := tx.Delete(&db.Skill{}, skill.ID).Error; err != nil {
			return fmt.Errorf("delete skill: %w", err)
		}
		return nil
	})
}

// BatchUpdate 按顺序逐条校验，校验通过的条目在单个事务中一次性落库。
// 校验失败的条目以逐条错误返回，不影响其余条目。
func (s *SkillService) BatchUpdate(ownerID uint, items []SkillBatchItem) (*SkillBatchResult, error) {
	if len(items) > MaxBatchSize {
		return nil, ErrBatchTooLarge
	}

	result := &SkillBatchResult{
		Updated: make([]db.Skill, 0, len(items)),
		Errors:  make([]BatchError, 0),
	}

	type staged struct {
		skill          *db.Skill
		becameMastered bool
	}
	stagedWrites := make([]staged, 0, len(items))

	for _, item := range items {
		skill, err := s.Get(ownerID, item.ID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				result.Errors = append(result.Errors, BatchError{
					ID: item.ID, Code: BatchErrNotFound, Message: "技能不存在",
				})
				continue
			}
			return nil, err
		}

		oldStatus := skill.Status
		applySkillPatch(skill, item.Data)

		if verdict := gate.CheckSkillStatus(skill.Status, projectRefs(skill.Projects)); !verdict.Valid {
			result.Errors = append(result.Errors, BatchError{
				ID: item.ID, Code: BatchErrValidation, Message: verdict.Reason,
			})
			continue
		}
		if !skillStatuses[skill.Status] {
			result.Errors = append(result.Errors, BatchError{
				ID: item.ID, Code: BatchErrValidation, Message: "不支持的技能状态",
			})
			continue
		}
		if !skillCategories[skill.Category] {
			result.Errors = append(result.Errors, BatchError{
				ID: item.ID, Code: BatchErrValidation, Message: "不支持的技能分类",
			})
			continue
		}

		stagedWrites = append(stagedWrites, staged{
			skill:          skill,
			becameMastered: skill.Status == gate.SkillMastered && oldStatus != gate.SkillMastered,
		})
	}

	// 已通过校验的条目要么全部提交要么全部回滚
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, w := range stagedWrites {
			if err := tx.Omit("Projects", "Tags").Save(w.skill).Error; err != nil {
				return fmt.Errorf("save skill %d: %w", w.skill.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 动态只在提交成功后记录，避免为未落库的写入留下日志
	for _, w := range stagedWrites {
		result.Updated = append(result.Updated, *w.skill)
		if w.becameMastered {
			if _, err := s.activities.Log(ownerID, ActivityInput{
				Type:        ActivityMilestone,
				Description: fmt.Sprintf("掌握了 %s", w.skill.Name),
				SkillID:     &w.skill.ID,
			}); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

func applySkillPatch(skill *db.Skill, patch SkillPatch) {
	if patch.Name != nil {
		skill.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Category != nil {
		skill.Category = strings.TrimSpace(*patch.Category)
	}
	if patch.Status != nil {
		skill.Status = strings.TrimSpace(*patch.Status)
	}
	if patch.Icon != nil {
		skill.Icon = strings.TrimSpace(*patch.Icon)
	}
}

func validateSkillInput(input SkillInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return invalidField("name", "技能名称不能为空")
	}
	if input.Category != "" && !skillCategories[strings.TrimSpace(input.Category)] {
		return invalidField("category", "不支持的技能分类")
	}
	if input.Status != "" && !skillStatuses[strings.TrimSpace(input.Status)] {
		return invalidField("status", "不支持的技能状态")
	}
	return nil
}

// ownedProjects 解析关联项目 ID，任何不属于当前用户的 ID 都视为不存在。
func (s *SkillService) ownedProjects(ownerID uint, ids []uint) ([]db.Project, error) {
	if len(ids) == 0 {
		return []db.Project{}, nil
	}
	var projects []db.Project
	if err := s.db.Where("owner_id = ? AND id IN ?", ownerID, ids).Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("load linked projects: %w", err)
	}
	if len(projects) != len(uniqueIDs(ids)) {
		return nil, invalidField("projectIds", "存在无效的项目 ID")
	}
	return projects, nil
}

func projectRefs(projects []db.Project) []gate.ProjectRef {
	refs := make([]gate.ProjectRef, 0, len(projects))
	for _, p := range projects {
		refs = append(refs, gate.ProjectRef{ID: p.ID, Status: p.Status})
	}
	return refs
}

func ownedTags(gdb *gorm.DB, ownerID uint, ids []uint) ([]db.Tag, error) {
	if len(ids) == 0 {
		return []db.Tag{}, nil
	}
	var tags []db.Tag
	if err := gdb.Where("owner_id = ? AND id IN ?", ownerID, ids).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("load tags: %w", err)
	}
	if len(tags) != len(uniqueIDs(ids)) {
		return nil, invalidField("tagIds", "存在无效的标签 ID")
	}
	return tags, nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

func normalizeEnum(value string, allowed map[string]bool, fallback string) string {
	trimmed := strings.TrimSpace(strings.ToLower(value))
	if allowed[trimmed] {
		return trimmed
	}
	return fallback
}

// sortClause 将排序参数映射到白名单内的列，避免拼接任意 SQL。
func sortClause(table, sortBy, sortOrder string) string {
	column := "created_at"
	switch strings.TrimSpace(sortBy) {
	case "name", "title":
		column = "name"
	case "status":
		column = "status"
	case "updatedAt", "updated_at":
		column = "updated_at"
	case "createdAt", "created_at", "":
		column = "created_at"
	}

	order := "DESC"
	if strings.EqualFold(strings.TrimSpace(sortOrder), "asc") {
		order = "ASC"
	}

	return fmt.Sprintf("%s.%s %s", table, column, order)
}
