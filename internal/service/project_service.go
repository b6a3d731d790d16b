package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/devtrack/gate"
	"github.com/devtrack/internal/db"
	"gorm.io/gorm"
)

var projectStatuses = map[string]bool{
	gate.ProjectIdea:      true,
	gate.ProjectActive:    true,
	gate.ProjectCompleted: true,
	gate.ProjectOnHold:    true,
	gate.ProjectArchived:  true,
}

// ProjectService 负责项目数据的增删改查与批量更新
// 删除项目会级联维护技能侧的关联与 mastered 状态
type ProjectService struct {
	db         *gorm.DB
	activities *ActivityService
}

// ProjectInput 定义创建/更新项目时可配置字段
type ProjectInput struct {
	Name        string
	Description string
	Status      string
	GithubURL   string
	DemoURL     string
	TechStack   []string
	SkillIDs    []uint
	TagIDs      []uint
}

// ProjectPatch 定义批量更新的可变字段，nil 表示不变更
type ProjectPatch struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Status      *string  `json:"status"`
	GithubURL   *string  `json:"githubUrl"`
	DemoURL     *string  `json:"demoUrl"`
	TechStack   []string `json:"techStack"`
}

// ProjectBatchItem 是批量更新中的单条目
type ProjectBatchItem struct {
	ID   uint         `json:"id"`
	Data ProjectPatch `json:"data"`
}

// ProjectBatchResult 汇总批量更新的逐条结果
type ProjectBatchResult struct {
	Updated []db.Project
	Errors  []BatchError
}

// ProjectFilter 描述列表过滤条件
type ProjectFilter struct {
	Pagination
	Status    string
	Search    string
	TagIDs    []uint
	SortBy    string
	SortOrder string
}

// ProjectListResult 是分页后的项目集合
type ProjectListResult struct {
	Items []db.Project
	Total int64
}

// NewProjectService 构造 ProjectService
func NewProjectService(gdb *gorm.DB, activities *ActivityService) *ProjectService {
	return &ProjectService{db: gdb, activities: activities}
}

// List 返回项目集合，支持筛选/分页/排序。
func (s *ProjectService) List(ownerID uint, filter ProjectFilter) (*ProjectListResult, error) {
	filter.Normalize()

	query := s.db.Model(&db.Project{}).Where("projects.owner_id = ?", ownerID)

	if filter.Status != "" {
		query = query.Where("projects.status = ?", filter.Status)
	}
	if filter.Search != "" {
		like := fmt.Sprintf("%%%s%%", strings.TrimSpace(filter.Search))
		query = query.Where("projects.name LIKE ? OR projects.description LIKE ?", like, like)
	}
	if len(filter.TagIDs) > 0 {
		query = query.
			Joins("JOIN project_tags ON project_tags.project_id = projects.id").
			Where("project_tags.tag_id IN ?", filter.TagIDs).
			Distinct("projects.*")
	}

	result := &ProjectListResult{}
	if err := query.Count(&result.Total).Error; err != nil {
		return nil, fmt.Errorf("count projects: %w", err)
	}

	if err := query.Preload("Skills").Preload("Tags").
		Order(sortClause("projects", filter.SortBy, filter.SortOrder)).
		Limit(filter.Limit).Offset(filter.Offset()).
		Find(&result.Items).Error; err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	return result, nil
}

// Get 根据 ID 获取项目，跨租户按不存在处理。
func (s *ProjectService) Get(ownerID, id uint) (*db.Project, error) {
	var project db.Project
	if err := s.db.Preload("Skills").Preload("Tags").
		Where("owner_id = ?", ownerID).
		First(&project, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get project: %w", err)
	}
	return &project, nil
}

// Create 新建项目。
func (s *ProjectService) Create(ownerID uint, input ProjectInput) (*db.Project, error) {
	if err := validateProjectInput(input); err != nil {
		return nil, err
	}

	status := normalizeEnum(input.Status, projectStatuses, gate.ProjectIdea)
	if verdict := gate.CheckProjectStatus(status, input.GithubURL, input.DemoURL); !verdict.Valid {
		return nil, invalidField("status", verdict.Reason)
	}

	skills, err := s.ownedSkills(ownerID, input.SkillIDs)
	if err != nil {
		return nil, err
	}
	tags, err := ownedTags(s.db, ownerID, input.TagIDs)
	if err != nil {
		return nil, err
	}

	project := db.Project{
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(input.Name),
		Description: strings.TrimSpace(input.Description),
		Status:      status,
		GithubURL:   strings.TrimSpace(input.GithubURL),
		DemoURL:     strings.TrimSpace(input.DemoURL),
		TechStack:   encodeTechStack(input.TechStack),
		Skills:      skills,
		Tags:        tags,
	}

	if err := s.db.Create(&project).Error; err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &project, nil
}

// Update 全量更新项目，状态进入 completed 时执行 gate 校验并记录里程碑。
func (s *ProjectService) Update(ownerID, id uint, input ProjectInput) (*db.Project, error) {
	if err := validateProjectInput(input); err != nil {
		return nil, err
	}

	existing, err := s.Get(ownerID, id)
	if err != nil {
		return nil, err
	}

	status := normalizeEnum(input.Status, projectStatuses, gate.ProjectIdea)
	if verdict := gate.CheckProjectStatus(status, input.GithubURL, input.DemoURL); !verdict.Valid {
		return nil, invalidField("status", verdict.Reason)
	}

	skills, err := s.ownedSkills(ownerID, input.SkillIDs)
	if err != nil {
		return nil, err
	}
	tags, err := ownedTags(s.db, ownerID, input.TagIDs)
	if err != nil {
		return nil, err
	}

	becameCompleted := status == gate.ProjectCompleted && existing.Status != gate.ProjectCompleted

	existing.Name = strings.TrimSpace(input.Name)
	existing.Description = strings.TrimSpace(input.Description)
	existing.Status = status
	existing.GithubURL = strings.TrimSpace(input.GithubURL)
	existing.DemoURL = strings.TrimSpace(input.DemoURL)
	existing.TechStack = encodeTechStack(input.TechStack)

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(existing).Association("Skills").Replace(skills); err != nil {
			return fmt.Errorf("replace project skills: %w", err)
		}
		if err := tx.Model(existing).Association("Tags").Replace(tags); err != nil {
			return fmt.Errorf("replace project tags: %w", err)
		}
		if err := tx.Omit("Skills", "Tags").Save(existing).Error; err != nil {
			return fmt.Errorf("update project: %w", err)
		}
		if becameCompleted {
			_, err := s.activities.LogTx(tx, ownerID, ActivityInput{
				Type:        ActivityMilestone,
				Description: fmt.Sprintf("完成了项目 %s", existing.Name),
				ProjectID:   &existing.ID,
			})
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	existing.Skills = skills
	existing.Tags = tags
	return existing, nil
}

// Delete 删除项目并在同一事务内级联维护技能侧状态：
// 移除所有技能对该项目的引用；若某个 mastered 技能仅靠该项目支撑，则降级为 learning。
func (s *ProjectService) Delete(ownerID, id uint) error {
	project, err := s.Get(ownerID, id)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		// 先收集受影响技能的完整关联快照，再断开关联
		var linkedSkills []db.Skill
		if err := tx.Preload("Projects").
			Joins("JOIN skill_projects ON skill_projects.skill_id = skills.id").
			Where("skill_projects.project_id = ?", project.ID).
			Find(&linkedSkills).Error; err != nil {
			return fmt.Errorf("load linked skills: %w", err)
		}

		if err := tx.Model(project).Association("Skills").Clear(); err != nil {
			return fmt.Errorf("clear project skills: %w", err)
		}
		if err := tx.Model(project).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("clear project tags: %w", err)
		}

		for i := range linkedSkills {
			skill := &linkedSkills[i]
			if skill.Status != gate.SkillMastered {
				continue
			}
			if gate.HasCompletedBackingExcept(projectRefs(skill.Projects), project.ID) {
				continue
			}
			// 与正向 gate 同一条规则：失去唯一支撑项目即降级
			if err := tx.Model(&db.Skill{}).
				Where("id = ?", skill.ID).
				Update("status", gate.SkillLearning).Error; err != nil {
				return fmt.Errorf("downgrade skill %d: %w", skill.ID, err)
			}
		}

		if err := tx.Delete(&db.Project{}, project.ID).Error; err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		return nil
	})
}

// BatchUpdate 逐条校验后在单个事务中提交，语义与技能批量更新一致。
func (s *ProjectService) BatchUpdate(ownerID uint, items []ProjectBatchItem) (*ProjectBatchResult, error) {
	if len(items) > MaxBatchSize {
		return nil, ErrBatchTooLarge
	}

	result := &ProjectBatchResult{
		Updated: make([]db.Project, 0, len(items)),
		Errors:  make([]BatchError, 0),
	}

	type staged struct {
		project         *db.Project
		becameCompleted bool
	}
	stagedWrites := make([]staged, 0, len(items))

	for _, item := range items {
		project, err := s.Get(ownerID, item.ID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				result.Errors = append(result.Errors, BatchError{
					ID: item.ID, Code: BatchErrNotFound, Message: "项目不存在",
				})
				continue
			}
			return nil, err
		}

		oldStatus := project.Status
		applyProjectPatch(project, item.Data)

		if verdict := gate.CheckProjectStatus(project.Status, project.GithubURL, project.DemoURL); !verdict.Valid {
			result.Errors = append(result.Errors, BatchError{
				ID: item.ID, Code: BatchErrValidation, Message: verdict.Reason,
			})
			continue
		}
		if !projectStatuses[project.Status] {
			result.Errors = append(result.Errors, BatchError{
				ID: item.ID, Code: BatchErrValidation, Message: "不支持的项目状态",
			})
			continue
		}

		stagedWrites = append(stagedWrites, staged{
			project:         project,
			becameCompleted: project.Status == gate.ProjectCompleted && oldStatus != gate.ProjectCompleted,
		})
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for _, w := range stagedWrites {
			if err := tx.Omit("Skills", "Tags").Save(w.project).Error; err != nil {
				return fmt.Errorf("save project %d: %w", w.project.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, w := range stagedWrites {
		result.Updated = append(result.Updated, *w.project)
		if w.becameCompleted {
			if _, err := s.activities.Log(ownerID, ActivityInput{
				Type:        ActivityMilestone,
				Description: fmt.Sprintf("完成了项目 %s", w.project.Name),
				ProjectID:   &w.project.ID,
			}); err != nil {
				return nil, err
			}
		}
	}

	return result, nil
}

func applyProjectPatch(project *db.Project, patch ProjectPatch) {
	if patch.Name != nil {
		project.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		project.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Status != nil {
		project.Status = strings.TrimSpace(*patch.Status)
	}
	if patch.GithubURL != nil {
		project.GithubURL = strings.TrimSpace(*patch.GithubURL)
	}
	if patch.DemoURL != nil {
		project.DemoURL = strings.TrimSpace(*patch.DemoURL)
	}
	if patch.TechStack != nil {
		project.TechStack = encodeTechStack(patch.TechStack)
	}
}

func validateProjectInput(input ProjectInput) error {
	if strings.TrimSpace(input.Name) == "" {
		return invalidField("name", "项目名称不能为空")
	}
	if input.Status != "" && !projectStatuses[strings.TrimSpace(input.Status)] {
		return invalidField("status", "不支持的项目状态")
	}
	return nil
}

func (s *ProjectService) ownedSkills(ownerID uint, ids []uint) ([]db.Skill, error) {
	if len(ids) == 0 {
		return []db.Skill{}, nil
	}
	var skills []db.Skill
	if err := s.db.Where("owner_id = ? AND id IN ?", ownerID, ids).Find(&skills).Error; err != nil {
		return nil, fmt.Errorf("load linked skills: %w", err)
	}
	if len(skills) != len(uniqueIDs(ids)) {
		return nil, invalidField("skillIds", "存在无效的技能 ID")
	}
	return skills, nil
}

func encodeTechStack(stack []string) string {
	cleaned := make([]string, 0, len(stack))
	for _, item := range stack {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			cleaned = append(cleaned, trimmed)
		}
	}
	raw, err := json.Marshal(cleaned)
	if err != nil {
		return "[]"
	}
	return string(raw)
}

// DecodeTechStack 还原 TechStack 字段，供边界层序列化响应。
func DecodeTechStack(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return []string{}
	}
	var stack []string
	if err := json.Unmarshal([]byte(raw), &stack); err != nil {
		return []string{}
	}
	return stack
}
