package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/devtrack/internal/db"
	"gorm.io/gorm"
)

// TimeEntryService 负责计时记录
// 同一用户同一时刻只允许一条进行中的计时，冲突时返回 ErrTimerRunning
type TimeEntryService struct {
	db         *gorm.DB
	activities *ActivityService
}

// TimeEntryInput 定义开始计时的可选关联
type TimeEntryInput struct {
	SkillID   *uint
	ProjectID *uint
	TagIDs    []uint
}

// TimeEntryFilter 描述列表过滤条件
type TimeEntryFilter struct {
	Pagination
	SkillID   *uint
	ProjectID *uint
	Running   *bool
}

// TimeEntryListResult 是分页后的计时集合
type TimeEntryListResult struct {
	Items []db.TimeEntry
	Total int64
}

// NewTimeEntryService 构造 TimeEntryService
func NewTimeEntryService(gdb *gorm.DB, activities *ActivityService) *TimeEntryService {
	return &TimeEntryService{db: gdb, activities: activities}
}

// List 返回计时记录，按开始时间倒序。
func (s *TimeEntryService) List(ownerID uint, filter TimeEntryFilter) (*TimeEntryListResult, error) {
	filter.Normalize()

	query := s.db.Model(&db.TimeEntry{}).Where("owner_id = ?", ownerID)
	if filter.SkillID != nil {
		query = query.Where("skill_id = ?", *filter.SkillID)
	}
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.Running != nil {
		query = query.Where("running = ?", *filter.Running)
	}

	result := &TimeEntryListResult{}
	if err := query.Count(&result.Total).Error; err != nil {
		return nil, fmt.Errorf("count time entries: %w", err)
	}

	if err := query.Preload("Tags").
		Order("started_at DESC, id DESC").
		Limit(filter.Limit).Offset(filter.Offset()).
		Find(&result.Items).Error; err != nil {
		return nil, fmt.Errorf("list time entries: %w", err)
	}

	return result, nil
}

// Start 开始一条计时。若已有进行中的计时则返回 ErrTimerRunning，原记录不受影响。
func (s *TimeEntryService) Start(ownerID uint, input TimeEntryInput) (*db.TimeEntry, error) {
	tags, err := ownedTags(s.db, ownerID, input.TagIDs)
	if err != nil {
		return nil, err
	}

	var entry *db.TimeEntry
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&db.TimeEntry{}).
			Where("owner_id = ? AND running = ?", ownerID, true).
			Count(&count).Error; err != nil {
			return fmt.Errorf("check running entry: %w", err)
		}
		if count > 0 {
			return ErrTimerRunning
		}

		created := db.TimeEntry{
			OwnerID:   ownerID,
			SkillID:   input.SkillID,
			ProjectID: input.ProjectID,
			StartedAt: time.Now(),
			Running:   true,
			Tags:      tags,
		}
		if err := tx.Create(&created).Error; err != nil {
			return fmt.Errorf("create time entry: %w", err)
		}
		entry = &created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Stop 停止当前进行中的计时，计算时长并记录一条 time_tracking 动态。
func (s *TimeEntryService) Stop(ownerID uint) (*db.TimeEntry, error) {
	var entry db.TimeEntry
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ? AND running = ?", ownerID, true).
			First(&entry).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoRunningTimer
			}
			return fmt.Errorf("load running entry: %w", err)
		}

		now := time.Now()
		entry.EndedAt = &now
		entry.DurationSeconds = int(now.Sub(entry.StartedAt).Seconds())
		entry.Running = false

		if err := tx.Omit("Tags").Save(&entry).Error; err != nil {
			return fmt.Errorf("stop time entry: %w", err)
		}

		_, err := s.activities.LogTx(tx, ownerID, ActivityInput{
			Type:            ActivityTimeTracking,
			Description:     "完成了一次计时",
			SkillID:         entry.SkillID,
			ProjectID:       entry.ProjectID,
			DurationMinutes: entry.DurationSeconds / 60,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Delete 删除一条计时记录。
func (s *TimeEntryService) Delete(ownerID, id uint) error {
	var entry db.TimeEntry
	if err := s.db.Where("owner_id = ?", ownerID).First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("get time entry: %w", err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entry).Association("Tags").Clear(); err != nil {
			return fmt.Errorf("clear time entry tags: %w", err)
		}
		if err := tx.Delete(&db.TimeEntry{}, entry.ID).Error; err != nil {
			return fmt.Errorf("delete time entry: %w", err)
		}
		return nil
	})
}
