package service

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/devtrack/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 动态类型
const (
	ActivityLearning     = "learning"
	ActivityMilestone    = "milestone"
	ActivityPractice     = "practice"
	ActivityTimeTracking = "time_tracking"
)

// ActivityService 负责动态日志与每日计数
// Activity 只由其他写操作的副作用产生，从不接受用户直接修改
type ActivityService struct {
	db *gorm.DB
}

// ActivityInput 定义写入动态的字段
type ActivityInput struct {
	Type            string
	Description     string
	SkillID         *uint
	ProjectID       *uint
	DurationMinutes int
	Date            time.Time
}

// ActivityFilter 指定动态列表的查询条件
type ActivityFilter struct {
	Pagination
	Type  string
	Start time.Time
	End   time.Time
}

// ActivityListResult 是分页后的动态集合
type ActivityListResult struct {
	Items []db.Activity
	Total int64
}

// NewActivityService 构造 ActivityService
func NewActivityService(gdb *gorm.DB) *ActivityService {
	return &ActivityService{db: gdb}
}

// Log 写入一条动态并自增当日计数。
func (s *ActivityService) Log(ownerID uint, input ActivityInput) (*db.Activity, error) {
	var created *db.Activity
	err := s.db.Transaction(func(tx *gorm.DB) error {
		activity, err := s.LogTx(tx, ownerID, input)
		if err != nil {
			return err
		}
		created = activity
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// LogTx 在调用方事务内写入动态，供其他服务在同一事务中记录副作用。
func (s *ActivityService) LogTx(tx *gorm.DB, ownerID uint, input ActivityInput) (*db.Activity, error) {
	date := input.Date
	if date.IsZero() {
		date = time.Now()
	}
	date = normalizeToDate(date)

	activity := db.Activity{
		OwnerID:         ownerID,
		Date:            date,
		Type:            strings.TrimSpace(input.Type),
		Description:     strings.TrimSpace(input.Description),
		SkillID:         input.SkillID,
		ProjectID:       input.ProjectID,
		DurationMinutes: input.DurationMinutes,
	}

	if err := tx.Create(&activity).Error; err != nil {
		return nil, fmt.Errorf("create activity: %w", err)
	}

	if err := bumpDailyCount(tx, ownerID, date, activity.Type); err != nil {
		return nil, err
	}

	return &activity, nil
}

// List 返回分页后的动态，按日期倒序。
func (s *ActivityService) List(ownerID uint, filter ActivityFilter) (*ActivityListResult, error) {
	filter.Normalize()

	query := s.db.Model(&db.Activity{}).Where("owner_id = ?", ownerID)
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if !filter.Start.IsZero() {
		query = query.Where("date >= ?", normalizeToDate(filter.Start))
	}
	if !filter.End.IsZero() {
		query = query.Where("date <= ?", normalizeToDate(filter.End))
	}

	result := &ActivityListResult{}
	if err := query.Count(&result.Total).Error; err != nil {
		return nil, fmt.Errorf("count activities: %w", err)
	}

	if err := query.Order("date DESC, id DESC").
		Limit(filter.Limit).Offset(filter.Offset()).
		Find(&result.Items).Error; err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}

	return result, nil
}

// HeatmapEntry 表示热力图中的单日计数
type HeatmapEntry struct {
	Date      time.Time
	Count     int
	Breakdown map[string]int
}

// HeatmapRange 返回区间内的每日计数，缺失的日期不补零。
func (s *ActivityService) HeatmapRange(ownerID uint, start, end time.Time) ([]HeatmapEntry, error) {
	if end.Before(start) {
		return nil, invalidField("range", "结束日期早于开始日期")
	}

	var rows []db.DailyActivityCount
	if err := s.db.Where("owner_id = ?", ownerID).
		Where("date BETWEEN ? AND ?", normalizeToDate(start), normalizeToDate(end)).
		Order("date ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list daily counts: %w", err)
	}

	entries := make([]HeatmapEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, HeatmapEntry{
			Date:      row.Date,
			Count:     row.Count,
			Breakdown: decodeBreakdown(row.Breakdown),
		})
	}
	return entries, nil
}

// bumpDailyCount 以 upsert 自增 (owner, date) 的计数，并发写入首条动态时不会撞唯一索引。
func bumpDailyCount(tx *gorm.DB, ownerID uint, date time.Time, activityType string) error {
	counter := db.DailyActivityCount{
		OwnerID:   ownerID,
		Date:      date,
		Count:     1,
		Breakdown: encodeBreakdown(map[string]int{activityType: 1}),
	}

	if err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "owner_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"count": gorm.Expr("count + 1"),
			"breakdown": gorm.Expr(
				"json_set(breakdown, '$.' || ?, COALESCE(json_extract(breakdown, '$.' || ?), 0) + 1)",
				activityType, activityType,
			),
			"updated_at": time.Now(),
		}),
	}).Create(&counter).Error; err != nil {
		return fmt.Errorf("upsert daily count: %w", err)
	}
	return nil
}

func encodeBreakdown(m map[string]int) string {
	raw, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

func decodeBreakdown(raw string) map[string]int {
	m := map[string]int{}
	if strings.TrimSpace(raw) == "" {
		return m
	}
	// 解析失败按空计数处理，计数列仍是权威值
	_ = json.Unmarshal([]byte(raw), &m)
	return m
}

func normalizeToDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
