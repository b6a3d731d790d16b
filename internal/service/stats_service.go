package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/devtrack/internal/db"
	"gorm.io/gorm"
)

// 聚合窗口：活跃天数/连胜取 30 天，周进度取 84 天
const (
	activeDaysWindow = 30
	progressWindow   = 84
)

// StatsService 基于每日计数表计算连胜与周聚合
// 所有方法都显式接收 now，测试可注入固定时间
type StatsService struct {
	db *gorm.DB
}

// OverviewStats 汇总仪表盘概览数据
type OverviewStats struct {
	SkillCounts   map[string]int64
	ProjectCounts map[string]int64
	ResourceCount int64
	ActiveDays    int
	CurrentStreak int
}

// WeeklyBucket 表示一个 ISO 周的活动量与进度分
// 活动与进度均为零的周不会出现在结果中，补零由调用方完成
type WeeklyBucket struct {
	Week           string
	ActivityCount  int
	ProgressPoints int
}

// NewStatsService 构造 StatsService
func NewStatsService(gdb *gorm.DB) *StatsService {
	return &StatsService{db: gdb}
}

// Overview 返回概览统计：各状态数量、30 天活跃天数与当前连胜。
func (s *StatsService) Overview(ownerID uint, now time.Time) (*OverviewStats, error) {
	stats := &OverviewStats{
		SkillCounts:   map[string]int64{},
		ProjectCounts: map[string]int64{},
	}

	if err := countByStatus(s.db, &db.Skill{}, ownerID, stats.SkillCounts); err != nil {
		return nil, err
	}
	if err := countByStatus(s.db, &db.Project{}, ownerID, stats.ProjectCounts); err != nil {
		return nil, err
	}
	if err := s.db.Model(&db.Resource{}).
		Where("owner_id = ?", ownerID).
		Count(&stats.ResourceCount).Error; err != nil {
		return nil, fmt.Errorf("count resources: %w", err)
	}

	dates, err := s.counterDates(ownerID, now, activeDaysWindow)
	if err != nil {
		return nil, err
	}

	stats.ActiveDays = len(dates)
	stats.CurrentStreak = calculateStreak(dates, normalizeToDate(now))

	return stats, nil
}

// Progress 返回 84 天窗口内按 ISO 周聚合的活动量与进度分。
// 进度分：技能进入 mastered 计 1 分，项目进入 completed 计 2 分，
// 归入状态变更时间戳所在的周。
func (s *StatsService) Progress(ownerID uint, now time.Time) ([]WeeklyBucket, error) {
	end := normalizeToDate(now)
	start := end.AddDate(0, 0, -(progressWindow - 1))

	var counters []db.DailyActivityCount
	if err := s.db.Where("owner_id = ?", ownerID).
		Where("date BETWEEN ? AND ?", start, end).
		Find(&counters).Error; err != nil {
		return nil, fmt.Errorf("list daily counts: %w", err)
	}

	buckets := map[string]*WeeklyBucket{}
	ensure := func(label string) *WeeklyBucket {
		if b, ok := buckets[label]; ok {
			return b
		}
		b := &WeeklyBucket{Week: label}
		buckets[label] = b
		return b
	}

	for _, counter := range counters {
		ensure(isoWeekLabel(counter.Date)).ActivityCount += counter.Count
	}

	var milestones []db.Activity
	if err := s.db.Where("owner_id = ? AND type = ?", ownerID, ActivityMilestone).
		Where("date BETWEEN ? AND ?", start, end).
		Find(&milestones).Error; err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}

	for _, m := range milestones {
		label := isoWeekLabel(m.Date)
		switch {
		case m.ProjectID != nil:
			ensure(label).ProgressPoints += 2
		case m.SkillID != nil:
			ensure(label).ProgressPoints++
		}
	}

	out := make([]WeeklyBucket, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Week < out[j].Week })

	return out, nil
}

// counterDates 返回窗口内有活动的日期，归一化到零点并降序排列。
func (s *StatsService) counterDates(ownerID uint, now time.Time, windowDays int) ([]time.Time, error) {
	end := normalizeToDate(now)
	start := end.AddDate(0, 0, -(windowDays - 1))

	var counters []db.DailyActivityCount
	if err := s.db.Where("owner_id = ?", ownerID).
		Where("date BETWEEN ? AND ?", start, end).
		Order("date DESC").
		Find(&counters).Error; err != nil {
		return nil, fmt.Errorf("list daily counts: %w", err)
	}

	dates := make([]time.Time, 0, len(counters))
	for _, counter := range counters {
		dates = append(dates, normalizeToDate(counter.Date))
	}
	return dates, nil
}

// calculateStreak 计算当前连胜。
// dates 必须按日期降序；最近一次活动既不是今天也不是昨天时连胜为 0，
// 否则从最近日期向前数连续的日历日，遇到断档即停止。
func calculateStreak(dates []time.Time, today time.Time) int {
	if len(dates) == 0 {
		return 0
	}

	newest := dates[0]
	yesterday := today.AddDate(0, 0, -1)
	if !sameDay(newest, today) && !sameDay(newest, yesterday) {
		return 0
	}

	streak := 1
	for i := 1; i < len(dates); i++ {
		if sameDay(dates[i], dates[i-1].AddDate(0, 0, -1)) {
			streak++
			continue
		}
		break
	}
	return streak
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// isoWeekLabel 生成 ISO-8601 周标签，如 2026-07。
// 周一为一周起点，第 1 周为包含当年第一个星期四的那一周。
func isoWeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-%02d", year, week)
}

func countByStatus(gdb *gorm.DB, model interface{}, ownerID uint, dest map[string]int64) error {
	var rows []struct {
		Status string
		Count  int64
	}
	if err := gdb.Model(model).
		Select("status, COUNT(*) AS count").
		Where("owner_id = ?", ownerID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return fmt.Errorf("count by status: %w", err)
	}
	for _, row := range rows {
		dest[row.Status] = row.Count
	}
	return nil
}
