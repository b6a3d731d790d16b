package service

import (
	"testing"
	"time"

	"github.com/devtrack/gate"
	"github.com/devtrack/internal/db"
)

func logOnDate(t *testing.T, activities *ActivityService, ownerID uint, date time.Time) {
	t.Helper()
	if _, err := activities.Log(ownerID, ActivityInput{
		Type:        ActivityPractice,
		Description: "练习",
		Date:        date,
	}); err != nil {
		t.Fatalf("failed to log activity: %v", err)
	}
}

func TestCalculateStreak(t *testing.T) {
	today := time.Date(2026, 8, 29, 0, 0, 0, 0, time.Local)
	day := func(offset int) time.Time { return today.AddDate(0, 0, offset) }

	cases := []struct {
		name  string
		dates []time.Time
		want  int
	}{
		{"empty", nil, 0},
		{"today only", []time.Time{day(0)}, 1},
		{"yesterday counts", []time.Time{day(-1), day(-2)}, 2},
		{"gap inside stops", []time.Time{day(0), day(-1), day(-3)}, 2},
		{"gap after today", []time.Time{day(0), day(-2)}, 1},
		{"consecutive from today", []time.Time{day(0), day(-1), day(-2)}, 3},
		// 最近一次活动在前天，连胜归零
		{"stale newest", []time.Time{day(-2), day(-3)}, 0},
	}

	for _, tc := range cases {
		if got := calculateStreak(tc.dates, today); got != tc.want {
			t.Errorf("%s: expected streak %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestIsoWeekLabel(t *testing.T) {
	// 2026-01-01 是周四，属于 2026 年第 1 周
	if got := isoWeekLabel(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)); got != "2026-01" {
		t.Fatalf("unexpected label: %s", got)
	}
	// 2027-01-01 是周五，ISO 规则下仍属于 2026 年第 53 周
	if got := isoWeekLabel(time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)); got != "2026-53" {
		t.Fatalf("unexpected label: %s", got)
	}
}

func TestStatsServiceOverview(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	owner := createTestUser(t, "alice")
	skills, projects, activities := newSkillTestServices()
	stats := NewStatsService(db.DB)

	if _, err := skills.Create(owner.ID, SkillInput{Name: "Go", Category: "language", Status: gate.SkillLearning}); err != nil {
		t.Fatalf("failed to create skill: %v", err)
	}
	if _, err := projects.Create(owner.ID, ProjectInput{Name: "博客", Status: gate.ProjectActive}); err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	now := time.Date(2026, 8, 29, 15, 0, 0, 0, time.Local)
	logOnDate(t, activities, owner.ID, now)
	logOnDate(t, activities, owner.ID, now.AddDate(0, 0, -1))
	logOnDate(t, activities, owner.ID, now.AddDate(0, 0, -1))
	logOnDate(t, activities, owner.ID, now.AddDate(0, 0, -4))

	overview, err := stats.Overview(owner.ID, now)
	if err != nil {
		t.Fatalf("Overview returned error: %v", err)
	}

	if overview.SkillCounts[gate.SkillLearning] != 1 {
		t.Fatalf("unexpected skill counts: %v", overview.SkillCounts)
	}
	if overview.ProjectCounts[gate.ProjectActive] != 1 {
		t.Fatalf("unexpected project counts: %v", overview.ProjectCounts)
	}

	// 同一天多条动态只算一个活跃日
	if overview.ActiveDays != 3 {
		t.Fatalf("expected 3 active days, got %d", overview.ActiveDays)
	}
	if overview.CurrentStreak != 2 {
		t.Fatalf("expected streak 2, got %d", overview.CurrentStreak)
	}
}

func TestStatsServiceProgress(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	owner := createTestUser(t, "alice")
	_, _, activities := newSkillTestServices()
	stats := NewStatsService(db.DB)

	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.Local)
	skillID := uint(1)
	projectID := uint(2)

	// 技能里程碑 1 分，项目里程碑 2 分
	if _, err := activities.Log(owner.ID, ActivityInput{
		Type: ActivityMilestone, Description: "掌握了 Go", SkillID: &skillID, Date: now,
	}); err != nil {
		t.Fatalf("failed to log milestone: %v", err)
	}
	if _, err := activities.Log(owner.ID, ActivityInput{
		Type: ActivityMilestone, Description: "完成了项目", ProjectID: &projectID, Date: now,
	}); err != nil {
		t.Fatalf("failed to log milestone: %v", err)
	}

	// 两周前只有普通活动
	logOnDate(t, activities, owner.ID, now.AddDate(0, 0, -14))

	buckets, err := stats.Progress(owner.ID, now)
	if err != nil {
		t.Fatalf("Progress returned error: %v", err)
	}

	// 稀疏结果：只出现有数据的周，且按标签升序
	if len(buckets) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(buckets))
	}
	if buckets[0].Week >= buckets[1].Week {
		t.Fatalf("expected ascending week order, got %s then %s", buckets[0].Week, buckets[1].Week)
	}

	older, newer := buckets[0], buckets[1]
	if older.ActivityCount != 1 || older.ProgressPoints != 0 {
		t.Fatalf("unexpected older bucket: %+v", older)
	}
	if newer.ActivityCount != 2 || newer.ProgressPoints != 3 {
		t.Fatalf("unexpected newer bucket: %+v", newer)
	}
	if newer.Week != isoWeekLabel(now) {
		t.Fatalf("unexpected week label: %s", newer.Week)
	}
}
