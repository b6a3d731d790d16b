package service

import (
	"errors"
	"testing"

	"github.com/devtrack/gate"
	"github.com/devtrack/internal/db"
	"gorm.io/gorm"
)

func newSkillTestServices() (*SkillService, *ProjectService, *ActivityService) {
	activities := NewActivityService(db.DB)
	return NewSkillService(db.DB, activities), NewProjectService(db.DB, activities), activities
}

func TestSkillServiceCreateAndList(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	owner := createTestUser(t, "alice")
	skills, _, _ := newSkillTestServices()

	skill, err := skills.Create(owner.ID, SkillInput{Name: "Go", Category: "language"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if skill.ID == 0 {
		t.Fatal("expected skill to have ID")
	}

	// 未指定时落到默认状态
	if skill.Status != gate.SkillWantToLearn {
		t.Fatalf("unexpected status: %s", skill.Status)
	}

	if _, err := skills.Create(owner.ID, SkillInput{Name: "   ", Category: "language"}); err == nil {
		t.Fatal("expected error for empty name")
	}

	if _, err := skills.Create(owner.ID, SkillInput{Name: "Rust", Category: "martial-arts"}); err == nil {
		t.Fatal("expected error for invalid category")
	}

	result, err := skills.List(owner.ID, SkillFilter{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}

	if result.Total != 1 || len(result.Items) != 1 {
		t.Fatalf("expected 1 skill, got total=%d items=%d", result.Total, len(result.Items))
	}
}

func TestSkillServiceOwnerScoping(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	alice := createTestUser(t, "alice")
	bob := createTestUser(t, "bob")
	skills, _, _ := newSkillTestServices()

	skill, err := skills.Create(alice.ID, SkillInput{Name: "Go", Category: "language"})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	// 跨租户按不存在处理，不泄露资源是否存在
	if _, err := skills.Get(bob.ID, skill.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cross-tenant get, got %v", err)
	}

	if err := skills.Delete(bob.ID, skill.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for cross-tenant delete, got %v", err)
	}

	result, err := skills.List(bob.ID, SkillFilter{})
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if result.Total != 0 {
		t.Fatalf("expected bob to see no skills, got %d", result.Total)
	}
}

func TestSkillServiceMasteredGate(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	owner := createTestUser(t, "alice")
	skills, projects, _ := newSkillTestServices()

	active, err := projects.Create(owner.ID, ProjectInput{Name: "进行中", Status: gate.ProjectActive})
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	// 关联项目未完成时不允许 mastered
	_, err = skills.Create(owner.ID, SkillInput{
		Name:       "Go",
		Category:   "language",
		Status:     gate.SkillMastered,
		ProjectIDs: []uint{active.ID},
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "status" {
		t.Fatalf("expected status validation error, got %v", err)
	}

	completed, err := projects.Create(owner.ID, ProjectInput{
		Name:      "已完成",
		Status:    gate.ProjectCompleted,
		GithubURL: "https://github.com/u/r",
	})
	if err != nil {
		t.Fatalf("failed to create completed project: %v", err)
	}

	skill, err := skills.Create(owner.ID, SkillInput{
		Name:       "Go",
		Category:   "language",
		Status:     gate.SkillMastered,
		ProjectIDs: []uint{completed.ID},
	})
	if err != nil {
		t.Fatalf("expected mastered with completed project to succeed: %v", err)
	}

	if skill.Status != gate.SkillMastered {
		t.Fatalf("unexpected status: %s", skill.Status)
	}
}

func TestSkillServiceUpdateRecordsMilestone(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	owner := createTestUser(t, "alice")
	skills, projects, activities := newSkillTestServices()

	completed, err := projects.Create(owner.ID, ProjectInput{
		Name:      "作品集",
		Status:    gate.ProjectCompleted,
		DemoURL:   "https://demo.example.com",
		TechStack: []string{"Go", "SQLite"},
	})
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	skill, err := skills.Create(owner.ID, SkillInput{
		Name:       "Go",
		Category:   "language",
		Status:     gate.SkillLearning,
		ProjectIDs: []uint{completed.ID},
	})
	if err != nil {
		t.Fatalf("failed to create skill: %v", err)
	}

	updated, err := skills.Update(owner.ID, skill.ID, SkillInput{
		Name:       "Go",
		Category:   "language",
		Status:     gate.SkillMastered,
		ProjectIDs: []uint{completed.ID},
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	if updated.Status != gate.SkillMastered {
		t.Fatalf("unexpected status: %s", updated.Status)
	}

	milestones, err := activities.List(owner.ID, ActivityFilter{Type: ActivityMilestone})
	if err != nil {
		t.Fatalf("failed to list activities: %v", err)
	}
	if milestones.Total != 1 {
		t.Fatalf("expected 1 milestone activity, got %d", milestones.Total)
	}
	if milestones.Items[0].SkillID == nil || *milestones.Items[0].SkillID != skill.ID {
		t.Fatal("expected milestone to reference the skill")
	}

	// 保持 mastered 不应重复记录里程碑
	if _, err := skills.Update(owner.ID, skill.ID, SkillInput{
		Name:       "Golang",
		Category:   "language",
		Status:     gate.SkillMastered,
		ProjectIDs: []uint{completed.ID},
	}); err != nil {
		t.Fatalf("second update returned error: %v", err)
	}

	milestones, err = activities.List(owner.ID, ActivityFilter{Type: ActivityMilestone})
	if err != nil {
		t.Fatalf("failed to list activities: %v", err)
	}
	if milestones.Total != 1 {
		t.Fatalf("expected milestone count to stay 1, got %d", milestones.Total)
	}
}

func TestSkillServiceBatchUpdate(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	owner := createTestUser(t, "alice")
	skills, _, _ := newSkillTestServices()

	first, err := skills.Create(owner.ID, SkillInput{Name: "Go", Category: "language"})
	if err != nil {
		t.Fatalf("failed to create skill: %v", err)
	}
	second, err := skills.Create(owner.ID, SkillInput{Name: "Rust", Category: "language"})
	if err != nil {
		t.Fatalf("failed to create skill: %v", err)
	}

	learning := gate.SkillLearning
	mastered := gate.SkillMastered
	result, err := skills.BatchUpdate(owner.ID, []SkillBatchItem{
		{ID: first.ID, Data: SkillPatch{Status: &learning}},
		// 没有已完成关联项目，逐条失败但不影响其余条目
		{ID: second.ID, Data: SkillPatch{Status: &mastered}},
		{ID: 9999, Data: SkillPatch{Status: &learning}},
	})
	if err != nil {
		t.Fatalf("BatchUpdate returned error: %v", err)
	}

	if len(result.Updated) != 1 || result.Updated[0].ID != first.ID {
		t.Fatalf("expected only first skill to update, got %d updated", len(result.Updated))
	}

	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 per-item errors, got %d", len(result.Errors))
	}

	codes := map[uint]string{}
	for _, e := range result.Errors {
		codes[e.ID] = e.Code
	}
	if codes[second.ID] != BatchErrValidation {
		t.Fatalf("expected validation error for skill %d, got %s", second.ID, codes[second.ID])
	}
	if codes[9999] != BatchErrNotFound {
		t.Fatalf("expected not found error for missing skill, got %s", codes[9999])
	}

	// 落库结果与返回一致
	reloaded, err := skills.Get(owner.ID, first.ID)
	if err != nil {
		t.Fatalf("failed to reload skill: %v", err)
	}
	if reloaded.Status != gate.SkillLearning {
		t.Fatalf("expected persisted status learning, got %s", reloaded.Status)
	}

	reloaded, err = skills.Get(owner.ID, second.ID)
	if err != nil {
		t.Fatalf("failed to reload skill: %v", err)
	}
	if reloaded.Status != gate.SkillWantToLearn {
		t.Fatalf("expected rejected skill to keep status, got %s", reloaded.Status)
	}
}

func TestSkillServiceBatchUpdateRejectsInvalidCategory(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	owner := createTestUser(t, "alice")
	skills, _, _ := newSkillTestServices()

	skill, err := skills.Create(owner.ID, SkillInput{Name: "Go", Category: "language"})
	if err != nil {
		t.Fatalf("failed to create skill: %v", err)
	}

	bogus := "totally-bogus"
	result, err := skills.BatchUpdate(owner.ID, []SkillBatchItem{
		{ID: skill.ID, Data: SkillPatch{Category: &bogus}},
	})
	if err != nil {
		t.Fatalf("BatchUpdate returned error: %v", err)
	}

	if len(result.Updated) != 0 {
		t.Fatalf("expected no updates, got %d", len(result.Updated))
	}
	if len(result.Errors) != 1 || result.Errors[0].Code != BatchErrValidation {
		t.Fatalf("expected validation error, got %+v", result.Errors)
	}

	reloaded, err := skills.Get(owner.ID, skill.ID)
	if err != nil {
		t.Fatalf("failed to reload skill: %v", err)
	}
	if reloaded.Category != "language" {
		t.Fatalf("expected category to stay language, got %s", reloaded.Category)
	}
}

func TestSkillServiceBatchUpdateRollsBackOnCommitFailure(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	owner := createTestUser(t, "alice")
	skills, _, _ := newSkillTestServices()

	first, err := skills.Create(owner.ID, SkillInput{Name: "Go", Category: "language"})
	if err != nil {
		t.Fatalf("failed to create skill: %v", err)
	}
	second, err := skills.Create(owner.ID, SkillInput{Name: "Rust", Category: "language"})
	if err != nil {
		t.Fatalf("failed to create skill: %v", err)
	}

	// 注入写入故障，模拟提交阶段数据库出错
	injected := errors.New("disk full")
	err = db.DB.Callback().Update().Before("gorm:update").Register("fail_rust_update", func(tx *gorm.DB) {
		if s, ok := tx.Statement.Dest.(*db.Skill); ok && s.Name == "Rust" {
			_ = tx.AddError(injected)
		}
	})
	if err != nil {
		t.Fatalf("failed to register callback: %v", err)
	}

	learning := gate.SkillLearning
	if _, err := skills.BatchUpdate(owner.ID, []SkillBatchItem{
		{ID: first.ID, Data: SkillPatch{Status: &learning}},
		{ID: second.ID, Data: SkillPatch{Status: &learning}},
	}); !errors.Is(err, injected) {
		t.Fatalf("expected injected error, got %v", err)
	}

	// 提交失败时已暂存的条目一并回滚
	for _, id := range []uint{first.ID, second.ID} {
		reloaded, err := skills.Get(owner.ID, id)
		if err != nil {
			t.Fatalf("failed to reload skill %d: %v", id, err)
		}
		if reloaded.Status != gate.SkillWantToLearn {
			t.Fatalf("expected skill %d untouched, got status %s", id, reloaded.Status)
		}
	}
}

func TestSkillServiceBatchUpdateTooLarge(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	owner := createTestUser(t, "alice")
	skills, _, _ := newSkillTestServices()

	items := make([]SkillBatchItem, MaxBatchSize+1)
	for i := range items {
		items[i] = SkillBatchItem{ID: uint(i + 1)}
	}

	if _, err := skills.BatchUpdate(owner.ID, items); !errors.Is(err, ErrBatchTooLarge) {
		t.Fatalf("expected ErrBatchTooLarge, got %v", err)
	}
}
