package service

import (
	"errors"
	"testing"

	"github.com/devtrack/gate"
	"github.com/devtrack/internal/db"
)

func TestProjectServiceCompletedGate(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	owner := createTestUser(t, "alice")
	_, projects, _ := newSkillTestServices()

	// completed 必须带 GitHub 地址或演示地址
	_, err := projects.Create(owner.ID, ProjectInput{Name: "博客", Status: gate.ProjectCompleted})
	var vErr *ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "status" {
		t.Fatalf("expected status validation error, got %v", err)
	}

	project, err := projects.Create(owner.ID, ProjectInput{
		Name:      "博客",
		Status:    gate.ProjectCompleted,
		GithubURL: "https://github.com/u/blog",
		TechStack: []string{"Go", "Gin"},
	})
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	stack := DecodeTechStack(project.TechStack)
	if len(stack) != 2 || stack[0] != "Go" {
		t.Fatalf("unexpected tech stack: %v", stack)
	}
}

func TestProjectServiceUpdateRecordsMilestone(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	owner := createTestUser(t, "alice")
	_, projects, activities := newSkillTestServices()

	project, err := projects.Create(owner.ID, ProjectInput{Name: "爬虫", Status: gate.ProjectActive})
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	if _, err := projects.Update(owner.ID, project.ID, ProjectInput{
		Name:    "爬虫",
		Status:  gate.ProjectCompleted,
		DemoURL: "https://demo.example.com",
	}); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}

	milestones, err := activities.List(owner.ID, ActivityFilter{Type: ActivityMilestone})
	if err != nil {
		t.Fatalf("failed to list activities: %v", err)
	}
	if milestones.Total != 1 {
		t.Fatalf("expected 1 milestone, got %d", milestones.Total)
	}
	if milestones.Items[0].ProjectID == nil || *milestones.Items[0].ProjectID != project.ID {
		t.Fatal("expected milestone to reference the project")
	}
}

func TestProjectServiceDeleteDowngradesSoleBackedSkill(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	owner := createTestUser(t, "alice")
	skills, projects, _ := newSkillTestServices()

	completed, err := projects.Create(owner.ID, ProjectInput{
		Name:      "唯一支撑",
		Status:    gate.ProjectCompleted,
		GithubURL: "https://github.com/u/only",
	})
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	skill, err := skills.Create(owner.ID, SkillInput{
		Name:       "Go",
		Category:   "language",
		Status:     gate.SkillMastered,
		ProjectIDs: []uint{completed.ID},
	})
	if err != nil {
		t.Fatalf("failed to create mastered skill: %v", err)
	}

	if err := projects.Delete(owner.ID, completed.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	// 失去唯一已完成支撑，mastered 降级为 learning
	reloaded, err := skills.Get(owner.ID, skill.ID)
	if err != nil {
		t.Fatalf("failed to reload skill: %v", err)
	}
	if reloaded.Status != gate.SkillLearning {
		t.Fatalf("expected downgraded status learning, got %s", reloaded.Status)
	}
	if len(reloaded.Projects) != 0 {
		t.Fatalf("expected project link to be removed, got %d", len(reloaded.Projects))
	}
}

func TestProjectServiceDeleteKeepsOtherwiseBackedSkill(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	owner := createTestUser(t, "alice")
	skills, projects, _ := newSkillTestServices()

	first, err := projects.Create(owner.ID, ProjectInput{
		Name:      "支撑一",
		Status:    gate.ProjectCompleted,
		GithubURL: "https://github.com/u/one",
	})
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	second, err := projects.Create(owner.ID, ProjectInput{
		Name:      "支撑二",
		Status:    gate.ProjectCompleted,
		GithubURL: "https://github.com/u/two",
	})
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	skill, err := skills.Create(owner.ID, SkillInput{
		Name:       "Go",
		Category:   "language",
		Status:     gate.SkillMastered,
		ProjectIDs: []uint{first.ID, second.ID},
	})
	if err != nil {
		t.Fatalf("failed to create mastered skill: %v", err)
	}

	if err := projects.Delete(owner.ID, first.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	// 仍有另一个已完成项目支撑，状态保持不变
	reloaded, err := skills.Get(owner.ID, skill.ID)
	if err != nil {
		t.Fatalf("failed to reload skill: %v", err)
	}
	if reloaded.Status != gate.SkillMastered {
		t.Fatalf("expected skill to stay mastered, got %s", reloaded.Status)
	}
	if len(reloaded.Projects) != 1 || reloaded.Projects[0].ID != second.ID {
		t.Fatalf("expected only second project to remain linked")
	}
}

func TestProjectServiceBatchUpdate(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	owner := createTestUser(t, "alice")
	_, projects, _ := newSkillTestServices()

	first, err := projects.Create(owner.ID, ProjectInput{Name: "一号", Status: gate.ProjectIdea})
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}
	second, err := projects.Create(owner.ID, ProjectInput{Name: "二号", Status: gate.ProjectActive})
	if err != nil {
		t.Fatalf("failed to create project: %v", err)
	}

	active := gate.ProjectActive
	completed := gate.ProjectCompleted
	result, err := projects.BatchUpdate(owner.ID, []ProjectBatchItem{
		{ID: first.ID, Data: ProjectPatch{Status: &active}},
		// 没有地址不允许 completed
		{ID: second.ID, Data: ProjectPatch{Status: &completed}},
	})
	if err != nil {
		t.Fatalf("BatchUpdate returned error: %v", err)
	}

	if len(result.Updated) != 1 || result.Updated[0].ID != first.ID {
		t.Fatalf("expected only first project to update, got %d", len(result.Updated))
	}
	if len(result.Errors) != 1 || result.Errors[0].ID != second.ID || result.Errors[0].Code != BatchErrValidation {
		t.Fatalf("unexpected errors: %+v", result.Errors)
	}

	var count int64
	if err := db.DB.Model(&db.Project{}).
		Where("owner_id = ? AND status = ?", owner.ID, gate.ProjectActive).
		Count(&count).Error; err != nil {
		t.Fatalf("failed to count projects: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 active projects after batch, got %d", count)
	}
}
