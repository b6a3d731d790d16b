package service

import (
	"errors"
	"testing"

	"github.com/devtrack/internal/db"
)

func TestTagServiceCreateRejectsDuplicate(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	owner := createTestUser(t, "alice")
	other := createTestUser(t, "bob")
	tags := NewTagService(db.DB)

	if _, err := tags.Create(owner.ID, TagInput{Name: "后端", Color: "#336699"}); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if _, err := tags.Create(owner.ID, TagInput{Name: "后端"}); !errors.Is(err, ErrTagExists) {
		t.Fatalf("expected ErrTagExists, got %v", err)
	}

	// 名称唯一性按用户隔离
	if _, err := tags.Create(other.ID, TagInput{Name: "后端"}); err != nil {
		t.Fatalf("expected other user to reuse name: %v", err)
	}
}

func TestTagServiceDeleteClearsReferences(t *testing.T) {
	cleanup := setupTestDB(t)
	defer cleanup()

	owner := createTestUser(t, "alice")
	tags := NewTagService(db.DB)
	skills, _, _ := newSkillTestServices()

	tag, err := tags.Create(owner.ID, TagInput{Name: "后端"})
	if err != nil {
		t.Fatalf("failed to create tag: %v", err)
	}

	skill, err := skills.Create(owner.ID, SkillInput{
		Name:     "Go",
		Category: "language",
		TagIDs:   []uint{tag.ID},
	})
	if err != nil {
		t.Fatalf("failed to create skill: %v", err)
	}

	if err := tags.Delete(owner.ID, tag.ID); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	reloaded, err := skills.Get(owner.ID, skill.ID)
	if err != nil {
		t.Fatalf("failed to reload skill: %v", err)
	}
	if len(reloaded.Tags) != 0 {
		t.Fatalf("expected tag reference to be removed, got %d", len(reloaded.Tags))
	}

	listed, err := tags.List(owner.ID)
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(listed) != 0 {
		t.Fatalf("expected no tags, got %d", len(listed))
	}
}
