package gate

import "testing"

func TestCheckSkillStatus(t *testing.T) {
	// 非 mastered 状态不受关联项目限制
	for _, status := range []string{SkillWantToLearn, SkillLearning} {
		if verdict := CheckSkillStatus(status, nil); !verdict.Valid {
			t.Fatalf("expected %s without projects to be valid: %s", status, verdict.Reason)
		}
	}

	if verdict := CheckSkillStatus(SkillMastered, nil); verdict.Valid {
		t.Fatal("expected mastered without projects to be invalid")
	}

	linked := []ProjectRef{
		{ID: 1, Status: ProjectActive},
		{ID: 2, Status: ProjectOnHold},
	}
	if verdict := CheckSkillStatus(SkillMastered, linked); verdict.Valid {
		t.Fatal("expected mastered without completed project to be invalid")
	}

	linked = append(linked, ProjectRef{ID: 3, Status: ProjectCompleted})
	if verdict := CheckSkillStatus(SkillMastered, linked); !verdict.Valid {
		t.Fatalf("expected mastered with completed project to be valid: %s", verdict.Reason)
	}
}

func TestCheckProjectStatus(t *testing.T) {
	if verdict := CheckProjectStatus(ProjectActive, "", ""); !verdict.Valid {
		t.Fatalf("expected active without urls to be valid: %s", verdict.Reason)
	}

	if verdict := CheckProjectStatus(ProjectCompleted, "", ""); verdict.Valid {
		t.Fatal("expected completed without urls to be invalid")
	}

	// 空白字符串不算填写
	if verdict := CheckProjectStatus(ProjectCompleted, "   ", ""); verdict.Valid {
		t.Fatal("expected completed with blank github url to be invalid")
	}

	if verdict := CheckProjectStatus(ProjectCompleted, "https://github.com/u/r", ""); !verdict.Valid {
		t.Fatalf("expected completed with github url to be valid: %s", verdict.Reason)
	}

	if verdict := CheckProjectStatus(ProjectCompleted, "", "https://demo.example.com"); !verdict.Valid {
		t.Fatalf("expected completed with demo url to be valid: %s", verdict.Reason)
	}
}

func TestCheckIsIdempotent(t *testing.T) {
	linked := []ProjectRef{{ID: 1, Status: ProjectCompleted}}

	first := CheckSkillStatus(SkillMastered, linked)
	second := CheckSkillStatus(SkillMastered, linked)
	if first != second {
		t.Fatalf("expected identical verdicts, got %+v and %+v", first, second)
	}
}

func TestHasCompletedBackingExcept(t *testing.T) {
	linked := []ProjectRef{
		{ID: 1, Status: ProjectCompleted},
		{ID: 2, Status: ProjectActive},
	}

	if HasCompletedBackingExcept(linked, 1) {
		t.Fatal("expected no backing after excluding the only completed project")
	}

	linked = append(linked, ProjectRef{ID: 3, Status: ProjectCompleted})
	if !HasCompletedBackingExcept(linked, 1) {
		t.Fatal("expected backing from the second completed project")
	}
}
