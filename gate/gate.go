// Package gate 实现技能/项目的终态准入规则。
// 规则是纯函数：服务端作为权威校验调用，客户端在乐观更新前做同一份校验，
// 两侧结论必须一致，绕过客户端的请求仍会被服务端拒绝。
package gate

import "strings"

// 技能状态
const (
	SkillWantToLearn = "want_to_learn"
	SkillLearning    = "learning"
	SkillMastered    = "mastered"
)

// 项目状态
const (
	ProjectIdea      = "idea"
	ProjectActive    = "active"
	ProjectCompleted = "completed"
	ProjectOnHold    = "on_hold"
	ProjectArchived  = "archived"
)

// ProjectRef 是规则评估所需的项目快照，避免依赖任何存储类型。
type ProjectRef struct {
	ID     uint
	Status string
}

// Verdict 表示一次校验结论，Invalid 时 Reason 给出原因。
type Verdict struct {
	Valid  bool
	Reason string
}

func valid() Verdict {
	return Verdict{Valid: true}
}

func invalid(reason string) Verdict {
	return Verdict{Valid: false, Reason: reason}
}

// CheckSkillStatus 校验技能能否进入目标状态。
// mastered 要求关联项目中至少存在一个 completed 项目。
func CheckSkillStatus(status string, linked []ProjectRef) Verdict {
	if strings.TrimSpace(status) != SkillMastered {
		return valid()
	}

	for _, ref := range linked {
		if ref.Status == ProjectCompleted {
			return valid()
		}
	}

	return invalid("技能标记为 mastered 前需要至少一个已完成的关联项目")
}

// CheckProjectStatus 校验项目能否进入目标状态。
// completed 要求 GitHub 地址或演示地址至少一项非空。
func CheckProjectStatus(status, githubURL, demoURL string) Verdict {
	if strings.TrimSpace(status) != ProjectCompleted {
		return valid()
	}

	if strings.TrimSpace(githubURL) != "" || strings.TrimSpace(demoURL) != "" {
		return valid()
	}

	return invalid("项目标记为 completed 前需要填写 GitHub 地址或演示地址")
}

// HasCompletedBackingExcept 判断排除某个项目后，剩余关联项目是否仍能支撑 mastered。
// 项目删除级联降级时复用该规则。
func HasCompletedBackingExcept(linked []ProjectRef, excludeID uint) bool {
	for _, ref := range linked {
		if ref.ID == excludeID {
			continue
		}
		if ref.Status == ProjectCompleted {
			return true
		}
	}
	return false
}
