package db

import "gorm.io/gorm"

// Skill 定义了技能模型
// Category 取值 language/framework/library/tool/database/runtime/other
// Status 取值 want_to_learn/learning/mastered
// mastered 状态要求至少关联一个 completed 项目，由 gate 规则把关
type Skill struct {
	gorm.Model
	OwnerID  uint   `gorm:"index;not null"`
	Name     string `gorm:"not null"`
	Category string
	Status   string `gorm:"default:want_to_learn"`
	Icon     string
	Projects []Project `gorm:"many2many:skill_projects;"`
	Tags     []Tag     `gorm:"many2many:skill_tags;"`
}
