package db

import "gorm.io/gorm"

// Project 定义了项目模型
// Status 取值 idea/active/completed/on_hold/archived
// completed 状态要求 GithubURL 或 DemoURL 二者至少一项非空
// TechStack 存储 JSON 数组字符串，边界层负责序列化
type Project struct {
	gorm.Model
	OwnerID     uint   `gorm:"index;not null"`
	Name        string `gorm:"not null"`
	Description string
	Status      string `gorm:"default:idea"`
	GithubURL   string
	DemoURL     string
	TechStack   string
	Skills      []Skill `gorm:"many2many:skill_projects;"`
	Tags        []Tag   `gorm:"many2many:project_tags;"`
}
