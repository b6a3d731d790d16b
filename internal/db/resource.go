package db

import "gorm.io/gorm"

// Resource 定义了学习资源模型
// Type 取值 documentation/video/course/article/tutorial/other
// Notes 以 Markdown 原文存储，预览接口负责渲染与消毒
type Resource struct {
	gorm.Model
	OwnerID   uint   `gorm:"index;not null"`
	Title     string `gorm:"not null"`
	URL       string
	Type      string
	SkillID   *uint `gorm:"index"`
	ProjectID *uint `gorm:"index"`
	Notes     string
	Read      bool
	Favorite  bool
	Tags      []Tag `gorm:"many2many:resource_tags;"`
}
