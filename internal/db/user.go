package db

import "gorm.io/gorm"

// User 定义了用户模型
// Subject 来自外部身份提供方的 sub 声明，首次出现时惰性建档
// Preferences 存储 JSON 序列化后的个人偏好，结构由前端约定
type User struct {
	gorm.Model
	Subject     string `gorm:"uniqueIndex;not null"`
	Email       string
	DisplayName string
	Role        string `gorm:"default:user"`
	Preferences string
}
