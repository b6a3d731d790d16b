package db

import "gorm.io/gorm"

// Tag 定义了标签模型，可挂载到技能/项目/资源/计时记录
// Name 在同一用户下唯一
type Tag struct {
	gorm.Model
	OwnerID uint   `gorm:"index;index:idx_tag_owner_name,unique"`
	Name    string `gorm:"index:idx_tag_owner_name,unique;not null"`
	Color   string
}
