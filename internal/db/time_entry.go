package db

import (
	"time"

	"gorm.io/gorm"
)

// TimeEntry 记录一次计时
// 同一用户同一时刻最多一条 Running=true 的记录，由服务层在事务内保证
// DurationSeconds 在停止时计算
type TimeEntry struct {
	gorm.Model
	OwnerID         uint `gorm:"index;not null"`
	SkillID         *uint
	ProjectID       *uint
	StartedAt       time.Time
	EndedAt         *time.Time
	DurationSeconds int
	Running         bool  `gorm:"index"`
	Tags            []Tag `gorm:"many2many:time_entry_tags;"`
}
