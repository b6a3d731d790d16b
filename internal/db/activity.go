package db

import (
	"time"

	"gorm.io/gorm"
)

// Activity 记录学习动态，仅追加，不允许用户直接修改
// Type 取值 learning/milestone/practice/time_tracking
// Date 归一化到零点，便于按天聚合
type Activity struct {
	gorm.Model
	OwnerID         uint      `gorm:"index;not null"`
	Date            time.Time `gorm:"index"`
	Type            string
	Description     string
	SkillID         *uint `gorm:"index"`
	ProjectID       *uint `gorm:"index"`
	DurationMinutes int
}

// DailyActivityCount 按 (owner, date) 维护当日动态计数
// 每写入一条 Activity 即自增一次，是连胜/热力图统计的唯一输入
// Breakdown 存储按类型拆分的 JSON 计数
type DailyActivityCount struct {
	gorm.Model
	OwnerID   uint      `gorm:"index;index:idx_daily_count_unique,unique"`
	Date      time.Time `gorm:"index:idx_daily_count_unique,unique"`
	Count     int
	Breakdown string
}

// TableName 重写确保唯一索引作用到 owner_id + date
func (DailyActivityCount) TableName() string {
	return "daily_activity_counts"
}
