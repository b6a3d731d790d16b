package main

import (
	"fmt"
	"log"
	"time"

	"github.com/devtrack/gate"
	"github.com/devtrack/internal/config"
	"github.com/devtrack/internal/db"
	"github.com/devtrack/internal/service"
	"github.com/joho/godotenv"
)

// 测试数据生成器
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	fmt.Println("开始生成测试数据...")

	user := createDemoUser()
	tags := createDemoTags(user.ID)
	projects := createDemoProjects(user.ID, tags)
	createDemoSkills(user.ID, projects, tags)
	createDemoResources(user.ID, tags)
	createDemoActivities(user.ID)

	fmt.Println("测试数据生成完成！")
	fmt.Printf("用户: %s (subject: %s)\n", user.DisplayName, user.Subject)
	fmt.Println("技能: 4 个，其中 1 个 mastered")
	fmt.Println("项目: 3 个，其中 1 个 completed")
	fmt.Println("最近 14 天带活动记录，可直接查看连胜与热力图")
}

func createDemoUser() *db.User {
	var count int64
	db.DB.Model(&db.User{}).Count(&count)
	if count > 0 {
		var user db.User
		db.DB.First(&user)
		fmt.Println("用户已存在，跳过创建")
		return &user
	}

	user := db.User{
		Subject:     "demo|devtrack",
		Email:       "demo@devtrack.local",
		DisplayName: "Demo",
		Role:        "user",
	}
	db.DB.Create(&user)
	fmt.Println("✅ 演示用户创建完成")
	return &user
}

func createDemoTags(ownerID uint) []db.Tag {
	var count int64
	db.DB.Model(&db.Tag{}).Where("owner_id = ?", ownerID).Count(&count)
	if count > 0 {
		fmt.Println("标签已存在，跳过创建")
		var tags []db.Tag
		db.DB.Where("owner_id = ?", ownerID).Find(&tags)
		return tags
	}

	names := []struct {
		name  string
		color string
	}{
		{"后端", "#3b82f6"},
		{"前端", "#22c55e"},
		{"数据库", "#f59e0b"},
		{"练手", "#a855f7"},
	}

	tags := make([]db.Tag, 0, len(names))
	for _, n := range names {
		tag := db.Tag{OwnerID: ownerID, Name: n.name, Color: n.color}
		db.DB.Create(&tag)
		tags = append(tags, tag)
	}

	fmt.Println("✅ 测试标签创建完成")
	return tags
}

func createDemoProjects(ownerID uint, tags []db.Tag) []db.Project {
	var count int64
	db.DB.Model(&db.Project{}).Where("owner_id = ?", ownerID).Count(&count)
	if count > 0 {
		fmt.Println("项目已存在，跳过创建")
		var projects []db.Project
		db.DB.Where("owner_id = ?", ownerID).Find(&projects)
		return projects
	}

	projects := []db.Project{
		{
			OwnerID:     ownerID,
			Name:        "个人博客",
			Description: "用 Gin + GORM 搭的博客，已上线",
			Status:      gate.ProjectCompleted,
			GithubURL:   "https://github.com/demo/blog",
			TechStack:   `["Go","Gin","SQLite"]`,
		},
		{
			OwnerID:     ownerID,
			Name:        "学习追踪器",
			Description: "记录技能、项目和学习时间",
			Status:      gate.ProjectActive,
			TechStack:   `["Go","Vue"]`,
		},
		{
			OwnerID:     ownerID,
			Name:        "RSS 聚合器",
			Description: "还在想要不要做",
			Status:      gate.ProjectIdea,
			TechStack:   `[]`,
		},
	}

	for i := range projects {
		if len(tags) > 0 {
			projects[i].Tags = []db.Tag{tags[i%len(tags)]}
		}
		db.DB.Create(&projects[i])
	}

	fmt.Println("✅ 测试项目创建完成")
	return projects
}

func createDemoSkills(ownerID uint, projects []db.Project, tags []db.Tag) {
	var count int64
	db.DB.Model(&db.Skill{}).Where("owner_id = ?", ownerID).Count(&count)
	if count > 0 {
		fmt.Println("技能已存在，跳过创建")
		return
	}

	var completed *db.Project
	for i := range projects {
		if projects[i].Status == gate.ProjectCompleted {
			completed = &projects[i]
			break
		}
	}

	skills := []db.Skill{
		{OwnerID: ownerID, Name: "Go", Category: "language", Status: gate.SkillMastered, Icon: "go"},
		{OwnerID: ownerID, Name: "Gin", Category: "framework", Status: gate.SkillLearning},
		{OwnerID: ownerID, Name: "SQLite", Category: "database", Status: gate.SkillLearning},
		{OwnerID: ownerID, Name: "Rust", Category: "language", Status: gate.SkillWantToLearn},
	}

	for i := range skills {
		// mastered 技能必须挂一个已完成项目
		if skills[i].Status == gate.SkillMastered && completed != nil {
			skills[i].Projects = []db.Project{*completed}
		}
		if len(tags) > 0 {
			skills[i].Tags = []db.Tag{tags[i%len(tags)]}
		}
		db.DB.Create(&skills[i])
	}

	fmt.Println("✅ 测试技能创建完成")
}

func createDemoResources(ownerID uint, tags []db.Tag) {
	var count int64
	db.DB.Model(&db.Resource{}).Where("owner_id = ?", ownerID).Count(&count)
	if count > 0 {
		fmt.Println("资源已存在，跳过创建")
		return
	}

	resources := []db.Resource{
		{OwnerID: ownerID, Title: "Go 官方教程", URL: "https://go.dev/tour", Type: "tutorial", Read: true, Favorite: true, Notes: "# 笔记\n\n**并发**一章值得反复看"},
		{OwnerID: ownerID, Title: "Effective Go", URL: "https://go.dev/doc/effective_go", Type: "documentation", Read: true},
		{OwnerID: ownerID, Title: "SQLite 内部原理", URL: "https://www.sqlite.org/arch.html", Type: "article"},
	}

	for i := range resources {
		if len(tags) > 0 {
			resources[i].Tags = []db.Tag{tags[i%len(tags)]}
		}
		db.DB.Create(&resources[i])
	}

	fmt.Println("✅ 测试资源创建完成")
}

// createDemoActivities 在最近两周铺活动记录，让连胜和热力图有内容可看。
func createDemoActivities(ownerID uint) {
	var count int64
	db.DB.Model(&db.Activity{}).Where("owner_id = ?", ownerID).Count(&count)
	if count > 0 {
		fmt.Println("动态已存在，跳过创建")
		return
	}

	activities := service.NewActivityService(db.DB)
	now := time.Now()

	for offset := 13; offset >= 0; offset-- {
		// 空出两天制造一次断档
		if offset == 6 || offset == 7 {
			continue
		}
		date := now.AddDate(0, 0, -offset)
		if _, err := activities.Log(ownerID, service.ActivityInput{
			Type:        service.ActivityPractice,
			Description: "日常练习",
			Date:        date,
		}); err != nil {
			log.Fatal("写入动态失败:", err)
		}
	}

	fmt.Println("✅ 测试动态创建完成")
}
