package handler

import (
	"time"

	"github.com/devtrack/internal/config"
	"github.com/devtrack/internal/logger"
	"github.com/devtrack/internal/service"
	gocache "github.com/patrickmn/go-cache"
	"gorm.io/gorm"
)

// API 聚合各处理器共享的服务依赖
type API struct {
	db           *gorm.DB
	log          *logger.Logger
	users        *service.UserService
	skills       *service.SkillService
	projects     *service.ProjectService
	resources    *service.ResourceService
	tags         *service.TagService
	activities   *service.ActivityService
	timeEntries  *service.TimeEntryService
	stats        *service.StatsService
	statsCache   *gocache.Cache
	jwtSecret    string
	jwtIssuer    string
	exposeErrors bool
}

// NewAPI 构造处理器集合并装配共享服务
func NewAPI(gdb *gorm.DB, cfg config.AppConfig, log *logger.Logger) *API {
	activityService := service.NewActivityService(gdb)

	statsTTL := cfg.StatsCacheTTL
	if statsTTL <= 0 {
		statsTTL = time.Minute
	}

	return &API{
		db:           gdb,
		log:          log,
		users:        service.NewUserService(gdb),
		skills:       service.NewSkillService(gdb, activityService),
		projects:     service.NewProjectService(gdb, activityService),
		resources:    service.NewResourceService(gdb),
		tags:         service.NewTagService(gdb),
		activities:   activityService,
		timeEntries:  service.NewTimeEntryService(gdb, activityService),
		stats:        service.NewStatsService(gdb),
		statsCache:   gocache.New(statsTTL, 2*statsTTL),
		jwtSecret:    cfg.JWTSecret,
		jwtIssuer:    cfg.JWTIssuer,
		exposeErrors: cfg.ExposeErrorDetail,
	}
}
