package handlers

import (
	"github.com/jakejheack/hanapp/internal/asap"
	"github.com/jakejheack/hanapp/internal/chat"
	"github.com/jakejheack/hanapp/internal/config"
	"github.com/jakejheack/hanapp/internal/notify"
	"github.com/jakejheack/hanapp/internal/store/redisstore"
	"gorm.io/gorm"
)

type Handler struct {
	DB    *gorm.DB
	Cfg   config.Config
	Redis *redisstore.Store

	Repo        *asap.Repo
	Locator     *asap.Locator
	Coordinator *asap.Coordinator
	Sweeper     *asap.Sweeper

	ChatSvc       *chat.Service
	Notifications *notify.Repo
}

func NewHandler(db *gorm.DB, cfg config.Config, rds *redisstore.Store, pub notify.EventPublisher) *Handler {
	repo := asap.NewRepo(db)
	chatRepo := chat.NewRepo(db)
	notifRepo := notify.NewRepo(db, pub)

	var locker asap.Locker
	if rds != nil {
		locker = rds
	}

	return &Handler{
		DB:    db,
		Cfg:   cfg,
		Redis: rds,

		Repo:        repo,
		Locator:     asap.NewLocator(repo, cfg.MaxDistanceKm, cfg.CandidateLimit),
		Coordinator: asap.NewCoordinator(repo, chatRepo, notifRepo),
		Sweeper: asap.NewSweeper(repo, chatRepo, notifRepo,
			cfg.ConversionWindow, cfg.SweepInterval, locker),

		ChatSvc:       chat.NewService(chatRepo),
		Notifications: notifRepo,
	}
}
