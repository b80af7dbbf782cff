package main

import (
	"context"
	"log"

	"github.com/jakejheack/hanapp/internal/asap"
	"github.com/jakejheack/hanapp/internal/chat"
	"github.com/jakejheack/hanapp/internal/config"
	"github.com/jakejheack/hanapp/internal/db"
	"github.com/jakejheack/hanapp/internal/httpapi"
	"github.com/jakejheack/hanapp/internal/models"
	"github.com/jakejheack/hanapp/internal/notify"
	"github.com/jakejheack/hanapp/internal/store/rabbitmq"
	"github.com/jakejheack/hanapp/internal/store/redisstore"
)

func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)

	if err := gdb.AutoMigrate(
		&models.User{},
		&asap.AsapListing{},
		&asap.PublicListing{},
		&asap.Application{},
		&chat.Conversation{},
		&chat.Message{},
		&notify.Notification{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := rds.Ping(context.Background()); err != nil {
		log.Fatalf("redis ping: %v", err)
	}
	defer rds.Close()

	// the push relay is optional; the API keeps working without it
	var pub notify.EventPublisher
	if p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue); err != nil {
		log.Printf("rabbit unavailable, notification events disabled: %v", err)
	} else {
		defer p.Close()
		pub = p
	}

	r := httpapi.NewRouter(gdb, cfg, rds, pub)

	log.Printf("server started port=%s window=%s", cfg.Port, cfg.ConversionWindow)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
