package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jakejheack/hanapp/internal/asap"
	"github.com/jakejheack/hanapp/internal/chat"
	"github.com/jakejheack/hanapp/internal/config"
	"github.com/jakejheack/hanapp/internal/db"
	"github.com/jakejheack/hanapp/internal/notify"
	"github.com/jakejheack/hanapp/internal/store/rabbitmq"
	"github.com/jakejheack/hanapp/internal/store/redisstore"
)

// The sweeper replaces the old cron-hit conversion endpoint: it ticks
// on an interval and converts pending ASAP listings that outlived the
// acceptance window.
func main() {
	cfg := config.Load()

	gdb := db.Connect(cfg.DBDSN)

	rds := redisstore.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := rds.Ping(context.Background()); err != nil {
		log.Fatalf("redis ping: %v", err)
	}
	defer rds.Close()

	var pub notify.EventPublisher
	if p, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue); err != nil {
		log.Printf("rabbit unavailable, notification events disabled: %v", err)
	} else {
		defer p.Close()
		pub = p
	}

	repo := asap.NewRepo(gdb)
	chats := chat.NewRepo(gdb)
	notifier := notify.NewRepo(gdb, pub)

	sweeper := asap.NewSweeper(repo, chats, notifier,
		cfg.ConversionWindow, cfg.SweepInterval, rds)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper.Run(ctx)
}
