package main

import (
	"context"
	"crypto/tls"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"boardsync/api"
	"boardsync/board"
	"boardsync/subscription"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	logger := log.New()
	logger.SetLevel(log.GetLevel())

	store := board.NewTaskStore()
	registry := board.NewRegistry()
	hub := api.NewHub(store, registry, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if redisConn := os.Getenv("REDIS_CONNECTION_STRING"); redisConn != "" {
		rc := redis.NewClient(redisOptions(redisConn))
		channel := os.Getenv("BOARD_EVENTS_CHANNEL")
		if channel == "" {
			channel = "board:events"
		}
		instanceID := uuid.NewString()
		hub.SetPublisher(subscription.NewPublisher(rc, channel, instanceID, logger))
		go subscription.SubscribeEvents(ctx, logger, rc, store, hub, channel, instanceID)
		logger.WithFields(log.Fields{"channel": channel, "instance_id": instanceID}).Info("cross-instance sync enabled")
	}

	go hub.Run()
	defer hub.Stop()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	api.Register(e, hub, logger)

	publicDir := os.Getenv("PUBLIC_DIR")
	if publicDir == "" {
		publicDir = "public"
	}
	e.Static("/", publicDir)

	host := os.Getenv("HOST")
	if host == "" {
		host = "0.0.0.0"
	}
	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}
	listenAddr := host + ":" + port

	logger.Infof("real-time board server listening on %s", listenAddr)
	e.Logger.Fatal(e.Start(listenAddr))
}

// redisOptions parses a redis URL, falling back to the comma-separated
// host,password=...,ssl=... form used by managed Redis connection strings.
func redisOptions(redisConn string) *redis.Options {
	opts, err := redis.ParseURL(redisConn)
	if err == nil {
		return opts
	}
	parts := strings.Split(redisConn, ",")
	opts = &redis.Options{Addr: parts[0]}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToLower(kv[0]) {
		case "password":
			opts.Password = kv[1]
		case "ssl":
			if strings.ToLower(kv[1]) == "true" {
				opts.TLSConfig = &tls.Config{}
			}
		}
	}
	return opts
}
