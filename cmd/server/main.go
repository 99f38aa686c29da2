package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/Nixie-Tech-LLC/masjid-console/internal/ack"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/config"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/db"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/http/api"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/iqamah"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/rangestore"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/realtime"
	"github.com/Nixie-Tech-LLC/masjid-console/internal/redis"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogging(cfg)

	if err := api.RegisterValidators(); err != nil {
		log.Fatal().Err(err).Msg("failed to register validators")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := Dependencies{}
	guard := ack.Guard(ack.NewLocalGuard())
	var cache iqamah.MonthCache
	var recorder ack.Recorder

	// redis is optional: month cache + shared broadcast guard
	if cfg.RedisAddress != "" {
		redis.InitRedis(cfg.RedisAddress, cfg.RedisUsername, cfg.RedisPassword)
		if err := redis.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("address", cfg.RedisAddress).Msg("redis unavailable, running without cache")
		} else {
			cache = redis.NewMonthCache(redis.Rdb, cfg.MonthCacheTTL)
			guard = redis.NewGuard(redis.Rdb)
		}
	}

	// postgres is optional: command history
	if cfg.DatabaseURL != "" {
		if err := db.Init(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("db init")
		}
		if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("db migrate")
		}
		commandLog := db.NewCommandLog(db.DB)
		recorder = commandLog
		deps.History = commandLog
	}

	g, ctx := errgroup.WithContext(ctx)

	var channel ack.Channel
	switch cfg.RealtimeTransport {
	case config.TransportMQTT:
		mqttChannel, err := realtime.DialMQTT(realtime.MQTTConfig{
			BrokerURL:   cfg.MQTTBrokerURL,
			ClientID:    cfg.MQTTClientID,
			TopicPrefix: cfg.MQTTTopicPrefix,
			Username:    cfg.MQTTUsername,
			Password:    cfg.MQTTPassword,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("mqtt connect")
		}
		defer mqttChannel.Close()
		channel = mqttChannel
	default:
		hub := realtime.NewHub()
		g.Go(func() error { return hub.Run(ctx) })
		channel = hub
		deps.Hub = hub
		deps.Displays = hub
	}

	deps.Ranges = iqamah.NewService(rangestore.New(cfg.BackendBaseURL, cfg.BackendTimeout), cache)
	deps.Broadcaster = ack.NewBroadcaster(channel, ack.Options{
		Timeout:   cfg.AckTimeout,
		EarlyExit: cfg.AckEarlyExit,
		Guard:     guard,
		Recorder:  recorder,
	})

	if !cfg.Development() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	RegisterRoutes(r, deps)

	srv := &http.Server{Addr: cfg.ServerAddress, Handler: r}

	g.Go(func() error {
		log.Info().Str("address", cfg.ServerAddress).Str("transport", cfg.RealtimeTransport).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
	log.Info().Msg("server stopped")
}

func setupLogging(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Development() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}
}
