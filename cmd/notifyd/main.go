package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	notify_sdk "github.com/cydxin/notify-sdk"
	"github.com/cydxin/notify-sdk/config"
	"github.com/cydxin/notify-sdk/service"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	root := &cobra.Command{
		Use:   "notifyd",
		Short: "Resident messaging and notification delivery service",
	}
	root.AddCommand(serveCmd(), migrateCmd(), tokenCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsDevelopment() {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(cfg.MySQLDSN), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("数据库连接失败: %w", err)
	}
	return db, nil
}

func openRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
}

func buildPolicy(cfg *config.Config, logger *slog.Logger) (service.AuthorizationPolicy, error) {
	if cfg.CasbinModelPath != "" && cfg.CasbinPolicyPath != "" {
		return service.NewCasbinPolicyFromFiles(logger, cfg.CasbinModelPath, cfg.CasbinPolicyPath)
	}
	return service.NewCasbinPolicy(logger, cfg.AdminIDs...)
}

func buildMailer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.Mailer, error) {
	if !cfg.GmailConfigured() {
		logger.Warn("gmail not configured, mails are only logged")
		return service.LogMailer{Logger: logger}, nil
	}
	return service.NewGmailMailer(ctx, service.GmailConfig{
		ClientID:        cfg.GmailClientID,
		ClientSecret:    cfg.GmailClientSecret,
		RefreshToken:    cfg.GmailRefreshToken,
		CredentialsFile: cfg.GmailCredentials,
		SenderEmail:     cfg.MailFrom,
	})
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := newLogger(cfg)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			rdb := openRedis(cfg)
			defer rdb.Close()

			policy, err := buildPolicy(cfg, logger)
			if err != nil {
				return err
			}
			mailer, err := buildMailer(ctx, cfg, logger)
			if err != nil {
				return err
			}

			opts := []notify_sdk.Option{
				notify_sdk.WithDB(db),
				notify_sdk.WithRDB(rdb),
				notify_sdk.WithLogger(logger),
				notify_sdk.WithServiceDebug(cfg.IsDevelopment()),
				notify_sdk.WithRequestTimeout(cfg.RequestTimeout),
				notify_sdk.WithAuthorizationPolicy(policy),
				notify_sdk.WithMailer(mailer),
				notify_sdk.WithMailFrom(cfg.MailFrom),
				notify_sdk.WithSenderLabel(cfg.SenderLabel),
				notify_sdk.WithMailBreaker(service.BreakerConfig{
					MaxRequests:      1,
					Interval:         time.Minute,
					Timeout:          cfg.MailBreakerTimeout,
					FailureThreshold: uint32(cfg.MailBreakerTrips),
				}),
				notify_sdk.WithEmergencyOverridesReadState(cfg.EmergencyOnTop),
			}
			if cfg.RabbitMQURL != "" {
				pub, err := service.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, logger)
				if err != nil {
					return err
				}
				opts = append(opts, notify_sdk.WithEventPublisher(pub))
			}

			engine := notify_sdk.NewEngine(opts...)
			defer engine.Close()

			if !cfg.IsDevelopment() {
				gin.SetMode(gin.ReleaseMode)
			}
			r := gin.New()
			r.Use(gin.Recovery())
			notify_sdk.RegisterSwagger(r, nil)
			engine.RegisterRoutes(r.Group("/api/v1"))

			srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
			go func() {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()

			logger.Info("notifyd listening", "addr", cfg.HTTPAddr, "swagger", "/swagger/index.html")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables and backfill derived columns",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			db, err := openDB(cfg)
			if err != nil {
				return err
			}
			engine := notify_sdk.New(
				notify_sdk.WithDB(db),
				notify_sdk.WithLogger(newLogger(cfg)),
				notify_sdk.WithSkipAutoMigrate(true),
			)
			return engine.AutoMigrate()
		},
	}
}

func tokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <user_id>",
		Short: "Issue a bearer token for a resident (development)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil || uid == 0 {
				return fmt.Errorf("invalid user_id %q", args[0])
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if ttl == 0 {
				ttl = cfg.TokenTTL
			}
			rdb := openRedis(cfg)
			defer rdb.Close()

			token, err := service.NewTokenService(rdb).Issue(cmd.Context(), uid, ttl)
			if err != nil {
				return err
			}
			log.Printf("token for user %d (ttl %s)", uid, ttl)
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default TOKEN_TTL)")
	return cmd
}
