package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"agendo-api/db"
	"agendo-api/internal/config"
	"agendo-api/internal/handler"
	"agendo-api/internal/logging"
	"agendo-api/internal/middleware"
	"agendo-api/internal/notify"
	"agendo-api/internal/payment"
	"agendo-api/internal/rpc"
	"agendo-api/internal/schedule"
	"agendo-api/internal/store"
	"agendo-api/internal/whatsapp"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "agendo: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, level, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// database
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	applied, err := db.Migrate(ctx, pool)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("connected to postgres", zap.Strings("migrations_applied", applied))

	st := store.New(pool)
	loc := cfg.Location()
	planner := schedule.NewPlanner(st, loc, cfg.BookingMargin)

	var gateways []payment.Gateway
	if cfg.Stripe.SecretKey != "" {
		gateways = append(gateways, payment.NewStripe(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret))
	}
	if cfg.Asaas.APIKey != "" {
		gateways = append(gateways, payment.NewAsaas(cfg.Asaas.APIKey, cfg.Asaas.BaseURL, cfg.Asaas.WebhookToken))
	}
	registry := payment.NewRegistry(gateways...)
	log.Info("payment gateways", zap.Strings("enabled", registry.Names()))

	var sender notify.Sender
	if cfg.WhatsApp.Token != "" {
		sender = whatsapp.NewCloudSender(cfg.WhatsApp.Token, cfg.WhatsApp.PhoneID)
	}
	dispatcher := notify.New(st, sender, log, cfg.NotifyWorkers, 256)
	dispatcher.Start()

	h := handler.New(st, planner, registry, dispatcher, handler.Options{
		Secret:             cfg.JWTSecret,
		Location:           loc,
		PlatformFeePercent: cfg.PlatformFeePercent,
		MinWithdrawalCents: cfg.MinWithdrawalCents,
	}, log)

	// http
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Recovery(log), middleware.AccessLog(log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	loginLimit := middleware.NewRateLimiter(5, 10)
	h.Routes(r, loginLimit)

	httpSrv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// grpc
	rpcLimit := middleware.NewRateLimiter(20, 40)
	grpcSrv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			middleware.RateLimit(rpcLimit),
			middleware.Auth(cfg.JWTSecret),
		),
	)
	hs := rpc.Register(grpcSrv, rpc.NewService(planner, st))
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http listening", zap.String("addr", httpSrv.Addr))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		log.Info("grpc listening", zap.String("addr", lis.Addr().String()))
		if err := grpcSrv.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			return fmt.Errorf("grpc: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		loginLimit.Run(gctx)
		return nil
	})
	g.Go(func() error {
		rpcLimit.Run(gctx)
		return nil
	})
	if cfg.Path != "" {
		lw, err := logging.NewLevelWatcher(cfg.Path, level, log)
		if err != nil {
			log.Warn("log level reload disabled", zap.Error(err))
		} else {
			g.Go(func() error { return lw.Run(gctx) })
		}
	}

	// graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		hs.SetServingStatus(rpc.ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

		sctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := httpSrv.Shutdown(sctx)
		grpcSrv.GracefulStop()
		if derr := dispatcher.Stop(sctx); derr != nil {
			log.Warn("notifications not drained", zap.Error(derr))
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("stopped")
	return nil
}
