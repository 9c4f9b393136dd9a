package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"namegate/internal/audit"
	"namegate/internal/jwtauth"
	"namegate/internal/platform/config"
	"namegate/internal/platform/httpserver"
	"namegate/internal/platform/logger"
	"namegate/internal/platform/middleware"
	"namegate/internal/platform/postgres"
	redisplatform "namegate/internal/platform/redis"
	"namegate/internal/registrar/handler"
	"namegate/internal/registrar/metrics"
	"namegate/internal/registrar/ports"
	"namegate/internal/registrar/service"
	invitestore "namegate/internal/registrar/store/invite"
	issuerstore "namegate/internal/registrar/store/issuer"
	"namegate/internal/registry"
	regstore "namegate/internal/registry/store"
	"namegate/internal/signature"
	sigstore "namegate/internal/signature/store"

	id "namegate/pkg/domain"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "namegate: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New()

	owner, err := id.ParseAddress(cfg.OwnerAddress)
	if err != nil {
		return fmt.Errorf("parse owner address: %w", err)
	}
	engineID, err := id.ParseAddress(cfg.EngineID)
	if err != nil {
		return fmt.Errorf("parse engine id: %w", err)
	}

	// Stores default to in-memory; a Postgres URL switches all of them to
	// durable storage, a Redis URL additionally moves the replay ledger to
	// Redis so multiple instances share it.
	var (
		issuers  ports.IssuerStore
		invites  ports.InviteLedger
		claims   registry.Store
		accounts signature.AccountStore
	)
	if cfg.PostgresURL != "" {
		db, err := postgres.Open(ctx, cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		defer db.Close()

		if issuers, err = issuerstore.NewPostgres(ctx, db); err != nil {
			return fmt.Errorf("init issuer store: %w", err)
		}
		if invites, err = invitestore.NewPostgres(ctx, db); err != nil {
			return fmt.Errorf("init invite ledger: %w", err)
		}
		if claims, err = regstore.NewPostgres(ctx, db); err != nil {
			return fmt.Errorf("init registry store: %w", err)
		}
		if accounts, err = sigstore.NewPostgres(ctx, db); err != nil {
			return fmt.Errorf("init account store: %w", err)
		}
		log.Info("using postgres stores")
	} else {
		issuers = issuerstore.NewMemory()
		invites = invitestore.NewMemory()
		claims = regstore.NewMemory()
		accounts = sigstore.NewMemory()
		log.Warn("using in-memory stores; state is lost on restart")
	}

	rdb, err := redisplatform.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
		invites = invitestore.NewRedis(rdb.Client)
		log.Info("using redis invite ledger", "url", cfg.Redis.URL)
	}

	reg, err := registry.New(cfg.RootName, claims, registry.WithLogger(log))
	if err != nil {
		return fmt.Errorf("init registry: %w", err)
	}
	validator, err := signature.New(accounts, signature.WithLogger(log))
	if err != nil {
		return fmt.Errorf("init signature validator: %w", err)
	}

	opts := []service.Option{
		service.WithLogger(log),
		service.WithMetrics(metrics.New()),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := audit.NewKafka(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic, audit.WithKafkaLogger(log))
		if err != nil {
			return fmt.Errorf("init kafka publisher: %w", err)
		}
		defer publisher.Close()
		opts = append(opts, service.WithEventPublisher(publisher))
		log.Info("publishing events to kafka", "topic", cfg.Kafka.Topic)
	}

	svc, err := service.New(
		engineID, owner, cfg.ChainCoinType(),
		issuers, invites, reg, validator,
		opts...,
	)
	if err != nil {
		return fmt.Errorf("init registrar: %w", err)
	}

	jwtService := jwtauth.NewService(cfg.JWTSigningKey, "namegate", "namegate")

	router := chi.NewRouter()
	router.Use(middleware.RequestMeta)
	router.Get("/healthz", healthHandler(rdb))
	router.Handle("/metrics", promhttp.Handler())
	handler.New(svc, log, jwtService).Register(router)

	srv := httpserver.New(cfg.Addr, router)

	log.Info("starting namegate",
		"addr", cfg.Addr,
		"root", cfg.RootName,
		"chain_id", cfg.ChainID,
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func healthHandler(rdb *redisplatform.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if rdb != nil {
			if err := rdb.Health(r.Context()); err != nil {
				http.Error(w, "redis unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
