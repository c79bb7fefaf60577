package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ignite/campaign-runner/internal/api"
	"github.com/ignite/campaign-runner/internal/config"
	"github.com/ignite/campaign-runner/internal/filestore"
	"github.com/ignite/campaign-runner/internal/mailer"
	"github.com/ignite/campaign-runner/internal/repository/postgres"
	"github.com/ignite/campaign-runner/internal/runner"
	"github.com/ignite/campaign-runner/internal/service/campaign"
	"github.com/ignite/campaign-runner/internal/service/history"
	"github.com/ignite/campaign-runner/internal/service/sender"
	"github.com/ignite/campaign-runner/internal/supervisor"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"
)

// checkPortAvailable verifies that the target port is not already in use.
// This prevents confusion from a stale process occupying the port.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v\n"+
			"  Hint: Run 'lsof -i :%d' to find the blocking process", port, addr, err, port)
	}
	ln.Close()
	return nil
}

func extractHost(dsn string) string {
	at := strings.Index(dsn, "@")
	if at < 0 {
		return "(unknown)"
	}
	rest := dsn[at+1:]
	if slash := strings.Index(rest, "/"); slash >= 0 {
		rest = rest[:slash]
	}
	return rest
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		log.Fatalf("[server] load config %s: %v", configPath, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatalf("[server] open database: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime())

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("[server] database ping (%s): %v", extractHost(cfg.Database.URL), err)
	}
	log.Printf("[server] connected to database at %s", extractHost(cfg.Database.URL))

	campaignRepo := postgres.NewCampaignRepo(db)
	senderRepo := postgres.NewSenderRepo(db)
	historyRepo := postgres.NewHistoryRepo(db)

	// Audit log: Redis when configured, in-process ring otherwise.
	var audit mailer.AuditLog
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
		err := rdb.Ping(pingCtx).Err()
		pingCancel()
		if err != nil {
			log.Printf("[server] redis unavailable (%s), using in-memory email log: %v", cfg.Redis.Addr, err)
			audit = mailer.NewMemoryAuditLog()
		} else {
			log.Printf("[server] email log backed by redis at %s", cfg.Redis.Addr)
			audit = mailer.NewRedisAuditLog(rdb)
			defer rdb.Close()
		}
	} else {
		audit = mailer.NewMemoryAuditLog()
	}

	// Document storage for lead lists and templates
	files, err := filestore.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("[server] init storage (%s): %v", cfg.Storage.Type, err)
	}
	log.Printf("[server] document storage: %s", cfg.Storage.Type)

	// Services
	histories := history.NewService(historyRepo, cfg.Engine.StalenessWindow())
	campaigns := campaign.NewService(campaignRepo, histories, files, cfg.Defaults)
	smtp := mailer.NewSMTP(cfg.SMTP)
	senders := sender.NewService(senderRepo, smtp)

	sup := supervisor.New(campaigns, senders, histories, smtp, audit, runner.Config{
		PollInterval:  cfg.Engine.PollInterval(),
		ErrorCooldown: cfg.Engine.ErrorCooldown(),
	})
	if err := sup.ReconcileOnStartup(ctx); err != nil {
		log.Printf("[server] startup reconcile: %v", err)
	}

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		log.Fatalf("[server] %v", err)
	}

	srv := api.NewServer(cfg.Server, campaigns, senders, histories, sup, audit)
	addr := fmt.Sprintf("%s:%d", host, cfg.Server.Port)

	serverErr := make(chan error, 1)
	go func() {
		log.Printf("[server] listening on http://%s", addr)
		serverErr <- srv.ListenAndServe(addr)
	}()

	// Wait for shutdown signal or server failure
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sig:
		log.Printf("[server] received %s, shutting down", s)
	case err := <-serverErr:
		log.Printf("[server] http server stopped: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[server] http shutdown: %v", err)
	}
	sup.Shutdown()
	log.Println("[server] shutdown complete")
}
