package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/suPer8Hu/pneuma-api/internal/auth"
	"github.com/suPer8Hu/pneuma-api/internal/config"
	"github.com/suPer8Hu/pneuma-api/internal/db"
	"github.com/suPer8Hu/pneuma-api/internal/discovery"
	"github.com/suPer8Hu/pneuma-api/internal/engine"
	"github.com/suPer8Hu/pneuma-api/internal/httpapi"
	"github.com/suPer8Hu/pneuma-api/internal/httpapi/handlers"
	"github.com/suPer8Hu/pneuma-api/internal/logging"
	"github.com/suPer8Hu/pneuma-api/internal/metrics"
	"github.com/suPer8Hu/pneuma-api/internal/querylog"
	"github.com/suPer8Hu/pneuma-api/internal/session"
	"github.com/suPer8Hu/pneuma-api/internal/store/rabbitmq"
	"github.com/suPer8Hu/pneuma-api/internal/store/redisstore"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string
	root := &cobra.Command{
		Use:           "pneuma-api",
		Short:         "Pneuma table discovery API",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "optional config file (yaml, json or toml)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "hash-password [password]",
		Short: "Print a bcrypt hash for ADMIN_PASSWORD_HASH",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pw := ""
			if len(args) == 1 {
				pw = args[0]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && line == "" {
					return err
				}
				pw = strings.TrimRight(line, "\r\n")
			}
			if pw == "" {
				return errors.New("password must not be empty")
			}
			hash, err := auth.HashPassword(pw)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	})
	return root
}

func serve(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	logging.Init(logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	gin.SetMode(gin.ReleaseMode)
	log.Info().Str("version", cfg.APIVersion).Msg("starting pneuma api server")

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	rds, err := redisstore.New(ctx, redisstore.Options{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}
	defer rds.Close()

	gdb, err := db.Connect(cfg.DBDriver, cfg.DBDSN, &querylog.Entry{})
	if err != nil {
		return fmt.Errorf("query log: %w", err)
	}
	defer db.Close(gdb)
	repo := querylog.NewRepo(gdb)

	var recorder querylog.Recorder = querylog.NewDirectRecorder(repo)
	if cfg.RabbitURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue)
		if err != nil {
			return fmt.Errorf("rabbitmq: %w", err)
		}
		recorder = pub
	}
	defer recorder.Close()

	eng, err := engine.DefaultRegistry().Get(ctx, cfg.PneumaEngine, engine.Options{
		URL:         cfg.PneumaEngineURL,
		StoragePath: cfg.PneumaStoragePath,
		LLMPath:     cfg.PneumaLLMPath,
		EmbedPath:   cfg.PneumaEmbedPath,
	})
	if err != nil {
		return err
	}

	pool := discovery.NewPool(cfg.PneumaWorkers)
	defer pool.Close()

	disc := discovery.NewService(eng, pool, cfg.PneumaDefaultIndex)
	if err := disc.Initialize(ctx); err != nil {
		return fmt.Errorf("pneuma setup: %w", err)
	}

	var m *metrics.Metrics
	if cfg.EnableMetrics {
		m = metrics.New()
	}

	h := handlers.NewHandler(cfg, disc, session.NewManager(rds, cfg.SessionTTL(), m))
	h.Recorder = recorder
	h.QueryLog = repo
	h.Metrics = m

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.APIHost, strconv.Itoa(cfg.APIPort)),
		Handler:           httpapi.NewRouter(h),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("addr", srv.Addr).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down pneuma api server")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})
	return g.Wait()
}
