package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/suPer8Hu/pneuma-api/internal/config"
	"github.com/suPer8Hu/pneuma-api/internal/db"
	"github.com/suPer8Hu/pneuma-api/internal/logging"
	"github.com/suPer8Hu/pneuma-api/internal/querylog"
	"github.com/suPer8Hu/pneuma-api/internal/store/rabbitmq"
)

func main() {
	var cfgPath string
	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Consume query events and store them in the query log",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			run(cfgPath)
		},
	}
	cmd.Flags().StringVar(&cfgPath, "config", "", "optional config file")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfgPath string) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Options{
		Level:      cfg.LogLevel,
		File:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	if cfg.RabbitURL == "" {
		log.Fatal().Msg("RABBIT_URL is required for the query log worker")
	}

	gdb, err := db.Connect(cfg.DBDriver, cfg.DBDSN, &querylog.Entry{})
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close(gdb)

	repo := querylog.NewRepo(gdb)

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit dial")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatal().Err(err).Msg("rabbit channel")
	}
	defer ch.Close()

	if err := rabbitmq.DeclareQueues(ch, cfg.RabbitQueue); err != nil {
		log.Fatal().Err(err).Msg("queue declare")
	}

	//  strict concurrency control
	concurrency := cfg.WorkerConcurrency

	if err := ch.Qos(concurrency, 0, false); err != nil {
		log.Fatal().Err(err).Msg("qos")
	}

	msgs, err := ch.Consume(cfg.RabbitQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("consume")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("queue", cfg.RabbitQueue).Int("concurrency", concurrency).Msg("worker started")

	// worker pool
	jobs := make(chan amqp.Delivery, concurrency*2)

	var wg sync.WaitGroup
	wg.Add(concurrency)
	for i := 0; i < concurrency; i++ {
		go func(workerID int) {
			defer wg.Done()
			for d := range jobs {
				start := time.Now()
				if err := handleDelivery(ctx, repo, d.Body); err != nil {
					log.Error().Err(err).Int("worker", workerID).Dur("cost", time.Since(start)).Msg("query event failed")
					_ = d.Nack(false, false)
					continue
				}
				if err := d.Ack(false); err != nil {
					log.Error().Err(err).Int("worker", workerID).Msg("ack failed")
				}
			}
		}(i)
	}

	// dispatcher
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("worker shutting down")
			close(jobs)
			wg.Wait()
			return

		case d, ok := <-msgs:
			if !ok {
				log.Warn().Msg("delivery channel closed")
				close(jobs)
				wg.Wait()
				return
			}
			jobs <- d
		}
	}
}

// handleDelivery decodes one query event and stores it. Redelivered events
// are ignored by the repo.
func handleDelivery(ctx context.Context, repo *querylog.Repo, body []byte) error {
	ev, err := rabbitmq.DecodeEvent(body)
	if err != nil {
		return err
	}
	if err := repo.Insert(ctx, ev.Entry()); err != nil {
		return err
	}
	log.Debug().Str("event_id", ev.ID).Str("session_id", ev.SessionID).Msg("query event stored")
	return nil
}
