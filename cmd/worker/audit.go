package worker

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/commentera/commentera-api/internal/config"
	"github.com/commentera/commentera-api/internal/db"
	"github.com/commentera/commentera-api/internal/dispatcher"
	"github.com/commentera/commentera-api/internal/kafka"
	"github.com/commentera/commentera-api/internal/metrics"
	"github.com/commentera/commentera-api/internal/repository"
	"github.com/commentera/commentera-api/internal/service/badge"
	"github.com/commentera/commentera-api/internal/worker"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Consume badge events into ClickHouse and fan out webhooks",
	RunE:  runAudit,
}

func runAudit(cmd *cobra.Command, args []string) error {
	// 1) load config
	cfgPath, _ := cmd.Root().PersistentFlags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	metrics.MustRegister(prometheus.DefaultRegisterer)

	// 2) ClickHouse connection
	chDB, err := db.NewClickHouseConnection(db.ClickHouseOpts{
		DSN:             cfg.ClickHouse.DSN,
		MaxOpenConns:    cfg.ClickHouse.MaxOpenConns,
		MaxIdleConns:    cfg.ClickHouse.MaxIdleConns,
		ConnMaxLifetime: cfg.ClickHouse.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ClickHouse.ConnMaxIdleTime,
		PingTimeout:     cfg.ClickHouse.PingTimeout,
	})
	if err != nil {
		return fmt.Errorf("clickhouse connect: %w", err)
	}
	defer func() { _ = chDB.Close() }()

	eventsRepo := repository.NewEventsRepository(chDB)

	// 3) webhook endpoints → dispatcher
	var eps []dispatcher.Endpoint
	maxAttempts := 2
	for _, wc := range cfg.Webhooks {
		if !wc.Enabled || strings.TrimSpace(wc.URL) == "" {
			continue
		}
		eps = append(eps,
			dispatcher.NewHTTPEndpoint(
				wc.Name,
				strings.TrimRight(wc.URL, "/"),
				wc.TimeoutMs,
				wc.Breaker.FailThreshold,
				wc.Breaker.OpenForMs,
			),
		)
		if wc.MaxAttempts > maxAttempts {
			maxAttempts = wc.MaxAttempts
		}
	}
	disp := dispatcher.NewDispatcher(eps, maxAttempts)

	// 4) kafka consumer
	topic := cfg.Kafka.Topic
	if topic == "" {
		topic = badge.EventsTopic
	}
	groupID := cfg.Kafka.GroupID
	if groupID == "" {
		groupID = "commentera-audit"
	}

	consumer := kafka.NewConsumerFromConfig(kafka.Config{
		Brokers:        cfg.Kafka.Brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       cfg.Kafka.MinBytes,
		MaxBytes:       cfg.Kafka.MaxBytes,
		CommitInterval: time.Duration(cfg.Kafka.CommitInterval) * time.Millisecond,
	})
	defer consumer.Close()

	w := worker.NewAudit(consumer, eventsRepo, disp)

	// tune knobs
	if cfg.Audit.BatchSize > 0 {
		w.BatchSize = cfg.Audit.BatchSize
	}
	if cfg.Audit.BatchWait > 0 {
		w.BatchWait = cfg.Audit.BatchWait
	}

	// 5) graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf(">> audit worker started topic=%s group=%s webhooks=%d batchSize=%d batchWait=%s",
		topic, groupID, disp.Endpoints(), w.BatchSize, w.BatchWait)

	return w.Run(ctx)
}
