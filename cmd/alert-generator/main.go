// Command alert-generator publishes generated alert payloads to the alerts
// topic for exercising the alert processor.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/Dyel-L/alert-processor/internal/generator"
	"github.com/Dyel-L/alert-processor/internal/producer"
	"github.com/Dyel-L/alert-processor/pkg/shared"
)

// publisher writes one raw payload.
type publisher interface {
	Write(ctx context.Context, key, value []byte) error
	Close() error
}

// logPublisher logs payloads instead of sending them.
type logPublisher struct{}

func (logPublisher) Write(_ context.Context, key, value []byte) error {
	slog.Info("Dry run payload", "key", string(key), "value", string(value))
	return nil
}

func (logPublisher) Close() error { return nil }

func main() {
	_ = godotenv.Load()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	genCfg := generator.DefaultConfig()
	var (
		brokers string
		topic   string
		rps     float64
		count   int
		dryRun  bool
	)
	flag.StringVar(&brokers, "kafka-brokers", shared.GetEnvOrDefault("KAFKA_BROKERS", "localhost:9092"), "Kafka broker addresses (comma-separated)")
	flag.StringVar(&topic, "alerts-topic", shared.GetEnvOrDefault("ALERTS_TOPIC", "alerts"), "Kafka topic for inbound alerts")
	flag.Float64Var(&rps, "rps", 10, "Payloads per second")
	flag.IntVar(&count, "count", 100, "Number of payloads to send (0 = until interrupted)")
	flag.Int64Var(&genCfg.Seed, "seed", 0, "Random seed for reproducible payloads (0 = random)")
	flag.StringVar(&genCfg.SeverityDist, "severity-dist", genCfg.SeverityDist, "Severity distribution (format: SEVERITY:percent,...)")
	flag.StringVar(&genCfg.TypeDist, "type-dist", genCfg.TypeDist, "Alert type distribution (format: TYPE:percent,...)")
	flag.IntVar(&genCfg.Clients, "clients", genCfg.Clients, "Number of distinct client IDs")
	flag.IntVar(&genCfg.InvalidPercent, "invalid-percent", genCfg.InvalidPercent, "Share of malformed payloads")
	flag.IntVar(&genCfg.DuplicatePercent, "duplicate-percent", genCfg.DuplicatePercent, "Share of re-sent earlier payloads")
	flag.BoolVar(&dryRun, "dry-run", false, "Log payloads instead of sending them to Kafka")
	flag.Parse()

	if rps <= 0 {
		slog.Error("Invalid configuration", "error", "rps must be positive")
		os.Exit(1)
	}
	gen, err := generator.New(genCfg)
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, stopping generator...")
		cancel()
	}()

	var pub publisher = logPublisher{}
	if !dryRun {
		p, err := producer.NewProducer(brokers, topic)
		if err != nil {
			slog.Error("Failed to create Kafka producer", "error", err)
			slog.Info("Tip: Start Kafka with 'docker compose up -d kafka' or use -dry-run")
			os.Exit(1)
		}
		pub = p
	}
	defer pub.Close()

	sent := send(ctx, gen, pub, rps, count)
	slog.Info("Alert generator finished",
		"valid", sent[generator.KindValid],
		"invalid", sent[generator.KindInvalid],
		"duplicate", sent[generator.KindDuplicate],
	)
}

// send publishes payloads at rps until count is reached or ctx is done.
func send(ctx context.Context, gen *generator.Generator, pub publisher, rps float64, count int) map[generator.Kind]int {
	sent := make(map[generator.Kind]int)
	ticker := time.NewTicker(time.Duration(float64(time.Second) / rps))
	defer ticker.Stop()

	for n := 0; count == 0 || n < count; n++ {
		select {
		case <-ctx.Done():
			return sent
		case <-ticker.C:
		}

		p := gen.Next()
		if err := pub.Write(ctx, p.Key, p.Value); err != nil {
			if ctx.Err() != nil {
				return sent
			}
			slog.Error("Failed to publish payload", "kind", p.Kind, "error", err)
			continue
		}
		sent[p.Kind]++
	}
	return sent
}
