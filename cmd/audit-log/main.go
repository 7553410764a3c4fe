package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/clinicdesk/admin-console/pkg/common/config"
	"github.com/clinicdesk/admin-console/pkg/common/kafka"
	"github.com/clinicdesk/admin-console/pkg/common/logger"
	"github.com/clinicdesk/admin-console/pkg/common/models"
)

// audit-log tails the console's audit topic and writes every record change to
// the structured log.
func main() {
	logger.Init()
	cfg := config.Load()

	if len(cfg.KafkaBrokers) == 0 {
		logger.Log.Fatal("KAFKA_BROKERS is required")
	}

	consumer := kafka.NewConsumer(cfg.KafkaBrokers, cfg.AuditTopic, cfg.KafkaGroupID)
	defer consumer.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logger.Log.WithFields(map[string]interface{}{
		"topic": cfg.AuditTopic,
		"group": cfg.KafkaGroupID,
	}).Info("Audit log started")

	if err := consumer.Consume(ctx, logEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Log.WithError(err).Fatal("Consumer error")
	}
	logger.Log.Info("Audit log stopped")
}

func logEvent(ctx context.Context, event models.Event) error {
	logger.Log.WithFields(map[string]interface{}{
		"event_id":   event.ID,
		"event_type": event.Type,
		"source":     event.Source,
		"resource":   event.Data["resource"],
		"key":        event.Data["key"],
		"request_id": event.Metadata["request_id"],
		"at":         event.Timestamp,
	}).Info("Record changed")
	return nil
}
