// Package kafka publishes platform events to the bus.  Publishing is a
// best-effort side effect; the services log and swallow failures.
package kafka

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"

	appn "github.com/turtacn/MedRx-Intelligence/internal/application/prescription"
	"github.com/turtacn/MedRx-Intelligence/internal/config"
	"github.com/turtacn/MedRx-Intelligence/internal/domain/medication"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

// Event envelope shared by every message on the topic.
type envelope struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

const (
	typePrescriptionAnalyzed = "prescription.analyzed"
	typeIntakeLogged         = "medication.intake_logged"
	typeStatusChanged        = "medication.status_changed"
)

// Publisher writes events to one Kafka topic, keyed by patient or medication
// so per-entity ordering holds within a partition.
type Publisher struct {
	writer *kafkago.Writer
	logger logging.Logger
}

// NewPublisher builds the topic writer.
func NewPublisher(cfg config.KafkaConfig, logger logging.Logger) (*Publisher, error) {
	if !cfg.Enabled() {
		return nil, errors.New(errors.ErrCodeBadRequest, "kafka brokers not configured")
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: cfg.BatchTimeout,
		RequiredAcks: kafkago.RequiredAcks(cfg.RequiredAcks),
	}
	return &Publisher{writer: writer, logger: logger.Named("kafka")}, nil
}

func (p *Publisher) publish(ctx context.Context, key, eventType string, payload interface{}) error {
	data, err := json.Marshal(envelope{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "encode event")
	}
	if err := p.writer.WriteMessages(ctx, kafkago.Message{Key: []byte(key), Value: data}); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "write kafka message")
	}
	return nil
}

// PrescriptionAnalyzed implements the application-layer EventPublisher.
func (p *Publisher) PrescriptionAnalyzed(ctx context.Context, evt *appn.AnalyzedEvent) error {
	return p.publish(ctx, strconv.FormatInt(evt.PatientID, 10), typePrescriptionAnalyzed, evt)
}

// IntakeLogged implements medication.EventSink.
func (p *Publisher) IntakeLogged(ctx context.Context, log *medication.IntakeLog) {
	if err := p.publish(ctx, strconv.FormatInt(log.MedicationID, 10), typeIntakeLogged, log); err != nil {
		p.logger.Warn("intake event publish failed", logging.Err(err))
	}
}

// StatusChanged implements medication.EventSink.
func (p *Publisher) StatusChanged(ctx context.Context, med *medication.Medication) {
	if err := p.publish(ctx, strconv.FormatInt(med.ID, 10), typeStatusChanged, med); err != nil {
		p.logger.Warn("status event publish failed", logging.Err(err))
	}
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
