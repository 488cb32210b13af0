package notifier

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"gosupply/internal/domain"
	"gosupply/internal/pkg/logger"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publica eventos de transição em um tópico, chaveados pelo ID do pedido.
type KafkaNotifier struct {
	writer messageWriter
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{writer: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	}}
}

func newKafkaNotifierWithWriter(w messageWriter) *KafkaNotifier {
	return &KafkaNotifier{writer: w}
}

func (n *KafkaNotifier) Notify(ctx context.Context, event domain.OrderEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("falha ao serializar evento %s: %w", event.Type, err)
	}
	return n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.OrderID),
		Value: data,
		Time:  event.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
}

func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}

// LogNotifier apenas registra o evento; usado quando KAFKA_BROKERS está vazio.
type LogNotifier struct {
	logger logger.Logger
}

func NewLogNotifier(log logger.Logger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (n *LogNotifier) Notify(_ context.Context, event domain.OrderEvent) error {
	n.logger.Info("Evento de pedido.", map[string]interface{}{
		"type":     event.Type,
		"order_id": event.OrderID,
		"from":     event.From,
		"to":       event.To,
		"actor_id": event.ActorID,
	})
	return nil
}

// Multi entrega o evento a todos os destinos, mesmo que algum falhe.
type Multi []domain.Notifier

func (m Multi) Notify(ctx context.Context, event domain.OrderEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Deliver envia o evento sem bloquear além de timeout e sem herdar o cancelamento da requisição.
// Falhas são apenas registradas: a transição já foi gravada.
func Deliver(ctx context.Context, n domain.Notifier, event domain.OrderEvent, timeout time.Duration, log logger.Logger) {
	if n == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	if err := n.Notify(ctx, event); err != nil {
		log.Warn("Falha ao notificar transição do pedido.", map[string]interface{}{
			"type":     event.Type,
			"order_id": event.OrderID,
			"error":    err.Error(),
		})
	}
}
