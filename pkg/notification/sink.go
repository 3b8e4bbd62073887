package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Sink delivers a rendered notification to the user.
type Sink interface {
	Send(ctx context.Context, n Notification, recipient string) error
}

type Publisher interface {
	Publish(ctx context.Context, messageId string, body []byte) error
}

// Message is the payload published to the message broker.
type Message struct {
	Id        string    `json:"id"`
	UserId    int       `json:"userId"`
	BudgetId  int       `json:"budgetId"`
	Recipient string    `json:"recipient"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	SentAt    time.Time `json:"sentAt"`
}

// BrokerSink publishes notifications for an external mailer to deliver.
type BrokerSink struct {
	publisher Publisher
}

func NewBrokerSink(publisher Publisher) *BrokerSink {
	return &BrokerSink{publisher: publisher}
}

func (s *BrokerSink) Send(ctx context.Context, n Notification, recipient string) error {
	body, err := json.Marshal(Message{
		Id:        n.Id.String(),
		UserId:    n.UserId,
		BudgetId:  n.BudgetId,
		Recipient: recipient,
		Subject:   n.Subject,
		Body:      n.Message,
		SentAt:    n.SentAt,
	})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	return s.publisher.Publish(ctx, n.Id.String(), body)
}

// LogSink only logs notifications. It is used when no broker is configured.
type LogSink struct{}

func (LogSink) Send(ctx context.Context, n Notification, recipient string) error {
	log.WithFields(log.Fields{
		"user":      n.UserId,
		"budget":    n.BudgetId,
		"recipient": recipient,
	}).Infof("%s: %s", n.Subject, n.Message)
	return nil
}

// SinkStub records sent notifications.
type SinkStub struct {
	mu   sync.Mutex
	Sent []Notification
	Err  error
}

func (s *SinkStub) Send(ctx context.Context, n Notification, recipient string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.Sent = append(s.Sent, n)
	return nil
}
