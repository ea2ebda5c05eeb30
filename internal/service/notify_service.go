package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fadilmartias/interview-proctor/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

// Decision is the payload of the selection notification hook.
type Decision struct {
	Email  string `json:"email"`
	Name   string `json:"name"`
	Status string `json:"status"`
	Score  int    `json:"score"`
}

type DecisionPublisher interface {
	Publish(ctx context.Context, d Decision) error
}

type NotifyServiceInterface interface {
	Notify(ctx context.Context, d Decision) error
}

// NotifyService logs a decision and forwards it to every configured
// publisher. One failing publisher does not stop the others.
type NotifyService struct {
	publishers []DecisionPublisher
	logger     *logrus.Logger
}

func NewNotifyService(logger *logrus.Logger, publishers ...DecisionPublisher) *NotifyService {
	return &NotifyService{publishers: publishers, logger: logger}
}

func (s *NotifyService) Notify(ctx context.Context, d Decision) error {
	s.logger.WithFields(logrus.Fields{
		"candidate": d.Name,
		"status":    d.Status,
		"score":     d.Score,
	}).Infof("Candidate %s has been %s with a score of %d/10", d.Name, strings.ToUpper(d.Status), d.Score)

	var errs []error
	for _, p := range s.publishers {
		if err := p.Publish(ctx, d); err != nil {
			s.logger.WithError(err).WithField("candidate", d.Name).Warn("Decision publish failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// WebhookPublisher posts decisions to an HTTP endpoint.
type WebhookPublisher struct {
	client *resty.Client
	url    string
}

func NewWebhookPublisher(url string) *WebhookPublisher {
	client := resty.New().
		SetTimeout(10*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("Content-Type", "application/json")
	return &WebhookPublisher{client: client, url: url}
}

func (p *WebhookPublisher) Publish(ctx context.Context, d Decision) error {
	resp, err := p.client.R().SetContext(ctx).SetBody(d).Post(p.url)
	if err != nil {
		return fmt.Errorf("decision webhook: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("decision webhook returned %d", resp.StatusCode())
	}
	return nil
}

// NewDecisionPublishers builds the publishers enabled by NotifyConfig. The
// returned closer releases any broker connection.
func NewDecisionPublishers(cfg *config.NotifyConfig, logger *logrus.Logger) ([]DecisionPublisher, func(), error) {
	var publishers []DecisionPublisher
	closer := func() {}

	if cfg.WebhookURL != "" {
		publishers = append(publishers, NewWebhookPublisher(cfg.WebhookURL))
	}
	if cfg.RabbitMQURL != "" {
		mq, err := NewRabbitPublisher(cfg.RabbitMQURL, cfg.DecisionQueue, logger)
		if err != nil {
			return nil, closer, err
		}
		publishers = append(publishers, mq)
		closer = mq.Close
	}
	if len(publishers) == 0 {
		logger.Info("No decision publisher configured, decisions are only logged")
	}
	return publishers, closer, nil
}
