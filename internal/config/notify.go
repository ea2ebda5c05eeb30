package config

import (
	"sync"
)

// NotifyConfig selects where selection decisions are published. Both
// targets are optional.
type NotifyConfig struct {
	WebhookURL    string
	RabbitMQURL   string
	DecisionQueue string
}

var (
	notifyConfig *NotifyConfig
	notifyOnce   sync.Once
)

func LoadNotifyConfig() *NotifyConfig {
	notifyOnce.Do(func() {
		notifyConfig = &NotifyConfig{
			WebhookURL:    getEnv("NOTIFY_WEBHOOK_URL", ""),
			RabbitMQURL:   getEnv("RABBITMQ_URL", ""),
			DecisionQueue: getEnv("RABBITMQ_DECISION_QUEUE", "candidate.decisions"),
		}
	})
	return notifyConfig
}
