package config

import (
	"log/slog"

	"github.com/temic137/forms-sub004/internal/events"
)

// EventConfig holds configuration for event publishing
type EventConfig struct {
	Enabled         bool   `env:"EVENTS_ENABLED" envDefault:"true"`
	Publisher       string `env:"EVENTS_PUBLISHER" envDefault:"kafka"` // kafka or mock
	KafkaBrokers    string `env:"KAFKA_BROKERS" envDefault:"localhost:9092"`
	SubmissionTopic string `env:"SUBMISSION_TOPIC" envDefault:"form-submissions"`
}

func LoadEventConfig() EventConfig {
	return EventConfig{
		Enabled:         getBool("EVENTS_ENABLED", true),
		Publisher:       getEnv("EVENTS_PUBLISHER", "kafka"),
		KafkaBrokers:    getEnv("KAFKA_BROKERS", "localhost:9092"),
		SubmissionTopic: getEnv("SUBMISSION_TOPIC", "form-submissions"),
	}
}

// GetKafkaBrokers returns Kafka brokers as a slice
func (c *EventConfig) GetKafkaBrokers() []string {
	return splitList(c.KafkaBrokers)
}

// CreateEventPublisher creates an event publisher based on configuration
func (c *EventConfig) CreateEventPublisher(logger *slog.Logger) (events.EventPublisher, error) {
	if !c.Enabled {
		logger.Info("Event publishing disabled, using mock publisher")
		return events.NewMockEventPublisher(logger), nil
	}

	switch c.Publisher {
	case "kafka":
		logger.Info("Creating Kafka event publisher",
			"brokers", c.KafkaBrokers,
			"topic", c.SubmissionTopic)

		return events.NewKafkaEventPublisher(events.PublisherConfig{
			KafkaBrokers: c.GetKafkaBrokers(),
			TopicName:    c.SubmissionTopic,
			Logger:       logger,
		})
	case "mock":
		logger.Info("Using mock event publisher")
		return events.NewMockEventPublisher(logger), nil
	default:
		logger.Warn("Unknown event publisher type, falling back to mock", "publisher", c.Publisher)
		return events.NewMockEventPublisher(logger), nil
	}
}
