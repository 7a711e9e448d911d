package producer

import (
	"fmt"

	"github.com/IBM/sarama"
)

// NewSyncProducer returns a producer that waits for the leader to acknowledge
// every message, so a returned nil error means the report really left.
func NewSyncProducer(brokerList []string) (sarama.SyncProducer, error) {
	const op = "kafka.producer.NewSyncProducer"

	producerConfig := sarama.NewConfig()
	producerConfig.Producer.RequiredAcks = sarama.WaitForLocal
	producerConfig.Producer.Compression = sarama.CompressionNone
	producerConfig.Producer.Return.Successes = true
	producerConfig.Producer.Return.Errors = true
	producerConfig.Producer.Retry.Max = 3

	producer, err := sarama.NewSyncProducer(brokerList, producerConfig)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return producer, nil
}
