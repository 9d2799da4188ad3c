package kafka

import (
	"fmt"

	"github.com/IBM/sarama"
	"github.com/ThreeDotsLabs/watermill"
	wmkafka "github.com/ThreeDotsLabs/watermill-kafka/v3/pkg/kafka"
	"github.com/ThreeDotsLabs/watermill/message"
)

// PartitionKeyMetadata is the message metadata entry used as the Kafka key,
// so events for one order land on one partition.
const PartitionKeyMetadata = "partition_key"

const clientID = "tica-shop"

func marshaler() wmkafka.MarshalerUnmarshaler {
	return wmkafka.NewWithPartitioningMarshaler(func(topic string, msg *message.Message) (string, error) {
		return msg.Metadata.Get(PartitionKeyMetadata), nil
	})
}

// NewPublisher creates a synchronous Kafka publisher that waits for all
// in-sync replicas to acknowledge each message.
func NewPublisher(brokers []string, logger watermill.LoggerAdapter) (message.Publisher, error) {
	saramaCfg := wmkafka.DefaultSaramaSyncPublisherConfig()
	saramaCfg.ClientID = clientID
	saramaCfg.Producer.RequiredAcks = sarama.WaitForAll
	saramaCfg.Producer.Retry.Max = 5

	pub, err := wmkafka.NewPublisher(wmkafka.PublisherConfig{
		Brokers:               brokers,
		Marshaler:             marshaler(),
		OverwriteSaramaConfig: saramaCfg,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka publisher: %w", err)
	}
	return pub, nil
}

// NewSubscriber creates a consumer-group subscriber starting from the oldest
// retained offset for new groups.
func NewSubscriber(brokers []string, group string, logger watermill.LoggerAdapter) (message.Subscriber, error) {
	saramaCfg := wmkafka.DefaultSaramaSubscriberConfig()
	saramaCfg.ClientID = clientID
	saramaCfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	sub, err := wmkafka.NewSubscriber(wmkafka.SubscriberConfig{
		Brokers:               brokers,
		Unmarshaler:           marshaler(),
		OverwriteSaramaConfig: saramaCfg,
		ConsumerGroup:         group,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka subscriber: %w", err)
	}
	return sub, nil
}
