package bookingsync

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-redisstream/pkg/redisstream"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

const consumerGroup = "booking_sync"

// NewPubSub returns a Redis Streams publisher and subscriber when rdb is
// set, so any instance can process a sync requested by another.  Without
// Redis both sides share one in-process channel.
func NewPubSub(rdb *redis.Client, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error) {
	if rdb == nil {
		ch := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, logger)
		return ch, ch, nil
	}

	pub, err := redisstream.NewPublisher(redisstream.PublisherConfig{Client: rdb}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating redis stream publisher: %w", err)
	}
	sub, err := redisstream.NewSubscriber(redisstream.SubscriberConfig{
		Client:        rdb,
		ConsumerGroup: consumerGroup,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating redis stream subscriber: %w", err)
	}
	return pub, sub, nil
}
