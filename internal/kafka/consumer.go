package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/IBM/sarama"

	"github.com/gamestracker/internal/config"
	"github.com/gamestracker/internal/domain"
)

// NoteHandler stores note submissions
type NoteHandler interface {
	SubmitNoteBatch(ctx context.Context, batch domain.BatchNoteSubmission) (int, error)
}

// Consumer consumes note submissions from Kafka
type Consumer struct {
	config        *config.KafkaConfig
	handler       NoteHandler
	logger        *slog.Logger
	consumerGroup sarama.ConsumerGroup
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
	ready         chan bool
}

// NewConsumer creates a new Kafka consumer
func NewConsumer(cfg *config.KafkaConfig, handler NoteHandler, logger *slog.Logger) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_0_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	saramaConfig.Consumer.Return.Errors = true

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create consumer group: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Consumer{
		config:        cfg,
		handler:       handler,
		logger:        logger.With("component", "kafka_consumer"),
		consumerGroup: consumerGroup,
		ctx:           ctx,
		cancel:        cancel,
		ready:         make(chan bool),
	}, nil
}

// Start begins consuming messages from Kafka
func (c *Consumer) Start() error {
	c.logger.Info("starting Kafka consumer",
		"brokers", c.config.Brokers,
		"topic", c.config.Topic,
		"group_id", c.config.GroupID,
	)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			handler := &consumerGroupHandler{
				config:  c.config,
				handler: c.handler,
				logger:  c.logger,
				ready:   c.ready,
			}

			if err := c.consumerGroup.Consume(c.ctx, []string{c.config.Topic}, handler); err != nil {
				if errors.Is(err, sarama.ErrClosedConsumerGroup) {
					return
				}
				c.logger.Error("error from consumer", "error", err)
			}

			if c.ctx.Err() != nil {
				return
			}

			c.ready = make(chan bool)
		}
	}()

	select {
	case <-c.ready:
		c.logger.Info("Kafka consumer ready")
	case <-c.ctx.Done():
		return c.ctx.Err()
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for {
			select {
			case <-c.ctx.Done():
				return
			case err, ok := <-c.consumerGroup.Errors():
				if !ok {
					return
				}
				c.logger.Error("consumer group error", "error", err)
			}
		}
	}()

	return nil
}

// Stop gracefully stops the consumer
func (c *Consumer) Stop() error {
	c.logger.Info("stopping Kafka consumer")
	c.cancel()
	c.wg.Wait()
	return c.consumerGroup.Close()
}

// consumerGroupHandler implements sarama.ConsumerGroupHandler
type consumerGroupHandler struct {
	config  *config.KafkaConfig
	handler NoteHandler
	logger  *slog.Logger
	ready   chan bool
}

// Setup is called at the beginning of a new session
func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	if h.ready != nil {
		close(h.ready)
	}
	return nil
}

// Cleanup is called at the end of a session
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

// ConsumeClaim batches notes from a topic partition. A batch is flushed when
// it is full, when the batch timer fires, and when the claim ends.
func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	batchSize := max(h.config.BatchSize, 1)
	batch := make([]domain.NoteSubmission, 0, batchSize)
	batchTimer := time.NewTimer(h.config.BatchTimeout)
	defer batchTimer.Stop()

	processBatch := func() {
		if len(batch) == 0 {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		stored, err := h.handler.SubmitNoteBatch(ctx, domain.BatchNoteSubmission{Notes: batch})
		if err != nil {
			h.logger.Error("failed to process batch", "error", err, "batch_size", len(batch))
		} else {
			h.logger.Debug("processed batch", "batch_size", len(batch), "stored", stored)
		}

		batch = batch[:0]
	}

	for {
		select {
		case <-session.Context().Done():
			processBatch()
			return nil

		case <-batchTimer.C:
			processBatch()
			batchTimer.Reset(h.config.BatchTimeout)

		case message, ok := <-claim.Messages():
			if !ok {
				processBatch()
				return nil
			}

			submission, err := DecodeNote(message.Value)
			if err != nil {
				h.logger.Warn("dropping note message",
					"error", err,
					"offset", message.Offset,
					"partition", message.Partition,
				)
				session.MarkMessage(message, "")
				continue
			}

			batch = append(batch, submission)
			session.MarkMessage(message, "")

			if len(batch) >= batchSize {
				processBatch()
				batchTimer.Reset(h.config.BatchTimeout)
			}
		}
	}
}

// NoteMessage is the wire format of a note on the topic
type NoteMessage struct {
	GameID    int64    `json:"game_id"`
	HypeLevel string   `json:"hype_level,omitempty"`
	Content   string   `json:"content"`
	Tags      []string `json:"tags,omitempty"`
}

// Encode renders the message for publishing
func (m NoteMessage) Encode() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeNote parses and validates a note message
func DecodeNote(value []byte) (domain.NoteSubmission, error) {
	var msg NoteMessage
	if err := json.Unmarshal(value, &msg); err != nil {
		return domain.NoteSubmission{}, fmt.Errorf("unmarshal note: %w", err)
	}

	sub := domain.NoteSubmission{
		GameID:    msg.GameID,
		HypeLevel: msg.HypeLevel,
		Content:   msg.Content,
		Tags:      msg.Tags,
	}
	if !sub.Valid() {
		return domain.NoteSubmission{}, fmt.Errorf("%w: game_id %d", domain.ErrInvalidRequest, msg.GameID)
	}
	return sub, nil
}
