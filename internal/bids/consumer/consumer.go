package consumer

import (
	"context"
	"errors"
	"time"

	"drivebid/internal/bids/repository"
	"drivebid/internal/bids/validator"
	"drivebid/pkg/config"
	"drivebid/pkg/kafka"
	"drivebid/pkg/model"
)

const fetchMaxWait = 1 * time.Second

// MessageSource is the slice of the Kafka consumer the worker drives.
type MessageSource interface {
	FetchOne(ctx context.Context, maxWait time.Duration) (*kafka.Message, error)
	Commit(ctx context.Context, msg *kafka.Message) error
	SendToDLQ(ctx context.Context, msg *kafka.Message, cause error) error
}

// BidConsumer drains the submission topic one message per poll tick and turns
// each message into a pending bid. The offset is committed only after the bid
// is persisted; a crash in between redelivers the message, so a submission may
// yield duplicate pending bids but never zero.
type BidConsumer struct {
	source    MessageSource
	repo      repository.BidRepository
	validator *validator.BidValidator
	cfg       *config.Config
}

func NewBidConsumer(
	source MessageSource,
	repo repository.BidRepository,
	validator *validator.BidValidator,
	cfg *config.Config,
) *BidConsumer {
	return &BidConsumer{
		source:    source,
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (c *BidConsumer) Name() string {
	return "bid-consumer"
}

func (c *BidConsumer) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.ConsumerPollInterval)
	defer ticker.Stop()

	c.cfg.Log.Info("Bid consumer started",
		"topic", c.cfg.BidTopic,
		"group_id", c.cfg.ConsumerGroupID,
		"poll_interval", c.cfg.ConsumerPollInterval,
	)

	for {
		select {
		case <-ctx.Done():
			c.cfg.Log.Info("Bid consumer stopping")
			return ctx.Err()
		case <-ticker.C:
			if err := c.drainOnce(ctx); err != nil {
				c.cfg.Log.Error("Bid consumer poll failed", "error", err)
			}
		}
	}
}

// drainOnce processes at most one message. Persistence errors leave the offset
// uncommitted so the broker redelivers; malformed messages go to the DLQ and
// are committed so they cannot wedge the partition.
func (c *BidConsumer) drainOnce(ctx context.Context) error {
	msg, err := c.source.FetchOne(ctx, fetchMaxWait)
	if err != nil {
		if errors.Is(err, kafka.ErrNoMessage) || errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	}

	var submission model.BidSubmission
	if err := msg.DecodeValue(&submission); err != nil {
		return c.quarantine(ctx, msg, err)
	}
	if err := c.validator.ValidateSubmission(&submission); err != nil {
		return c.quarantine(ctx, msg, err)
	}

	bid := &model.Bid{
		VehicleID:     submission.VehicleID,
		OwnerID:       submission.OwnerID,
		Vehicle:       submission.Vehicle,
		Renter:        submission.Renter,
		Owner:         submission.Owner,
		Amount:        submission.Amount,
		StartDate:     submission.StartDate,
		EndDate:       submission.EndDate,
		Status:        model.BidPending,
		SourceEventID: msg.GetEventID(),
	}

	if err := c.repo.Create(ctx, bid); err != nil {
		c.cfg.Log.Error("Failed to persist bid, leaving message for redelivery",
			"event_id", msg.GetEventID(), "error", err)
		return err
	}

	if err := c.source.Commit(ctx, msg); err != nil {
		// The bid exists but the offset does not know it. Redelivery will
		// create a duplicate pending bid, which arbitration tolerates.
		c.cfg.Log.Warn("Failed to commit offset after persisting bid",
			"bid_id", bid.ID, "event_id", msg.GetEventID(), "error", err)
		return err
	}

	c.cfg.Log.Info("Bid created from submission",
		"bid_id", bid.ID,
		"event_id", msg.GetEventID(),
		"vehicle_id", bid.VehicleID,
	)
	return nil
}

func (c *BidConsumer) quarantine(ctx context.Context, msg *kafka.Message, cause error) error {
	c.cfg.Log.Warn("Quarantining malformed bid submission",
		"event_id", msg.GetEventID(), "error", cause)

	if err := c.source.SendToDLQ(ctx, msg, cause); err != nil {
		// Keep the offset uncommitted so the message is retried rather than
		// silently dropped.
		return err
	}
	return c.source.Commit(ctx, msg)
}
