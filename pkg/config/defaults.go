package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "drivebid"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRateLimitRequests = 30
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultBidTopic             = "bids.submitted"
	DefaultBidDLQTopic          = "bids.submitted.dlq"
	DefaultConsumerGroupID      = "drivebid-bid-consumer"
	DefaultConsumerPollInterval = 3 * time.Second

	// Fine multiplier applied when the vehicle snapshot carries no
	// fine_percentage of its own: one extra half day-rate per late day.
	DefaultDefaultFinePercent = 50.0

	// RejectedPolicyPreserve keeps rejected bids for audit; RejectedPolicyDelete
	// removes them outright during the acceptance cascade.
	RejectedPolicyPreserve = "reject"
	RejectedPolicyDelete   = "delete"

	DefaultNotifyTimeout = 5 * time.Second

	DefaultPaginationLimit = 50
)
