package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvBidTopic             = "BID_TOPIC"
	EnvBidDLQTopic          = "BID_DLQ_TOPIC"
	EnvConsumerGroupID      = "CONSUMER_GROUP_ID"
	EnvConsumerPollInterval = "CONSUMER_POLL_INTERVAL"

	EnvDefaultFinePercent = "DEFAULT_FINE_PERCENT"
	EnvRejectedBidPolicy  = "REJECTED_BID_POLICY"

	EnvNotifyURL     = "NOTIFY_URL"
	EnvNotifyTimeout = "NOTIFY_TIMEOUT"
)
