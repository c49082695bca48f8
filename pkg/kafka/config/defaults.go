package kafka_config

import "time"

const (
	DefaultKafkaBrokers = "localhost:9092"

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1 // require all replicas
	DefaultProducerCompression  = "snappy"

	DefaultConsumerStartOffset = -2 // oldest: submissions must survive consumer restarts
	DefaultConsumerMinBytes    = 1
	DefaultConsumerMaxBytes    = 10 * 1024 * 1024 // 10MB
	DefaultConsumerMaxWait     = 500 * time.Millisecond
)
