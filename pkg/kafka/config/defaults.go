package kafka_config

import "time"

const (
	DefaultKafkaBrokers = "localhost:9092"

	DefaultProducerMaxAttempts  = 3
	DefaultProducerBatchTimeout = 10 * time.Millisecond
	DefaultProducerRequireAcks  = -1 // all
	DefaultProducerCompression  = "snappy"
	DefaultProducerAsync        = false

	DefaultTopicWaitlist    = "tixgate.waitlist.promoted"
	DefaultTopicWaitlistDLQ = "tixgate.waitlist.promoted.dlq"
)
