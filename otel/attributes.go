package otel

import (
	"go.opentelemetry.io/otel/attribute"
)

const (
	AttrSystem       = attribute.Key("messaging.system")
	AttrTopic        = attribute.Key("messaging.destination.name")
	AttrPartition    = attribute.Key("messaging.destination.partition.id")
	AttrOffset       = attribute.Key("messaging.kafka.offset")
	AttrBatchSize    = attribute.Key("enricher.batch.size")
	AttrBatchStatus  = attribute.Key("enricher.batch.status")
	AttrDecodeStatus = attribute.Key("enricher.decode.status")
	AttrDLQStatus    = attribute.Key("enricher.dlq.status")
	AttrErrorAction  = attribute.Key("enricher.error.action")
	AttrErrorPhase   = attribute.Key("enricher.error.phase")
)

const SystemKafka = "kafka"

// Status values
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusError   = "error"
)
