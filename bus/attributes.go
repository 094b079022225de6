package bus

import "go.opentelemetry.io/otel/attribute"

const messagingSystem = "nats"

// Attribute keys from the OTel messaging semantic conventions.
const (
	attrMessagingSystem          = "messaging.system"
	attrMessagingOperationName   = "messaging.operation.name"
	attrMessagingOperationType   = "messaging.operation.type"
	attrMessagingDestinationName = "messaging.destination.name"
	attrMessagingConsumerGroup   = "messaging.consumer.group.name"
	attrMessagingMessageID       = "messaging.message.id"
	attrMessagingMessageBodySize = "messaging.message.body.size"
	attrNATSStream               = "nats.stream"
)

const (
	opPublish = "publish"
	opSend    = "send"
	opProcess = "process"
)

func publishAttributes(subject, eventID string, bodySize int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(attrMessagingSystem, messagingSystem),
		attribute.String(attrMessagingOperationName, opPublish),
		attribute.String(attrMessagingOperationType, opSend),
		attribute.String(attrMessagingDestinationName, subject),
	}
	if eventID != "" {
		attrs = append(attrs, attribute.String(attrMessagingMessageID, eventID))
	}
	if bodySize > 0 {
		attrs = append(attrs, attribute.Int(attrMessagingMessageBodySize, bodySize))
	}

	return attrs
}

func processAttributes(stream, consumer, subject string, bodySize int) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String(attrMessagingSystem, messagingSystem),
		attribute.String(attrMessagingOperationName, opProcess),
		attribute.String(attrMessagingOperationType, opProcess),
		attribute.String(attrNATSStream, stream),
		attribute.String(attrMessagingDestinationName, subject),
	}
	if consumer != "" {
		attrs = append(attrs, attribute.String(attrMessagingConsumerGroup, consumer))
	}
	if bodySize > 0 {
		attrs = append(attrs, attribute.Int(attrMessagingMessageBodySize, bodySize))
	}

	return attrs
}
