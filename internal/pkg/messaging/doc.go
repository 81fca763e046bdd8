// Package messaging publishes and consumes events over Kafka, NATS, NSQ or
// Google Pub/Sub behind one small interface.
//
// Consumers never ack by hand. A handler returning nil acks the message, a
// handler returning an error asks the broker to redeliver, and an error
// wrapped with Permanent acks it so a poison message is not retried forever.
package messaging
