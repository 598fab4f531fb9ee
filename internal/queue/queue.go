// Package queue defines the message-broker abstraction used by the
// enrichment pipeline: durable named channels with at-least-once delivery,
// explicit acknowledgement, and at most one message in flight per consumer
// instance. The JetStream implementation backs production; an in-memory
// implementation backs tests.
//
// Delivery semantics: a message may arrive more than once and in any order.
// Handlers return a Decision instead of an error so the transport can map
// the outcome onto the broker's ack protocol:
//
//   - Ack:   processed (or intentionally skipped); never redeliver.
//   - Drop:  permanent failure (bad shape, missing referent); never redeliver.
//   - Retry: transient failure; redeliver later. Used sparingly, since the
//     pipeline prefers acknowledging over poison-message loops.
package queue

import (
	"context"
	"strings"
)

// Kind identifies one enrichment job channel.
type Kind string

// Enrichment job kinds. Thumbnail and sentiment write their results to
// storage; translate and generate are request/response jobs that publish a
// reply onto the kind's response subject instead.
const (
	KindThumbnail Kind = "thumbnail"
	KindSentiment Kind = "sentiment"
	KindTranslate Kind = "translate"
	KindGenerate  Kind = "generate"
)

// Kinds lists all job kinds in a stable order.
func Kinds() []Kind {
	return []Kind{KindThumbnail, KindSentiment, KindTranslate, KindGenerate}
}

// Subject returns the broker subject for the kind's request channel.
func (k Kind) Subject() string { return "enrich." + string(k) }

// ResponseSubject returns the broker subject onto which request/response
// workers publish their replies. Only meaningful for KindTranslate and
// KindGenerate.
func (k Kind) ResponseSubject() string { return "enrich." + string(k) + ".response" }

// Stream returns the durable stream name holding the kind's subjects.
func (k Kind) Stream() string { return "ENRICH_" + strings.ToUpper(string(k)) }

// HasResponse reports whether the kind follows the request/response pattern.
func (k Kind) HasResponse() bool { return k == KindTranslate || k == KindGenerate }

// Decision is a handler's verdict on a delivered message.
type Decision int

// Handler outcomes; see the package comment for redelivery semantics.
const (
	Ack Decision = iota
	Drop
	Retry
)

// String returns the lowercase name of the decision (metrics label).
func (d Decision) String() string {
	switch d {
	case Ack:
		return "ack"
	case Drop:
		return "drop"
	case Retry:
		return "retry"
	default:
		return "unknown"
	}
}

// Handler processes one delivered message body and decides its fate.
type Handler func(ctx context.Context, body []byte) Decision

// Publisher enqueues messages onto a named durable subject.
// Publish returns once the broker has accepted the message.
type Publisher interface {
	Publish(ctx context.Context, subject string, body []byte) error
}

// Consumer runs a consumption loop on a subject: one message at a time per
// instance, handler invoked synchronously, outcome acknowledged per the
// returned Decision. Consume blocks until ctx is canceled.
type Consumer interface {
	Consume(ctx context.Context, subject, durable string, h Handler) error
}
