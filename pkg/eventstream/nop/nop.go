// Package nop provides a Publisher that discards every event, for
// deployments without an event broker.
package nop

import (
	"context"

	"github.com/talentwire/interviewd/pkg/eventstream"
)

type Publisher struct{}

func NewPublisher() *Publisher {
	return &Publisher{}
}

func (*Publisher) PublishTurnCompleted(context.Context, eventstream.TurnCompletedEvent) error {
	return nil
}

func (*Publisher) Close() error {
	return nil
}

var _ eventstream.Publisher = (*Publisher)(nil)
