// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package events

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/go-redis/redis/v8"

	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
)

type envelope struct {
	UserIDs []string `json:"userIds"`
	Event   Event    `json:"event"`
}

var _ NotifierInterface = (*RedisBus)(nil)

// RedisBus fans events out to every replica through a pub/sub channel, each replica
// delivers to the streams it holds
type RedisBus struct {
	client  *redis.Client
	channel string
	local   RegistryInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (b *RedisBus) Send(ctx context.Context, userID, name string, payload any) {
	b.SendToUsers(ctx, []string{userID}, name, payload)
}

// SendToUsers publishes the event, on publish failure only local streams get it
func (b *RedisBus) SendToUsers(ctx context.Context, userIDs []string, name string, payload any) {
	ctx, span := b.tracer.Start(ctx, "events.RedisBus.SendToUsers")
	defer span.End()

	if len(userIDs) == 0 {
		return
	}

	e, err := NewEvent(name, payload)
	if err != nil {
		b.logger.Error(err)
		return
	}

	msg, err := json.Marshal(envelope{UserIDs: userIDs, Event: e})
	if err != nil {
		b.logger.Error(err)
		return
	}

	if err := b.client.Publish(ctx, b.channel, msg).Err(); err != nil {
		b.logger.Errorf("failed to publish %s event, delivering locally: %v", name, err)
		b.deliver(userIDs, e)
	}
}

// Listen consumes the channel until ctx is done
func (b *RedisBus) Listen(ctx context.Context) error {
	sub := b.client.Subscribe(ctx, b.channel)
	defer sub.Close()

	// wait for the subscription to be confirmed so no message published afterwards is lost
	if _, err := sub.Receive(ctx); err != nil {
		b.setAvailability(0)
		return err
	}

	b.setAvailability(1)
	ch := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				b.setAvailability(0)
				return errors.New("redis subscription closed")
			}

			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Errorf("discarding malformed event: %v", err)
				continue
			}

			b.deliver(env.UserIDs, env.Event)
		}
	}
}

// Ping checks the broker is reachable
func (b *RedisBus) Ping(ctx context.Context) error {
	if err := b.client.Ping(ctx).Err(); err != nil {
		b.setAvailability(0)
		return err
	}

	b.setAvailability(1)

	return nil
}

func (b *RedisBus) deliver(userIDs []string, e Event) {
	for _, id := range userIDs {
		b.local.Deliver(id, e)
	}
}

func (b *RedisBus) setAvailability(v float64) {
	if err := b.monitor.SetDependencyAvailability(map[string]string{"component": "redis"}, v); err != nil {
		b.logger.Debugf("failed to record redis availability: %v", err)
	}
}

func NewRedisBus(client *redis.Client, channel string, local RegistryInterface, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *RedisBus {
	b := new(RedisBus)

	b.client = client
	b.channel = channel
	b.local = local

	b.tracer = tracer
	b.monitor = monitor
	b.logger = logger

	return b
}
