// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/canonical/workspace-service/internal/entities"
	httptypes "github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/authentication"
	"github.com/canonical/workspace-service/pkg/entity"
)

type Service struct {
	storage  StorageInterface
	entities EntityCreatorInterface
	tx       TxInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

var _ ServiceInterface = (*Service)(nil)

func NewService(
	storage StorageInterface,
	entities EntityCreatorInterface,
	tx TxInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	s := new(Service)

	s.storage = storage
	s.entities = entities
	s.tx = tx

	s.tracer = tracer
	s.monitor = monitor
	s.logger = logger

	return s
}

// HandleRegistration creates the local account of an identity registered with the identity
// provider, together with a personal organization administered by it.
// Known emails are only marked verified, the hook may be delivered more than once.
func (s *Service) HandleRegistration(ctx context.Context, identity Identity) (*Registration, error) {
	ctx, span := s.tracer.Start(ctx, "webhooks.Service.HandleRegistration")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(identity.Traits.Email))
	if email == "" {
		return nil, httptypes.InvalidRequest("identity has no email")
	}

	s.logger.Debugf("Handling registration for identity %s with email %s", identity.ID, email)

	result := new(Registration)

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		user, err := s.storage.GetUserByEmail(ctx, email)

		switch {
		case err == nil:
			if !user.EmailVerified {
				if err := s.storage.MarkEmailVerified(ctx, user.ID); err != nil {
					return err
				}
				user.EmailVerified = true
			}

			result.User = user
			return nil
		case !errors.Is(err, storage.ErrNotFound):
			return err
		}

		name := identity.Traits.Name
		if name == "" {
			name = strings.SplitN(email, "@", 2)[0]
		}

		user, err = s.storage.CreateUser(ctx, &types.User{
			Slug:          authentication.UserSlug(email),
			Email:         email,
			Name:          name,
			Role:          types.SystemRoleUser,
			EmailVerified: true,
		})

		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}

		org, err := s.entities.Create(ctx, user, entities.Organization, nil, entity.CreateInput{
			Name: fmt.Sprintf("%s's Org", name),
			Slug: authentication.UserSlug(email),
		})

		if err != nil {
			return fmt.Errorf("failed to create organization: %w", err)
		}

		result.User = user
		result.Organization = org
		result.Created = true

		return nil
	})

	if err != nil {
		return nil, err
	}

	if result.Created {
		s.logger.Infof("Successfully provisioned organization %s for user %s", result.Organization.ID, result.User.ID)
	}

	return result, nil
}
