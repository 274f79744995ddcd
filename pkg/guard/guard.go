// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package guard

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/pkg/authentication"
	"github.com/canonical/workspace-service/pkg/permissions"
	"github.com/canonical/workspace-service/pkg/resolver"
)

// Guard authorizes requests against a resource. It must run after authentication.
type Guard struct {
	resolver ResolverInterface
	builder  ContextBuilderInterface
	storage  StorageInterface
	engine   permissions.EngineInterface
	registry *entities.Registry

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// RequireAccess resolves the entity named by the idParam route param, or the ancestors of
// the entity to create when the param is absent, and checks action on it. Unresolvable
// targets are 404, denials 403.
func (g *Guard) RequireAccess(entityType entities.Type, action permissions.Action, idParam string) func(http.Handler) http.Handler {
	if _, err := g.registry.Get(entityType); err != nil {
		panic(err)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := g.tracer.Start(r.Context(), "guard.Guard.RequireAccess")
			defer span.End()

			user, ok := authentication.GetUser(ctx)
			if !ok {
				types.WriteError(w, r, types.Unauthorized(), g.logger)
				return
			}

			scope := &Scope{User: user}

			if idOrSlug := chi.URLParam(r, idParam); idParam != "" && idOrSlug != "" {
				e, err := g.resolver.Resolve(ctx, entityType, idOrSlug)

				switch {
				case errors.Is(err, resolver.ErrNotFound):
					types.WriteError(w, r, types.NotFound(string(entityType)), g.logger)
					return
				case err != nil:
					types.WriteError(w, r, err, g.logger)
					return
				}

				subject, err := permissions.SubjectOf(g.registry, e)
				if err != nil {
					types.WriteError(w, r, err, g.logger)
					return
				}

				scope.Entity = e
				scope.Subject = subject
			} else {
				ac, err := g.builder.BuildContext(ctx, entityType, r)

				var notFound *AncestorNotFoundError

				switch {
				case errors.As(err, &notFound):
					types.WriteError(w, r, types.NotFound(string(notFound.Type)).Wrap(err), g.logger)
					return
				case err != nil:
					types.WriteError(w, r, err, g.logger)
					return
				}

				scope.Subject = permissions.Subject{Type: entityType, Ancestors: ac.Ancestors}
			}

			memberships, err := g.storage.ListMembershipsByUserID(ctx, user.ID)
			if err != nil {
				types.WriteError(w, r, err, g.logger)
				return
			}

			scope.Memberships = memberships

			if !g.engine.IsAllowed(ctx, user, memberships, action, scope.Subject) {
				g.deny(user.ID, scope.Subject, action)
				types.WriteError(w, r, types.Forbidden(string(entityType)), g.logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithScope(ctx, scope)))
		})
	}
}

// LoadMemberships attaches the caller and memberships without a permission check, for
// handlers deciding per item
func (g *Guard) LoadMemberships() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := g.tracer.Start(r.Context(), "guard.Guard.LoadMemberships")
			defer span.End()

			user, ok := authentication.GetUser(ctx)
			if !ok {
				types.WriteError(w, r, types.Unauthorized(), g.logger)
				return
			}

			memberships, err := g.storage.ListMembershipsByUserID(ctx, user.ID)
			if err != nil {
				types.WriteError(w, r, err, g.logger)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithScope(ctx, &Scope{User: user, Memberships: memberships})))
		})
	}
}

func (g *Guard) deny(userID string, subject permissions.Subject, action permissions.Action) {
	resource := string(subject.Type)
	if subject.ID != "" {
		resource = fmt.Sprintf("%s:%s", subject.Type, subject.ID)
	}

	g.logger.Security().AuthzFailure(userID, resource, action.String())

	err := g.monitor.IncDeniedRequests(map[string]string{"entity": string(subject.Type), "action": action.String()})
	if err != nil {
		g.logger.Debugf("failed to record denied request: %v", err)
	}
}

func NewGuard(
	r ResolverInterface,
	builder ContextBuilderInterface,
	s StorageInterface,
	engine permissions.EngineInterface,
	registry *entities.Registry,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Guard {
	g := new(Guard)

	g.resolver = r
	g.builder = builder
	g.storage = s
	g.engine = engine
	g.registry = registry

	g.tracer = tracer
	g.monitor = monitor
	g.logger = logger

	return g
}
