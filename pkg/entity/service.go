// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package entity

import (
	"context"
	"errors"
	"fmt"

	"github.com/canonical/workspace-service/internal/db"
	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	domain "github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/events"
	"github.com/canonical/workspace-service/pkg/permissions"
	"github.com/canonical/workspace-service/pkg/resolver"
)

type CreateInput struct {
	Name string
	Slug string

	// ParentID nests the new entity under another one of the same type
	ParentID *string
}

// Caller is the authenticated user with the memberships loaded by the guard
type Caller struct {
	User        *domain.User
	Memberships []*domain.Membership
}

type DeleteResult struct {
	Deleted []string           `json:"deleted"`
	Errors  []types.BatchError `json:"errors"`
}

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage  StorageInterface
	tx       TxInterface
	resolver ResolverInterface
	engine   permissions.EngineInterface
	registry *entities.Registry
	notifier events.NotifierInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// Create inserts the entity under the given ancestors. The creator of a context entity
// becomes its admin in the same transaction.
func (s *Service) Create(ctx context.Context, caller *domain.User, entityType entities.Type, ancestors []entities.ContextRef, in CreateInput) (*domain.Entity, error) {
	ctx, span := s.tracer.Start(ctx, "entity.Service.Create")
	defer span.End()

	def, err := s.registry.Get(entityType)
	if err != nil {
		return nil, types.NotFound(string(entityType)).Wrap(err)
	}

	e := &domain.Entity{Type: string(def.Type), Name: in.Name, CreatedBy: &caller.ID}

	for _, ref := range ancestors {
		if err := setParent(e, ref); err != nil {
			return nil, types.InvalidRequest(err.Error())
		}
	}

	for _, a := range def.Ancestors {
		if _, ok := s.registry.ParentID(e, a); !ok {
			return nil, types.InvalidRequest(fmt.Sprintf("%s is required", a))
		}
	}

	if def.HasSlug {
		if e.Slug = in.Slug; e.Slug == "" {
			e.Slug = Slugify(in.Name)
		}

		if e.Slug == "" {
			return nil, types.InvalidRequest("a slug is required")
		}
	}

	var created *domain.Entity

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if def.HasParentID && in.ParentID != nil {
			if err := s.checkParent(ctx, def.Type, e, *in.ParentID); err != nil {
				return err
			}
			e.ParentID = in.ParentID
		}

		if def.HasSlug {
			if err := s.ensureSlugFree(ctx, def.Type, e.Slug); err != nil {
				return err
			}
		}

		created, err = s.storage.CreateEntity(ctx, e)

		switch {
		case errors.Is(err, storage.ErrDuplicateKey):
			return types.NewError(types.ErrorSlugExists, "").WithEntity(string(def.Type))
		case err != nil:
			return err
		}

		if !def.IsContext {
			return nil
		}

		m, err := s.adminMembership(ctx, caller, created)
		if err != nil {
			return err
		}

		db.AfterCommit(ctx, func() {
			s.notifier.Send(ctx, caller.ID, events.NewMembership(def.Type), m)
		})

		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Infow("entity created", "type", def.Type, "id", created.ID, "user", caller.ID)

	return created, nil
}

func (s *Service) adminMembership(ctx context.Context, caller *domain.User, e *domain.Entity) (*domain.Membership, error) {
	m := &domain.Membership{
		UserID:    caller.ID,
		Type:      e.Type,
		Role:      domain.RoleAdmin,
		CreatedBy: &caller.ID,
	}

	id := e.ID

	switch entities.Type(e.Type) {
	case entities.Organization:
		m.OrganizationID = id
	case entities.Workspace:
		m.OrganizationID = *e.OrganizationID
		m.WorkspaceID = &id
	case entities.Project:
		m.OrganizationID = *e.OrganizationID
		m.ProjectID = &id
	case entities.Task, entities.Label, entities.User:
		return nil, fmt.Errorf("%s is not a context type", e.Type)
	default:
		return nil, fmt.Errorf("%w: %q", entities.ErrUnknownType, e.Type)
	}

	m, _, err := s.storage.CreateMembership(ctx, m)

	return m, err
}

// checkParent accepts a parent of the same type living in the same project
func (s *Service) checkParent(ctx context.Context, t entities.Type, e *domain.Entity, parentID string) error {
	parent, err := s.resolver.Resolve(ctx, t, parentID)

	switch {
	case errors.Is(err, resolver.ErrNotFound):
		return types.NotFound(string(t))
	case err != nil:
		return err
	}

	if parent.ProjectID == nil || e.ProjectID == nil || *parent.ProjectID != *e.ProjectID {
		return types.InvalidRequest(fmt.Sprintf("parent %s belongs to another project", t))
	}

	return nil
}

func (s *Service) ensureSlugFree(ctx context.Context, t entities.Type, slug string) error {
	taken, err := s.storage.SlugExists(ctx, t, slug)
	if err != nil {
		return err
	}

	if taken {
		return types.NewError(types.ErrorSlugExists, "").WithEntity(string(t))
	}

	return nil
}

// Update renames an entity and notifies the members of its context
func (s *Service) Update(ctx context.Context, caller *domain.User, subject permissions.Subject, e *domain.Entity, patch storage.EntityPatch) (*domain.Entity, error) {
	ctx, span := s.tracer.Start(ctx, "entity.Service.Update")
	defer span.End()

	if patch.Name == nil && patch.Slug == nil {
		return nil, types.InvalidRequest("nothing to update")
	}

	t := entities.Type(e.Type)

	def, err := s.registry.Get(t)
	if err != nil {
		return nil, err
	}

	if patch.Slug != nil && !def.HasSlug {
		return nil, types.InvalidRequest(fmt.Sprintf("%s has no slug", t))
	}

	var updated *domain.Entity

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		if patch.Slug != nil && *patch.Slug != e.Slug {
			if err := s.ensureSlugFree(ctx, t, *patch.Slug); err != nil {
				return err
			}
		}

		updated, err = s.storage.UpdateEntity(ctx, t, e.ID, patch, caller.ID)

		switch {
		case errors.Is(err, storage.ErrNotFound):
			return types.NotFound(string(t))
		case errors.Is(err, storage.ErrDuplicateKey):
			return types.NewError(types.ErrorSlugExists, "").WithEntity(string(t))
		case err != nil:
			return err
		}

		lineage := subject.Lineage(s.registry)
		if len(lineage) == 0 {
			return nil
		}

		members, err := s.storage.ListMemberUserIDs(ctx, lineage[0])
		if err != nil {
			return err
		}

		db.AfterCommit(ctx, func() {
			s.notifier.SendToUsers(ctx, members, events.Update(t), updated)
		})

		return nil
	})

	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes the entities the caller may delete and reports the others per id.
// Members of a removed context entity lose their membership and are notified.
func (s *Service) Delete(ctx context.Context, caller Caller, entityType entities.Type, ids []string) (*DeleteResult, error) {
	ctx, span := s.tracer.Start(ctx, "entity.Service.Delete")
	defer span.End()

	def, err := s.registry.Get(entityType)
	if err != nil {
		return nil, types.NotFound(string(entityType)).Wrap(err)
	}

	result := &DeleteResult{Deleted: []string{}, Errors: []types.BatchError{}}

	found, err := s.resolver.ResolveMany(ctx, entityType, ids)
	if err != nil {
		return nil, err
	}

	for _, id := range resolver.Missing(ids, found) {
		result.Errors = append(result.Errors, types.NewBatchError(id, types.NotFound(string(entityType))))
	}

	byID := make(map[string]*domain.Entity, len(found))
	subjects := make([]permissions.Subject, 0, len(found))

	for _, e := range found {
		subject, err := permissions.SubjectOf(s.registry, e)
		if err != nil {
			return nil, err
		}

		byID[e.ID] = e
		subjects = append(subjects, subject)
	}

	allowed, denied := s.engine.Split(ctx, caller.User, caller.Memberships, permissions.ActionDelete, subjects)

	for _, d := range denied {
		result.Errors = append(result.Errors, types.NewBatchError(d.ID, types.Forbidden(string(entityType))))
	}

	if len(denied) > 0 {
		s.logger.Security().AuthzFailure(caller.User.ID, string(entityType), permissions.ActionDelete.String())
	}

	if len(allowed) == 0 {
		return result, nil
	}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		members := make(map[string][]string, len(allowed))

		if def.IsContext {
			for _, subject := range allowed {
				ids, err := s.storage.ListMemberUserIDs(ctx, entities.ContextRef{Type: entityType, ID: subject.ID})
				if err != nil {
					return err
				}
				members[subject.ID] = ids
			}
		}

		targets := make([]string, 0, len(allowed))
		for _, subject := range allowed {
			targets = append(targets, subject.ID)
		}

		deleted, err := s.storage.DeleteEntities(ctx, entityType, targets)
		if err != nil {
			return err
		}

		gone := make(map[string]struct{}, len(deleted))
		for _, id := range deleted {
			gone[id] = struct{}{}
		}

		for _, id := range targets {
			if _, ok := gone[id]; !ok {
				result.Errors = append(result.Errors, types.NewBatchError(id, types.NotFound(string(entityType))))
			}
		}

		result.Deleted = deleted

		db.AfterCommit(ctx, func() {
			for _, id := range deleted {
				if recipients, ok := members[id]; ok {
					s.notifier.SendToUsers(ctx, recipients, events.RemoveMembership(entityType), byID[id])
				}
			}
		})

		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Security().AdminAction(caller.User.ID, "delete", fmt.Sprintf("%s:%v", entityType, result.Deleted))

	return result, nil
}

func (s *Service) SlugAvailable(ctx context.Context, entityType entities.Type, slug string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "entity.Service.SlugAvailable")
	defer span.End()

	def, err := s.registry.Get(entityType)
	if err != nil {
		return false, types.NotFound(string(entityType)).Wrap(err)
	}

	if !def.HasSlug {
		return false, types.InvalidRequest(fmt.Sprintf("%s has no slug", entityType))
	}

	taken, err := s.storage.SlugExists(ctx, entityType, slug)
	if err != nil {
		return false, err
	}

	return !taken, nil
}

// setParent stores an ancestor reference on the matching parent pointer of e
func setParent(e *domain.Entity, ref entities.ContextRef) error {
	id := ref.ID

	switch ref.Type {
	case entities.Organization:
		e.OrganizationID = &id
	case entities.Project:
		e.ProjectID = &id
	case entities.Workspace, entities.Task, entities.Label, entities.User:
		return fmt.Errorf("%s cannot be a parent", ref.Type)
	default:
		return fmt.Errorf("%w: %q", entities.ErrUnknownType, ref.Type)
	}

	return nil
}

func NewService(
	s StorageInterface,
	tx TxInterface,
	r ResolverInterface,
	engine permissions.EngineInterface,
	registry *entities.Registry,
	notifier events.NotifierInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	svc := new(Service)

	svc.storage = s
	svc.tx = tx
	svc.resolver = r
	svc.engine = engine
	svc.registry = registry
	svc.notifier = notifier

	svc.tracer = tracer
	svc.monitor = monitor
	svc.logger = logger

	return svc
}
