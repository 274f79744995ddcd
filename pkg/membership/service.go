// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package membership

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/canonical/workspace-service/internal/db"
	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	domain "github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/events"
	"github.com/canonical/workspace-service/pkg/invitation"
	"github.com/canonical/workspace-service/pkg/permissions"
)

// Caller is the authenticated user with the memberships loaded by the guard
type Caller struct {
	User        *domain.User
	Memberships []*domain.Membership
}

type AddResult struct {
	Added []*domain.Membership `json:"added"`

	// Skipped lists the users already member of the target
	Skipped []string           `json:"skipped"`
	Errors  []types.BatchError `json:"errors"`
}

type DeleteResult struct {
	Deleted []string           `json:"deleted"`
	Errors  []types.BatchError `json:"errors"`
}

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage     StorageInterface
	tx          TxInterface
	invitations InvitationInterface
	engine      permissions.EngineInterface
	registry    *entities.Registry
	notifier    events.NotifierInterface

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func (s *Service) List(ctx context.Context, ref entities.ContextRef, page, size int64) ([]*domain.Member, error) {
	ctx, span := s.tracer.Start(ctx, "membership.Service.List")
	defer span.End()

	pageSize := db.PageSize(size)

	return s.storage.ListMembers(ctx, ref, db.Offset(page, pageSize), pageSize)
}

func (s *Service) Counts(ctx context.Context, ref entities.ContextRef) (*domain.MembershipCounts, error) {
	ctx, span := s.tracer.Start(ctx, "membership.Service.Counts")
	defer span.End()

	return s.storage.CountMemberships(ctx, ref)
}

func (s *Service) Invite(ctx context.Context, inviter *domain.User, organization *domain.Entity, emails []string, role domain.Role) (*invitation.InviteResult, error) {
	ctx, span := s.tracer.Start(ctx, "membership.Service.Invite")
	defer span.End()

	if organization.Type != string(entities.Organization) {
		return nil, types.InvalidRequest("invitations are sent for organizations only")
	}

	return s.invitations.Invite(ctx, inviter, organization, emails, role)
}

// Add gives existing members of the parent organization a membership on a workspace or
// project. Users outside the organization are reported as not found.
func (s *Service) Add(ctx context.Context, caller *domain.User, target *domain.Entity, userIDs []string, role domain.Role) (*AddResult, error) {
	ctx, span := s.tracer.Start(ctx, "membership.Service.Add")
	defer span.End()

	if !role.Valid() {
		return nil, types.InvalidRequest(fmt.Sprintf("invalid role %q", role))
	}

	ref, err := entities.NewContextRef(entities.Type(target.Type), target.ID)
	if err != nil || ref.Type == entities.Organization || target.OrganizationID == nil {
		return nil, types.InvalidRequest("members can only be added to a workspace or a project")
	}

	orgRef := entities.ContextRef{Type: entities.Organization, ID: *target.OrganizationID}
	result := &AddResult{Added: []*domain.Membership{}, Skipped: []string{}, Errors: []types.BatchError{}}

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		for _, userID := range userIDs {
			_, err := s.storage.FindMembership(ctx, userID, orgRef)

			switch {
			case errors.Is(err, storage.ErrNotFound):
				result.Errors = append(result.Errors, types.NewBatchError(userID, types.NotFound(string(entities.User))))
				continue
			case err != nil:
				return err
			}

			m := &domain.Membership{
				UserID:         userID,
				Type:           string(ref.Type),
				OrganizationID: orgRef.ID,
				Role:           role,
				CreatedBy:      &caller.ID,
			}

			id := ref.ID
			switch ref.Type {
			case entities.Workspace:
				m.WorkspaceID = &id
			case entities.Project:
				m.ProjectID = &id
			case entities.Organization, entities.Task, entities.Label, entities.User:
				return fmt.Errorf("cannot add members to %s", ref.Type)
			}

			created, inserted, err := s.storage.CreateMembership(ctx, m)
			if err != nil {
				return err
			}

			if !inserted {
				result.Skipped = append(result.Skipped, userID)
				continue
			}

			result.Added = append(result.Added, created)
		}

		if len(result.Added) == 0 {
			return nil
		}

		members, err := s.storage.ListMemberUserIDs(ctx, ref)
		if err != nil {
			return err
		}

		added := result.Added
		db.AfterCommit(ctx, func() {
			for _, m := range added {
				s.notifier.SendToUsers(ctx, members, events.NewMembership(ref.Type), m)
			}
		})

		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

// Update changes a membership on the subject context. Changing the role needs manage
// permission on the context, the personal flags can only be changed by the member.
func (s *Service) Update(ctx context.Context, caller Caller, subject permissions.Subject, userID string, patch domain.MembershipPatch) (*domain.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "membership.Service.Update")
	defer span.End()

	if patch.Empty() {
		return nil, types.InvalidRequest("nothing to update")
	}

	ref, err := entities.NewContextRef(subject.Type, subject.ID)
	if err != nil {
		return nil, types.InvalidRequest(err.Error())
	}

	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, types.InvalidRequest(fmt.Sprintf("invalid role %q", *patch.Role))
		}

		if !s.engine.IsAllowed(ctx, caller.User, caller.Memberships, permissions.ActionManage, subject) {
			s.logger.Security().AuthzFailure(caller.User.ID, ref.String(), "update membership role")
			return nil, types.Forbidden(string(ref.Type))
		}
	}

	personal := patch.Archived != nil || patch.Muted != nil || patch.Order != nil
	if personal && userID != caller.User.ID {
		return nil, types.Forbidden(string(ref.Type)).Wrap(errors.New("personal flags belong to the member"))
	}

	var updated *domain.Membership

	err = s.tx.WithTx(ctx, func(ctx context.Context) error {
		current, err := s.storage.FindMembership(ctx, userID, ref)

		switch {
		case errors.Is(err, storage.ErrNotFound):
			return types.NotFound("membership")
		case err != nil:
			return err
		}

		demoted := patch.Role != nil && current.Role == domain.RoleAdmin && *patch.Role != domain.RoleAdmin
		if demoted {
			if err := s.ensureAdminLeft(ctx, ref, 1); err != nil {
				return err
			}
		}

		if updated, err = s.storage.UpdateMembership(ctx, userID, ref, patch, caller.User.ID); err != nil {
			return err
		}

		if patch.Role != nil && *patch.Role != current.Role {
			m := updated
			db.AfterCommit(ctx, func() {
				s.notifier.Send(ctx, userID, events.Update(ref.Type), m)
			})
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Delete removes memberships by id. Members can always leave, removing someone else needs
// manage permission on the context. Failures are reported per id.
func (s *Service) Delete(ctx context.Context, caller Caller, ids []string) (*DeleteResult, error) {
	ctx, span := s.tracer.Start(ctx, "membership.Service.Delete")
	defer span.End()

	result := &DeleteResult{Deleted: []string{}, Errors: []types.BatchError{}}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		found, err := s.storage.GetMembershipsByIDs(ctx, ids)
		if err != nil {
			return err
		}

		byID := make(map[string]*domain.Membership, len(found))
		for _, m := range found {
			byID[m.ID] = m
		}

		allowed := make([]*domain.Membership, 0, len(found))

		for _, id := range ids {
			m, ok := byID[id]
			if !ok {
				result.Errors = append(result.Errors, types.NewBatchError(id, types.NotFound("membership")))
				continue
			}

			if !s.canRemove(ctx, caller, m) {
				result.Errors = append(result.Errors, types.NewBatchError(id, types.Forbidden(m.Type)))
				continue
			}

			allowed = append(allowed, m)
		}

		allowed, rejected, err := s.keepLastAdmins(ctx, allowed)
		if err != nil {
			return err
		}

		result.Errors = append(result.Errors, rejected...)

		if len(allowed) == 0 {
			return nil
		}

		deletedIDs, missing, err := s.storage.DeleteMemberships(ctx, membershipIDs(allowed))
		if err != nil {
			return err
		}

		for _, id := range missing {
			result.Errors = append(result.Errors, types.NewBatchError(id, types.NotFound("membership")))
		}

		result.Deleted = deletedIDs

		return s.notifyRemoved(ctx, allowed, deletedIDs)
	})

	if err != nil {
		return nil, err
	}

	s.logger.Security().AdminAction(caller.User.ID, "delete memberships", fmt.Sprintf("memberships:%v", result.Deleted))

	return result, nil
}

func (s *Service) canRemove(ctx context.Context, caller Caller, m *domain.Membership) bool {
	if m.UserID == caller.User.ID {
		return true
	}

	subject, err := s.subjectOf(m)
	if err != nil {
		s.logger.Errorf("failed to build subject of membership %s: %v", m.ID, err)
		return false
	}

	return s.engine.IsAllowed(ctx, caller.User, caller.Memberships, permissions.ActionManage, subject)
}

// subjectOf returns the context entity a membership points at as a permission subject
func (s *Service) subjectOf(m *domain.Membership) (permissions.Subject, error) {
	ref, err := entities.ContextRefFromMembership(m)
	if err != nil {
		return permissions.Subject{}, err
	}

	def, err := s.registry.Get(ref.Type)
	if err != nil {
		return permissions.Subject{}, err
	}

	subject := permissions.Subject{Type: ref.Type, ID: ref.ID}

	for _, a := range def.Ancestors {
		if a != entities.Organization {
			return permissions.Subject{}, fmt.Errorf("membership %s: unsupported ancestor %s", m.ID, a)
		}

		subject.Ancestors = append(subject.Ancestors, entities.ContextRef{Type: a, ID: m.OrganizationID})
	}

	return subject, nil
}

// keepLastAdmins rejects admin removals that would leave a context without any admin
func (s *Service) keepLastAdmins(ctx context.Context, ms []*domain.Membership) ([]*domain.Membership, []types.BatchError, error) {
	removedAdmins := make(map[entities.ContextRef]int)

	for _, m := range ms {
		if m.Role != domain.RoleAdmin {
			continue
		}

		ref, err := entities.ContextRefFromMembership(m)
		if err != nil {
			return nil, nil, err
		}

		removedAdmins[ref]++
	}

	blocked := make(map[entities.ContextRef]bool, len(removedAdmins))

	for ref, n := range removedAdmins {
		err := s.ensureAdminLeft(ctx, ref, n)

		switch {
		case errors.Is(err, types.NewError(types.ErrorLastAdmin, "")):
			blocked[ref] = true
		case err != nil:
			return nil, nil, err
		}
	}

	kept := make([]*domain.Membership, 0, len(ms))
	rejected := make([]types.BatchError, 0)

	for _, m := range ms {
		ref, _ := entities.ContextRefFromMembership(m)

		if m.Role == domain.RoleAdmin && blocked[ref] {
			rejected = append(rejected, types.NewBatchError(m.ID, types.NewError(types.ErrorLastAdmin, "").WithEntity(m.Type)))
			continue
		}

		kept = append(kept, m)
	}

	return kept, rejected, nil
}

// ensureAdminLeft fails with last_admin when removing n admins would leave ref with none
func (s *Service) ensureAdminLeft(ctx context.Context, ref entities.ContextRef, n int) error {
	counts, err := s.storage.CountMemberships(ctx, ref)
	if err != nil {
		return err
	}

	if counts.Admins-n < 1 {
		return types.NewError(types.ErrorLastAdmin, "").WithEntity(string(ref.Type))
	}

	return nil
}

// notifyRemoved tells the removed users and the remaining members of each context
func (s *Service) notifyRemoved(ctx context.Context, removed []*domain.Membership, deletedIDs []string) error {
	for _, m := range removed {
		if !slices.Contains(deletedIDs, m.ID) {
			continue
		}

		ref, err := entities.ContextRefFromMembership(m)
		if err != nil {
			return err
		}

		members, err := s.storage.ListMemberUserIDs(ctx, ref)
		if err != nil {
			return err
		}

		recipients := append(members, m.UserID)
		db.AfterCommit(ctx, func() {
			s.notifier.SendToUsers(ctx, recipients, events.RemoveMembership(ref.Type), m)
		})
	}

	return nil
}

func membershipIDs(ms []*domain.Membership) []string {
	ids := make([]string, 0, len(ms))
	for _, m := range ms {
		ids = append(ids, m.ID)
	}

	return ids
}

func NewService(
	s StorageInterface,
	tx TxInterface,
	invitations InvitationInterface,
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
	svc.invitations = invitations
	svc.engine = engine
	svc.registry = registry
	svc.notifier = notifier

	svc.tracer = tracer
	svc.monitor = monitor
	svc.logger = logger

	return svc
}
