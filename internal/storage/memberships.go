// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"fmt"
	"slices"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/types"
)

var membershipColumns = []string{
	"id", "user_id", "type", "organization_id", "workspace_id", "project_id",
	"role", "archived", "muted", "display_order",
	"created_at", "created_by", "modified_at", "modified_by",
}

func membershipTargets(m *types.Membership) []any {
	return []any{
		&m.ID, &m.UserID, &m.Type, &m.OrganizationID, &m.WorkspaceID, &m.ProjectID,
		&m.Role, &m.Archived, &m.Muted, &m.Order,
		&m.CreatedAt, &m.CreatedBy, &m.ModifiedAt, &m.ModifiedBy,
	}
}

func scanMemberships(rows rowScanner) ([]*types.Membership, error) {
	out := make([]*types.Membership, 0)

	for rows.Next() {
		m := new(types.Membership)
		if err := rows.Scan(membershipTargets(m)...); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		out = append(out, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return out, nil
}

// contextFilter restricts memberships to one context entity
func (s *Storage) contextFilter(ref entities.ContextRef) (sq.Eq, error) {
	col, err := s.registry.MembershipColumn(ref)
	if err != nil {
		return nil, err
	}

	return sq.Eq{col: ref.ID, "type": string(ref.Type)}, nil
}

func (s *Storage) ListMembershipsByUserID(ctx context.Context, userID string) ([]*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.ListMembershipsByUserID")
	defer span.End()

	rows, err := s.db.Statement(ctx).
		Select(membershipColumns...).
		From("memberships").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("display_order ASC", "created_at ASC").
		QueryContext(ctx)

	if err != nil {
		return nil, wrap(err, "failed to list memberships")
	}
	defer rows.Close()

	return scanMemberships(rows)
}

func (s *Storage) FindMembership(ctx context.Context, userID string, ref entities.ContextRef) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.FindMembership")
	defer span.End()

	filter, err := s.contextFilter(ref)
	if err != nil {
		return nil, err
	}

	filter["user_id"] = userID

	m := new(types.Membership)
	err = s.db.Statement(ctx).
		Select(membershipColumns...).
		From("memberships").
		Where(filter).
		QueryRowContext(ctx).
		Scan(membershipTargets(m)...)

	if err != nil {
		return nil, wrap(err, "failed to find membership")
	}

	return m, nil
}

func (s *Storage) GetMembershipsByIDs(ctx context.Context, ids []string) ([]*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.GetMembershipsByIDs")
	defer span.End()

	valid, _ := splitIDs(ids)
	if len(valid) == 0 {
		return []*types.Membership{}, nil
	}

	rows, err := s.db.Statement(ctx).
		Select(membershipColumns...).
		From("memberships").
		Where(sq.Eq{"id": valid}).
		QueryContext(ctx)

	if err != nil {
		return nil, wrap(err, "failed to get memberships")
	}
	defer rows.Close()

	return scanMemberships(rows)
}

// CreateMembership inserts unless the user already holds a membership on the same context,
// in which case the existing row is returned with created false
func (s *Storage) CreateMembership(ctx context.Context, m *types.Membership) (*types.Membership, bool, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.CreateMembership")
	defer span.End()

	ref, err := entities.ContextRefFromMembership(m)
	if err != nil {
		return nil, false, err
	}

	id, err := newID()
	if err != nil {
		return nil, false, fmt.Errorf("failed to generate membership ID: %w", err)
	}

	created := new(types.Membership)
	err = s.db.Statement(ctx).
		Insert("memberships").
		Columns(
			"id", "user_id", "type", "organization_id", "workspace_id", "project_id",
			"role", "archived", "muted", "display_order", "created_by",
		).
		Values(
			id, m.UserID, m.Type, m.OrganizationID, m.WorkspaceID, m.ProjectID,
			string(m.Role), m.Archived, m.Muted, m.Order, m.CreatedBy,
		).
		Suffix("ON CONFLICT DO NOTHING RETURNING "+joinedMembershipColumns()).
		QueryRowContext(ctx).
		Scan(membershipTargets(created)...)

	if err == nil {
		return created, true, nil
	}

	if !isNoRows(err) {
		return nil, false, wrap(err, "failed to insert membership")
	}

	existing, err := s.FindMembership(ctx, m.UserID, ref)
	if err != nil {
		return nil, false, err
	}

	return existing, false, nil
}

// UpdateMembership always stamps modified_at and modified_by, even for an empty patch
func (s *Storage) UpdateMembership(ctx context.Context, userID string, ref entities.ContextRef, patch types.MembershipPatch, modifiedBy string) (*types.Membership, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.UpdateMembership")
	defer span.End()

	filter, err := s.contextFilter(ref)
	if err != nil {
		return nil, err
	}

	filter["user_id"] = userID

	q := s.db.Statement(ctx).
		Update("memberships").
		Set("modified_at", sq.Expr("NOW()")).
		Set("modified_by", modifiedBy)

	if patch.Role != nil {
		q = q.Set("role", string(*patch.Role))
	}

	if patch.Archived != nil {
		q = q.Set("archived", *patch.Archived)
	}

	if patch.Muted != nil {
		q = q.Set("muted", *patch.Muted)
	}

	if patch.Order != nil {
		q = q.Set("display_order", *patch.Order)
	}

	m := new(types.Membership)
	err = q.Where(filter).
		Suffix("RETURNING "+joinedMembershipColumns()).
		QueryRowContext(ctx).
		Scan(membershipTargets(m)...)

	if err != nil {
		return nil, wrap(err, "failed to update membership")
	}

	return m, nil
}

// DeleteMemberships returns the removed ids and the requested ids that were not there
func (s *Storage) DeleteMemberships(ctx context.Context, ids []string) ([]string, []string, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.DeleteMemberships")
	defer span.End()

	valid, _ := splitIDs(ids)

	deleted := []string{}

	if len(valid) > 0 {
		rows, err := s.db.Statement(ctx).
			Delete("memberships").
			Where(sq.Eq{"id": valid}).
			Suffix("RETURNING id").
			QueryContext(ctx)

		if err != nil {
			return nil, nil, wrap(err, "failed to delete memberships")
		}
		defer rows.Close()

		if deleted, err = scanIDs(rows); err != nil {
			return nil, nil, err
		}
	}

	missing := make([]string, 0)
	for _, id := range ids {
		if !slices.Contains(deleted, id) {
			missing = append(missing, id)
		}
	}

	return deleted, missing, nil
}

// CountMemberships counts admins and all members, admins included
func (s *Storage) CountMemberships(ctx context.Context, ref entities.ContextRef) (*types.MembershipCounts, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.CountMemberships")
	defer span.End()

	filter, err := s.contextFilter(ref)
	if err != nil {
		return nil, err
	}

	c := new(types.MembershipCounts)
	err = s.db.Statement(ctx).
		Select("COUNT(*) FILTER (WHERE role = 'admin')", "COUNT(*)").
		From("memberships").
		Where(filter).
		QueryRowContext(ctx).
		Scan(&c.Admins, &c.Members)

	if err != nil {
		return nil, wrap(err, "failed to count memberships")
	}

	return c, nil
}

func (s *Storage) ListMembers(ctx context.Context, ref entities.ContextRef, offset, limit uint64) ([]*types.Member, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.ListMembers")
	defer span.End()

	filter, err := s.contextFilter(ref)
	if err != nil {
		return nil, err
	}

	qualified := sq.Eq{}
	for k, v := range filter {
		qualified["m."+k] = v
	}

	cols := make([]string, 0, len(membershipColumns)+5)
	for _, c := range membershipColumns {
		cols = append(cols, "m."+c)
	}
	cols = append(cols, "u.id", "u.slug", "u.email", "u.name", "u.last_seen_at")

	rows, err := s.db.Statement(ctx).
		Select(cols...).
		From("memberships m").
		Join("users u ON u.id = m.user_id").
		Where(qualified).
		OrderBy("m.role ASC", "u.name ASC").
		Offset(offset).
		Limit(limit).
		QueryContext(ctx)

	if err != nil {
		return nil, wrap(err, "failed to list members")
	}
	defer rows.Close()

	members := make([]*types.Member, 0)
	for rows.Next() {
		m := new(types.Membership)
		u := new(types.User)

		dest := append(membershipTargets(m), &u.ID, &u.Slug, &u.Email, &u.Name, &u.LastSeenAt)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}

		members = append(members, &types.Member{Membership: m, User: u})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return members, nil
}

func (s *Storage) ListMemberUserIDs(ctx context.Context, ref entities.ContextRef) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.ListMemberUserIDs")
	defer span.End()

	filter, err := s.contextFilter(ref)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Statement(ctx).
		Select("user_id").
		From("memberships").
		Where(filter).
		QueryContext(ctx)

	if err != nil {
		return nil, wrap(err, "failed to list member ids")
	}
	defer rows.Close()

	return scanIDs(rows)
}

func joinedMembershipColumns() string {
	return strings.Join(membershipColumns, ", ")
}
