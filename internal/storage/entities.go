// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package storage

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/types"
)

// EntityPatch holds the mutable entity fields, nil means unchanged
type EntityPatch struct {
	Name *string
	Slug *string
}

func entityTargets(def *entities.Definition, e *types.Entity) []any {
	cols := def.Columns()
	dest := make([]any, 0, len(cols))

	for _, c := range cols {
		switch c {
		case "id":
			dest = append(dest, &e.ID)
		case "name":
			dest = append(dest, &e.Name)
		case "slug":
			dest = append(dest, &e.Slug)
		case "organization_id":
			dest = append(dest, &e.OrganizationID)
		case "project_id":
			dest = append(dest, &e.ProjectID)
		case "parent_id":
			dest = append(dest, &e.ParentID)
		case "created_at":
			dest = append(dest, &e.CreatedAt)
		case "created_by":
			dest = append(dest, &e.CreatedBy)
		case "modified_at":
			dest = append(dest, &e.ModifiedAt)
		case "modified_by":
			dest = append(dest, &e.ModifiedBy)
		default:
			dest = append(dest, new(any))
		}
	}

	return dest
}

func (s *Storage) scanEntities(def *entities.Definition, rows rowScanner) ([]*types.Entity, error) {
	out := make([]*types.Entity, 0)

	for rows.Next() {
		e := &types.Entity{Type: string(def.Type)}
		if err := rows.Scan(entityTargets(def, e)...); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", def.Type, err)
		}
		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return out, nil
}

// GetEntity matches on id or slug, slugs only within the type's own table
func (s *Storage) GetEntity(ctx context.Context, entityType entities.Type, idOrSlug string) (*types.Entity, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.GetEntity")
	defer span.End()

	def, err := s.registry.Get(entityType)
	if err != nil {
		return nil, err
	}

	q := s.db.Statement(ctx).
		Select(def.Columns()...).
		From(def.Table)

	switch byID := isUUID(idOrSlug); {
	case byID && def.HasSlug:
		// an id match wins over a slug that happens to look like an id
		q = q.Where(sq.Or{sq.Eq{"id": idOrSlug}, sq.Eq{"slug": idOrSlug}}).
			OrderByClause("(id::text = ?) DESC", idOrSlug)
	case byID:
		q = q.Where(sq.Eq{"id": idOrSlug})
	case def.HasSlug && idOrSlug != "":
		q = q.Where(sq.Eq{"slug": idOrSlug})
	default:
		return nil, ErrNotFound
	}

	e := &types.Entity{Type: string(def.Type)}
	err = q.Limit(1).
		QueryRowContext(ctx).
		Scan(entityTargets(def, e)...)

	if err != nil {
		return nil, wrap(err, "failed to get "+string(def.Type))
	}

	return e, nil
}

// ListEntitiesByIDs silently omits the ids that do not exist
func (s *Storage) ListEntitiesByIDs(ctx context.Context, entityType entities.Type, ids []string) ([]*types.Entity, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.ListEntitiesByIDs")
	defer span.End()

	def, err := s.registry.Get(entityType)
	if err != nil {
		return nil, err
	}

	valid, _ := splitIDs(ids)
	if len(valid) == 0 {
		return []*types.Entity{}, nil
	}

	rows, err := s.db.Statement(ctx).
		Select(def.Columns()...).
		From(def.Table).
		Where(sq.Eq{"id": valid}).
		QueryContext(ctx)

	if err != nil {
		return nil, wrap(err, "failed to list "+string(def.Type))
	}
	defer rows.Close()

	return s.scanEntities(def, rows)
}

func (s *Storage) CreateEntity(ctx context.Context, e *types.Entity) (*types.Entity, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.CreateEntity")
	defer span.End()

	def, err := s.registry.Get(entities.Type(e.Type))
	if err != nil {
		return nil, err
	}

	id, err := newID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s ID: %w", def.Type, err)
	}

	values := map[string]any{
		"id":         id,
		"name":       e.Name,
		"created_by": e.CreatedBy,
	}

	if def.HasSlug {
		values["slug"] = e.Slug
	}

	for _, a := range def.Ancestors {
		parent, ok := s.registry.ParentID(e, a)
		if !ok {
			return nil, fmt.Errorf("%s requires a %s", def.Type, a)
		}
		values[def.ParentColumns[a]] = parent
	}

	if def.HasParentID && e.ParentID != nil {
		values["parent_id"] = *e.ParentID
	}

	created := &types.Entity{Type: string(def.Type)}
	err = s.db.Statement(ctx).
		Insert(def.Table).
		SetMap(values).
		Suffix("RETURNING "+strings.Join(def.Columns(), ", ")).
		QueryRowContext(ctx).
		Scan(entityTargets(def, created)...)

	if err != nil {
		return nil, wrap(err, "failed to insert "+string(def.Type))
	}

	return created, nil
}

func (s *Storage) UpdateEntity(ctx context.Context, entityType entities.Type, id string, patch EntityPatch, modifiedBy string) (*types.Entity, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.UpdateEntity")
	defer span.End()

	def, err := s.registry.Get(entityType)
	if err != nil {
		return nil, err
	}

	if !isUUID(id) {
		return nil, ErrNotFound
	}

	q := s.db.Statement(ctx).
		Update(def.Table).
		Set("modified_at", sq.Expr("NOW()")).
		Set("modified_by", modifiedBy)

	if patch.Name != nil {
		q = q.Set("name", *patch.Name)
	}

	if patch.Slug != nil && def.HasSlug {
		q = q.Set("slug", *patch.Slug)
	}

	updated := &types.Entity{Type: string(def.Type)}
	err = q.Where(sq.Eq{"id": id}).
		Suffix("RETURNING "+strings.Join(def.Columns(), ", ")).
		QueryRowContext(ctx).
		Scan(entityTargets(def, updated)...)

	if err != nil {
		return nil, wrap(err, "failed to update "+string(def.Type))
	}

	return updated, nil
}

// DeleteEntities returns the ids actually removed, memberships go with them through ON DELETE CASCADE
func (s *Storage) DeleteEntities(ctx context.Context, entityType entities.Type, ids []string) ([]string, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.DeleteEntities")
	defer span.End()

	def, err := s.registry.Get(entityType)
	if err != nil {
		return nil, err
	}

	valid, _ := splitIDs(ids)
	if len(valid) == 0 {
		return []string{}, nil
	}

	rows, err := s.db.Statement(ctx).
		Delete(def.Table).
		Where(sq.Eq{"id": valid}).
		Suffix("RETURNING id").
		QueryContext(ctx)

	if err != nil {
		return nil, wrap(err, "failed to delete "+string(def.Type))
	}
	defer rows.Close()

	return scanIDs(rows)
}

func (s *Storage) SlugExists(ctx context.Context, entityType entities.Type, slug string) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "storage.Storage.SlugExists")
	defer span.End()

	def, err := s.registry.Get(entityType)
	if err != nil {
		return false, err
	}

	if !def.HasSlug {
		return false, fmt.Errorf("%s has no slug", def.Type)
	}

	var exists bool
	err = s.db.Statement(ctx).
		Select("1").
		Prefix("SELECT EXISTS (").
		From(def.Table).
		Where(sq.Eq{"slug": slug}).
		Suffix(")").
		QueryRowContext(ctx).
		Scan(&exists)

	if err != nil {
		return false, wrap(err, "failed to check slug")
	}

	return exists, nil
}

func scanIDs(rows rowScanner) ([]string, error) {
	ids := make([]string, 0)

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return ids, nil
}
