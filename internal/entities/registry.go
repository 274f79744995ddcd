// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package entities

import (
	"errors"
	"fmt"
	"slices"

	"github.com/canonical/workspace-service/internal/types"
)

// Type is the discriminant tag of a stored entity
type Type string

const (
	Organization Type = "organization"
	Workspace    Type = "workspace"
	Project      Type = "project"
	Task         Type = "task"
	Label        Type = "label"
	User         Type = "user"
)

var ErrUnknownType = errors.New("unknown entity type")

// Definition describes how an entity type is stored and where it sits in the hierarchy
type Definition struct {
	Type  Type
	Table string

	// IsContext marks the types that own memberships
	IsContext bool
	HasSlug   bool

	// Ancestors is ordered from the nearest parent to the root organization
	Ancestors []Type

	// ParentColumns maps each ancestor to the column of Table referencing it
	ParentColumns map[Type]string

	// HasParentID enables self references, e.g. subtasks
	HasParentID bool

	// MembershipColumn is the memberships column referencing this type, context types only
	MembershipColumn string
}

// Columns returns the select list for the table, in scan order
func (d *Definition) Columns() []string {
	cols := []string{"id", "name"}

	if d.HasSlug {
		cols = append(cols, "slug")
	}

	for _, a := range d.Ancestors {
		cols = append(cols, d.ParentColumns[a])
	}

	if d.HasParentID {
		cols = append(cols, "parent_id")
	}

	return append(cols, "created_at", "created_by", "modified_at", "modified_by")
}

// HasAncestor reports whether t is in the ancestor chain
func (d *Definition) HasAncestor(t Type) bool {
	return slices.Contains(d.Ancestors, t)
}

// Registry is the static set of entity definitions, built once at startup
type Registry struct {
	defs  map[Type]*Definition
	order []Type
}

func (r *Registry) Get(t Type) (*Definition, error) {
	d, ok := r.defs[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, t)
	}

	return d, nil
}

// Parse validates a raw type tag coming from a request
func (r *Registry) Parse(raw string) (*Definition, error) {
	return r.Get(Type(raw))
}

func (r *Registry) Types() []Type {
	return slices.Clone(r.order)
}

func (r *Registry) ContextTypes() []Type {
	out := make([]Type, 0, len(r.order))

	for _, t := range r.order {
		if r.defs[t].IsContext {
			out = append(out, t)
		}
	}

	return out
}

// MembershipColumn is the memberships column holding the id of ref, as registered for its type
func (r *Registry) MembershipColumn(ref ContextRef) (string, error) {
	d, err := r.Get(ref.Type)
	if err != nil {
		return "", err
	}

	if !d.IsContext {
		return "", fmt.Errorf("%q is not a context type", ref.Type)
	}

	return d.MembershipColumn, nil
}

// ParentID returns the id stored on e for the given ancestor
func (r *Registry) ParentID(e *types.Entity, ancestor Type) (string, bool) {
	var v *string

	switch ancestor {
	case Organization:
		v = e.OrganizationID
	case Project:
		v = e.ProjectID
	case Workspace, Task, Label, User:
		return "", false
	default:
		return "", false
	}

	if v == nil || *v == "" {
		return "", false
	}

	return *v, true
}

// NewRegistry validates the definitions: every ancestor must be registered, chains of
// non root types must end at the organization, context types need a membership column
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := new(Registry)
	r.defs = make(map[Type]*Definition, len(defs))

	for i := range defs {
		d := defs[i]

		if _, ok := r.defs[d.Type]; ok {
			return nil, fmt.Errorf("entity type %q registered twice", d.Type)
		}

		r.defs[d.Type] = &d
		r.order = append(r.order, d.Type)
	}

	for _, t := range r.order {
		d := r.defs[t]

		if d.IsContext && d.MembershipColumn == "" {
			return nil, fmt.Errorf("context type %q has no membership column", t)
		}

		for _, a := range d.Ancestors {
			ad, ok := r.defs[a]
			if !ok {
				return nil, fmt.Errorf("type %q references unregistered ancestor %q", t, a)
			}

			if !ad.IsContext {
				return nil, fmt.Errorf("type %q has non context ancestor %q", t, a)
			}

			if d.ParentColumns[a] == "" {
				return nil, fmt.Errorf("type %q has no column for ancestor %q", t, a)
			}
		}

		if t != Organization && t != User && (len(d.Ancestors) == 0 || d.Ancestors[len(d.Ancestors)-1] != Organization) {
			return nil, fmt.Errorf("type %q does not resolve to an organization", t)
		}
	}

	return r, nil
}

// DefaultRegistry is the hierarchy served by the API
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		Definition{
			Type:             Organization,
			Table:            "organizations",
			IsContext:        true,
			HasSlug:          true,
			MembershipColumn: "organization_id",
		},
		Definition{
			Type:             Workspace,
			Table:            "workspaces",
			IsContext:        true,
			HasSlug:          true,
			Ancestors:        []Type{Organization},
			ParentColumns:    map[Type]string{Organization: "organization_id"},
			MembershipColumn: "workspace_id",
		},
		Definition{
			Type:             Project,
			Table:            "projects",
			IsContext:        true,
			HasSlug:          true,
			Ancestors:        []Type{Organization},
			ParentColumns:    map[Type]string{Organization: "organization_id"},
			MembershipColumn: "project_id",
		},
		Definition{
			Type:          Task,
			Table:         "tasks",
			Ancestors:     []Type{Project, Organization},
			ParentColumns: map[Type]string{Project: "project_id", Organization: "organization_id"},
			HasParentID:   true,
		},
		Definition{
			Type:          Label,
			Table:         "labels",
			Ancestors:     []Type{Project, Organization},
			ParentColumns: map[Type]string{Project: "project_id", Organization: "organization_id"},
		},
	)

	if err != nil {
		panic(err)
	}

	return r
}
