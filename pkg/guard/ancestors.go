// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package guard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/canonical/workspace-service/internal/entities"
	httptypes "github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/tracing"
	"github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/internal/validation"
	"github.com/canonical/workspace-service/pkg/resolver"
)

// AncestorNotFoundError reports an ancestor identifier that matched nothing
type AncestorNotFoundError struct {
	Type     entities.Type
	IDOrSlug string
}

func (e *AncestorNotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Type, e.IDOrSlug)
}

func (e *AncestorNotFoundError) Unwrap() error {
	return resolver.ErrNotFound
}

// AncestorContext is the parent chain of an entity about to be created. Ancestors is ordered
// from the nearest parent to the organization and is empty when the request named none.
type AncestorContext struct {
	Nearest   *types.Entity
	Ancestors []entities.ContextRef
}

var _ ContextBuilderInterface = (*ContextBuilder)(nil)

type ContextBuilder struct {
	resolver ResolverInterface
	registry *entities.Registry

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// BuildContext looks for the nearest ancestor identifier in the route params, then the
// query, then the JSON body. Only that ancestor is resolved, farther ones come from its
// own parent columns.
func (b *ContextBuilder) BuildContext(ctx context.Context, entityType entities.Type, r *http.Request) (*AncestorContext, error) {
	ctx, span := b.tracer.Start(ctx, "guard.ContextBuilder.BuildContext")
	defer span.End()

	def, err := b.registry.Get(entityType)
	if err != nil {
		return nil, err
	}

	body, err := jsonBody(r)
	if err != nil {
		return nil, err
	}

	for i, ancestor := range def.Ancestors {
		value, ok := lookup(r, body, ancestor)
		if !ok {
			continue
		}

		e, err := b.resolver.Resolve(ctx, ancestor, value)

		switch {
		case errors.Is(err, resolver.ErrNotFound):
			return nil, &AncestorNotFoundError{Type: ancestor, IDOrSlug: value}
		case err != nil:
			return nil, err
		}

		ac := &AncestorContext{
			Nearest:   e,
			Ancestors: []entities.ContextRef{{Type: ancestor, ID: e.ID}},
		}

		for _, farther := range def.Ancestors[i+1:] {
			id, ok := b.registry.ParentID(e, farther)
			if !ok {
				return nil, fmt.Errorf("%s %s has no %s", ancestor, e.ID, farther)
			}

			ac.Ancestors = append(ac.Ancestors, entities.ContextRef{Type: farther, ID: id})
		}

		return ac, nil
	}

	b.logger.Debugf("no ancestor of %s found in request %s", entityType, r.URL.Path)

	return new(AncestorContext), nil
}

// lookup accepts both "organization" and "organizationId" keys
func lookup(r *http.Request, body map[string]any, ancestor entities.Type) (string, bool) {
	keys := []string{string(ancestor) + "Id", string(ancestor)}

	for _, k := range keys {
		if v := chi.URLParam(r, k); v != "" {
			return v, true
		}
	}

	q := r.URL.Query()
	for _, k := range keys {
		if v := q.Get(k); v != "" {
			return v, true
		}
	}

	for _, k := range keys {
		if v, ok := body[k].(string); ok && v != "" {
			return v, true
		}
	}

	return "", false
}

// jsonBody decodes a JSON object body and puts the bytes back for the handler
func jsonBody(r *http.Request) (map[string]any, error) {
	if r.Body == nil || r.Body == http.NoBody {
		return nil, nil
	}

	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err != nil || mt != "application/json" {
		return nil, nil
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, validation.MaxBodySize+1))
	if err != nil {
		return nil, err
	}

	if int64(len(raw)) > validation.MaxBodySize {
		return nil, httptypes.PayloadTooLarge(validation.MaxBodySize)
	}

	r.Body = io.NopCloser(bytes.NewReader(raw))

	body := make(map[string]any)
	if len(raw) == 0 || json.Unmarshal(raw, &body) != nil {
		// malformed bodies are reported by the handler validation
		return nil, nil
	}

	return body, nil
}

func NewContextBuilder(r ResolverInterface, registry *entities.Registry, tracer tracing.TracingInterface, monitor monitoring.MonitorInterface, logger logging.LoggerInterface) *ContextBuilder {
	b := new(ContextBuilder)

	b.resolver = r
	b.registry = registry

	b.tracer = tracer
	b.monitor = monitor
	b.logger = logger

	return b
}
