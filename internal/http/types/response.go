// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"

	"github.com/canonical/workspace-service/internal/logging"
)

const maxPageSize = 500

type Pagination struct {
	Page int64 `json:"page"`
	Size int64 `json:"size"`
}

// ParsePagination reads the page and size query params, missing values are left at 0
func ParsePagination(r *http.Request) (*Pagination, error) {
	p := new(Pagination)
	q := r.URL.Query()

	for name, dst := range map[string]*int64{"page": &p.Page, "size": &p.Size} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}

		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			return nil, InvalidRequest(name + " must be a positive integer")
		}

		*dst = v
	}

	if p.Size > maxPageSize {
		return nil, InvalidRequest("size must not exceed " + strconv.Itoa(maxPageSize))
	}

	return p, nil
}

type Response struct {
	Data    any         `json:"data"`
	Message string      `json:"message,omitempty"`
	Status  int         `json:"status"`
	Meta    *Pagination `json:"_meta,omitempty"`
}

// BatchError reports the failure of one item of a batch request
type BatchError struct {
	ID         string    `json:"id"`
	Type       ErrorType `json:"type"`
	EntityType string    `json:"entityType,omitempty"`
}

func NewBatchError(id string, err *Error) BatchError {
	return BatchError{ID: id, Type: err.Type, EntityType: err.EntityType}
}

type ErrorResponse struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"httpStatus"`
	Severity   Severity  `json:"severity"`
	EntityType string    `json:"entityType,omitempty"`
	LogID      string    `json:"logId"`
	Path       string    `json:"path"`
	Method     string    `json:"method"`
	Timestamp  time.Time `json:"timestamp"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(v)
}

// WriteData wraps data in the standard response envelope
func WriteData(w http.ResponseWriter, status int, data any, meta *Pagination) {
	WriteJSON(w, status, Response{Data: data, Status: status, Meta: meta})
}

// WriteError normalizes err into the error taxonomy, anything untyped becomes a server_error,
// logs it under a fresh log id and writes the structured body
func WriteError(w http.ResponseWriter, r *http.Request, err error, logger logging.LoggerInterface) {
	var e *Error
	if !errors.As(err, &e) {
		e = ServerError(err)
	}

	logID := ulid.Make().String()

	fields := []any{
		"logId", logID,
		"type", e.Type,
		"path", r.URL.Path,
		"method", r.Method,
		"requestId", middleware.GetReqID(r.Context()),
		"error", err.Error(),
	}

	switch e.Severity {
	case SeverityError:
		logger.Errorw(e.Message, fields...)
	case SeverityWarn:
		logger.Warnw(e.Message, fields...)
	default:
		logger.Infow(e.Message, fields...)
	}

	WriteJSON(w, e.Status, ErrorResponse{
		Type:       e.Type,
		Message:    e.Message,
		HTTPStatus: e.Status,
		Severity:   e.Severity,
		EntityType: e.EntityType,
		LogID:      logID,
		Path:       r.URL.Path,
		Method:     r.Method,
		Timestamp:  time.Now().UTC(),
	})
}
