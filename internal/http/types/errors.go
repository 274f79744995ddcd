// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package types

import (
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorUnauthorized          ErrorType = "unauthorized"
	ErrorForbidden             ErrorType = "forbidden"
	ErrorNotFound              ErrorType = "not_found"
	ErrorInvalidToken          ErrorType = "invalid_token"
	ErrorInvalidTokenOrExpired ErrorType = "invalid_token_or_expired"
	ErrorSlugExists            ErrorType = "slug_exists"
	ErrorEmailExists           ErrorType = "email_exists"
	ErrorLastAdmin             ErrorType = "last_admin"
	ErrorInvalidRequest        ErrorType = "invalid_request"
	ErrorTooManyRequests       ErrorType = "too_many_requests"
	ErrorPayloadTooLarge       ErrorType = "payload_too_large"
	ErrorServer                ErrorType = "server_error"
)

type Severity string

const (
	SeverityInfo  Severity = "info"
	SeverityWarn  Severity = "warn"
	SeverityError Severity = "error"
)

const unknownEntity = "unknown"

type errorDefault struct {
	status   int
	severity Severity
	message  string
}

var defaults = map[ErrorType]errorDefault{
	ErrorUnauthorized:          {http.StatusUnauthorized, SeverityInfo, "authentication required"},
	ErrorForbidden:             {http.StatusForbidden, SeverityWarn, "you are not allowed to perform this action"},
	ErrorNotFound:              {http.StatusNotFound, SeverityWarn, "resource not found"},
	ErrorInvalidToken:          {http.StatusBadRequest, SeverityWarn, "invalid token"},
	ErrorInvalidTokenOrExpired: {http.StatusUnauthorized, SeverityWarn, "token is invalid or expired"},
	ErrorSlugExists:            {http.StatusConflict, SeverityInfo, "slug already in use"},
	ErrorEmailExists:           {http.StatusConflict, SeverityInfo, "email already in use"},
	ErrorLastAdmin:             {http.StatusConflict, SeverityInfo, "at least one admin is required"},
	ErrorInvalidRequest:        {http.StatusBadRequest, SeverityInfo, "invalid request"},
	ErrorTooManyRequests:       {http.StatusTooManyRequests, SeverityWarn, "too many requests"},
	ErrorPayloadTooLarge:       {http.StatusRequestEntityTooLarge, SeverityWarn, "request body is too large"},
	ErrorServer:                {http.StatusInternalServerError, SeverityError, "something went wrong"},
}

// Error is the typed error carried from services and guards to the error writer,
// Err is logged but never serialized
type Error struct {
	Type       ErrorType
	Message    string
	Status     int
	Severity   Severity
	EntityType string

	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}

	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on the error type so that errors.Is(err, NewError(ErrorForbidden, "")) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Type == e.Type
}

// WithEntity returns a copy tagged with the entity type involved
func (e *Error) WithEntity(entityType string) *Error {
	c := *e
	c.EntityType = entityType
	return &c
}

// Wrap returns a copy carrying the underlying cause
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.Err = err
	return &c
}

// NewError builds an error of the given type, an empty message uses the default one
func NewError(t ErrorType, message string) *Error {
	d, ok := defaults[t]
	if !ok {
		d = defaults[ErrorServer]
	}

	if message == "" {
		message = d.message
	}

	return &Error{
		Type:     t,
		Message:  message,
		Status:   d.status,
		Severity: d.severity,
	}
}

func NotFound(entityType string) *Error {
	if entityType == "" {
		entityType = unknownEntity
	}

	return NewError(ErrorNotFound, entityType+" not found").WithEntity(entityType)
}

func Forbidden(entityType string) *Error {
	return NewError(ErrorForbidden, "").WithEntity(entityType)
}

func Unauthorized() *Error {
	return NewError(ErrorUnauthorized, "")
}

func PayloadTooLarge(limit int64) *Error {
	return NewError(ErrorPayloadTooLarge, fmt.Sprintf("request body exceeds %d bytes", limit))
}

func InvalidRequest(message string) *Error {
	return NewError(ErrorInvalidRequest, message)
}

func ServerError(err error) *Error {
	return NewError(ErrorServer, "").Wrap(err)
}
