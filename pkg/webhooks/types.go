// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package webhooks

import (
	"github.com/canonical/workspace-service/internal/types"
)

// Identity is the identity document posted by the identity provider after a registration
type Identity struct {
	ID     string         `json:"id"`
	Traits IdentityTraits `json:"traits"`
}

type IdentityTraits struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"omitempty,max=255"`
}

// Registration is the outcome of provisioning an identity
type Registration struct {
	User         *types.User   `json:"user"`
	Organization *types.Entity `json:"organization,omitempty"`
	Created      bool          `json:"created"`
}
