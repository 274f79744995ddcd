// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package mail

import (
	"context"
)

type SenderInterface interface {
	Send(ctx context.Context, to, subject, html string) error
}
