// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package mail

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const (
	TemplateVerifyEmail   = "verify_email.html"
	TemplatePasswordReset = "password_reset.html"
	TemplateInvitation    = "invitation.html"
)

// TemplateData is what every template can reference
type TemplateData struct {
	Name         string
	Link         string
	Organization string
	Inviter      string
	Role         string
}

func Render(name string, data TemplateData) (string, error) {
	var b bytes.Buffer

	if err := templates.ExecuteTemplate(&b, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}

	return b.String(), nil
}
