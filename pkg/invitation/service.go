// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package invitation

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/canonical/workspace-service/internal/db"
	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	domain "github.com/canonical/workspace-service/internal/types"
	"github.com/canonical/workspace-service/pkg/authentication"
	"github.com/canonical/workspace-service/pkg/events"
	"github.com/canonical/workspace-service/pkg/mail"
)

type Config struct {
	VerificationLifetime time.Duration
	InvitationLifetime   time.Duration
	PublicURL            string
}

// AcceptInput carries the account details of an invitee without an account
type AcceptInput struct {
	Name     string
	Password string
}

type Acceptance struct {
	User       *domain.User       `json:"user"`
	Membership *domain.Membership `json:"membership"`
	NewUser    bool               `json:"newUser"`
}

type InviteResult struct {
	Invited []string `json:"invited"`

	// Skipped lists the emails of users already member of the organization
	Skipped []string `json:"skipped"`
}

// TokenInfo is what the frontend needs to render a token landing page
type TokenInfo struct {
	Type             domain.TokenType `json:"type"`
	Email            string           `json:"email"`
	Role             *domain.Role     `json:"role,omitempty"`
	OrganizationID   *string          `json:"organizationId,omitempty"`
	OrganizationName string           `json:"organizationName,omitempty"`
	OrganizationSlug string           `json:"organizationSlug,omitempty"`
	UserExists       bool             `json:"userExists"`
	ExpiresAt        time.Time        `json:"expiresAt"`
}

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	cfg      Config
	storage  StorageInterface
	tx       TxInterface
	resolver ResolverInterface
	mailer   mail.SenderInterface
	notifier events.NotifierInterface
	now      func() time.Time

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

func newTokenID() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// issue drops any live token for the same purpose and target before creating the new one
func (s *Service) issue(ctx context.Context, t *domain.Token, lifetime time.Duration) (*domain.Token, error) {
	if _, err := s.storage.DeleteTokensFor(ctx, t.Type, t.UserID, t.Email, t.OrganizationID); err != nil {
		return nil, err
	}

	id, err := newTokenID()
	if err != nil {
		return nil, err
	}

	t.ID = id
	t.ExpiresAt = s.now().Add(lifetime)

	return s.storage.CreateToken(ctx, t)
}

// consume loads a live token of the given type, an expired one is deleted right away and
// rejected
func (s *Service) consume(ctx context.Context, tokenID string, tokenType domain.TokenType) (*domain.Token, error) {
	token, err := s.storage.GetToken(ctx, tokenID)

	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.logger.Security().AuthnTokenInvalid(string(tokenType))
		return nil, types.NewError(types.ErrorInvalidToken, "")
	case err != nil:
		return nil, err
	}

	if token.Type != tokenType {
		s.logger.Security().AuthnTokenInvalid(string(tokenType))
		return nil, types.NewError(types.ErrorInvalidToken, "")
	}

	if token.Expired(s.now()) {
		// the caller's transaction rolls back on the denial, the delete must not go with it
		if err := s.storage.DeleteToken(db.WithoutTx(ctx), token.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			s.logger.Errorf("failed to delete expired token: %v", err)
		}

		return nil, types.NewError(types.ErrorInvalidTokenOrExpired, "")
	}

	return token, nil
}

// deliver sends the mail once the surrounding transaction committed, failures are logged
func (s *Service) deliver(ctx context.Context, to, subject, template string, data mail.TemplateData) {
	ctx = context.WithoutCancel(ctx)

	db.AfterCommit(ctx, func() {
		html, err := mail.Render(template, data)
		if err != nil {
			s.logger.Error(err)
			return
		}

		if err := s.mailer.Send(ctx, to, subject, html); err != nil {
			s.logger.Errorf("failed to send %s to %s: %v", template, to, err)
		}
	})
}

func (s *Service) link(path, token string) string {
	return strings.TrimRight(s.cfg.PublicURL, "/") + path + token
}

func (s *Service) IssueEmailVerification(ctx context.Context, user *domain.User) error {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.IssueEmailVerification")
	defer span.End()

	token, err := s.issue(ctx, &domain.Token{
		Type:   domain.TokenTypeEmailVerification,
		Email:  user.Email,
		UserID: &user.ID,
	}, s.cfg.VerificationLifetime)

	if err != nil {
		return err
	}

	s.deliver(ctx, user.Email, "Verify your email address", mail.TemplateVerifyEmail, mail.TemplateData{
		Name: user.Name,
		Link: s.link("/auth/verify-email/", token.ID),
	})

	return nil
}

// Invite issues one invitation per email, users already member of the organization
// are skipped
func (s *Service) Invite(ctx context.Context, inviter *domain.User, organization *domain.Entity, emails []string, role domain.Role) (*InviteResult, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.Invite")
	defer span.End()

	if !role.Valid() {
		return nil, types.InvalidRequest(fmt.Sprintf("invalid role %q", role))
	}

	ref := entities.ContextRef{Type: entities.Organization, ID: organization.ID}
	result := &InviteResult{Invited: []string{}, Skipped: []string{}}

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		seen := make(map[string]struct{}, len(emails))

		for _, raw := range emails {
			email := strings.ToLower(strings.TrimSpace(raw))
			if _, ok := seen[email]; ok {
				continue
			}
			seen[email] = struct{}{}

			var userID *string

			user, err := s.storage.GetUserByEmail(ctx, email)

			switch {
			case errors.Is(err, storage.ErrNotFound):
			case err != nil:
				return err
			default:
				userID = &user.ID

				_, err := s.storage.FindMembership(ctx, user.ID, ref)
				if err == nil {
					result.Skipped = append(result.Skipped, email)
					continue
				}

				if !errors.Is(err, storage.ErrNotFound) {
					return err
				}
			}

			r := role
			token, err := s.issue(ctx, &domain.Token{
				Type:           domain.TokenTypeInvitation,
				Email:          email,
				UserID:         userID,
				OrganizationID: &organization.ID,
				Role:           &r,
				CreatedBy:      &inviter.ID,
			}, s.cfg.InvitationLifetime)

			if err != nil {
				return err
			}

			s.deliver(ctx, email, fmt.Sprintf("Invitation to join %s", organization.Name), mail.TemplateInvitation, mail.TemplateData{
				Link:         s.link("/invitation/", token.ID),
				Organization: organization.Name,
				Inviter:      inviter.Name,
				Role:         string(role),
			})

			result.Invited = append(result.Invited, email)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	s.logger.Security().AdminAction(inviter.ID, "invite", fmt.Sprintf("organization:%s", organization.ID))

	return result, nil
}

func (s *Service) Check(ctx context.Context, tokenID string, tokenType domain.TokenType) (*TokenInfo, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.Check")
	defer span.End()

	token, err := s.consume(ctx, tokenID, tokenType)
	if err != nil {
		return nil, err
	}

	info := &TokenInfo{
		Type:           token.Type,
		Email:          token.Email,
		Role:           token.Role,
		OrganizationID: token.OrganizationID,
		ExpiresAt:      token.ExpiresAt,
	}

	if token.OrganizationID != nil {
		org, err := s.resolver.Resolve(ctx, entities.Organization, *token.OrganizationID)
		if err != nil {
			return nil, err
		}

		info.OrganizationName = org.Name
		info.OrganizationSlug = org.Slug
	}

	_, err = s.storage.GetUserByEmail(ctx, token.Email)

	switch {
	case err == nil:
		info.UserExists = true
	case !errors.Is(err, storage.ErrNotFound):
		return nil, err
	}

	return info, nil
}

// Accept consumes an invitation. User creation, membership creation and token deletion
// commit together.
func (s *Service) Accept(ctx context.Context, tokenID string, in AcceptInput, caller *domain.User) (*Acceptance, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.Accept")
	defer span.End()

	var result *Acceptance

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		token, err := s.consume(ctx, tokenID, domain.TokenTypeInvitation)
		if err != nil {
			return err
		}

		if token.OrganizationID == nil || token.Role == nil {
			return types.NewError(types.ErrorInvalidToken, "")
		}

		user, created, err := s.invitee(ctx, token, in, caller)
		if err != nil {
			return err
		}

		ref := entities.ContextRef{Type: entities.Organization, ID: *token.OrganizationID}

		m, inserted, err := s.storage.CreateMembership(ctx, &domain.Membership{
			UserID:         user.ID,
			Type:           string(entities.Organization),
			OrganizationID: *token.OrganizationID,
			Role:           *token.Role,
			CreatedBy:      token.CreatedBy,
		})

		if err != nil {
			return err
		}

		if !inserted && m.Role != *token.Role {
			if m, err = s.storage.UpdateMembership(ctx, user.ID, ref, domain.MembershipPatch{Role: token.Role}, user.ID); err != nil {
				return err
			}
		}

		if err := s.storage.DeleteToken(ctx, token.ID); err != nil {
			return err
		}

		members, err := s.storage.ListMemberUserIDs(ctx, ref)
		if err != nil {
			return err
		}

		db.AfterCommit(ctx, func() {
			s.notifier.SendToUsers(ctx, members, events.NewMembership(entities.Organization), m)
		})

		result = &Acceptance{User: user, Membership: m, NewUser: created}

		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}

// invitee returns the account accepting the token, creating it when the email is unknown
func (s *Service) invitee(ctx context.Context, token *domain.Token, in AcceptInput, caller *domain.User) (*domain.User, bool, error) {
	if caller != nil && !strings.EqualFold(caller.Email, token.Email) {
		return nil, false, types.Forbidden(string(entities.User)).Wrap(errors.New("invitation addressed to another email"))
	}

	user, err := s.storage.GetUserByEmail(ctx, token.Email)

	switch {
	case err == nil:
		if !user.EmailVerified {
			if err := s.storage.MarkEmailVerified(ctx, user.ID); err != nil {
				return nil, false, err
			}
			user.EmailVerified = true
		}

		return user, false, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, false, err
	}

	if in.Password == "" || in.Name == "" {
		return nil, false, types.InvalidRequest("name and password are required to create an account")
	}

	hash, err := authentication.HashPassword(in.Password)
	if err != nil {
		return nil, false, err
	}

	user, err = s.storage.CreateUser(ctx, &domain.User{
		Slug:           authentication.UserSlug(token.Email),
		Email:          token.Email,
		Name:           in.Name,
		Role:           domain.SystemRoleUser,
		HashedPassword: &hash,
		EmailVerified:  true,
	})

	if errors.Is(err, storage.ErrDuplicateKey) {
		return nil, false, types.NewError(types.ErrorEmailExists, "").WithEntity(string(entities.User))
	}

	if err != nil {
		return nil, false, err
	}

	return user, true, nil
}

// Reject deletes the invitation, no membership is ever created for it
func (s *Service) Reject(ctx context.Context, tokenID string) error {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.Reject")
	defer span.End()

	token, err := s.consume(ctx, tokenID, domain.TokenTypeInvitation)
	if err != nil {
		return err
	}

	return s.storage.DeleteToken(ctx, token.ID)
}

// Resend replaces the token with a fresh one, expired tokens can be resent
func (s *Service) Resend(ctx context.Context, tokenID string) error {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.Resend")
	defer span.End()

	old, err := s.storage.GetToken(ctx, tokenID)

	switch {
	case errors.Is(err, storage.ErrNotFound):
		return types.NewError(types.ErrorInvalidToken, "")
	case err != nil:
		return err
	}

	if old.Email == "" {
		return types.NewError(types.ErrorInvalidToken, "")
	}

	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		switch old.Type {
		case domain.TokenTypeEmailVerification:
			if old.UserID == nil {
				return types.NewError(types.ErrorInvalidToken, "")
			}

			user, err := s.storage.GetUserByID(ctx, *old.UserID)
			if err != nil {
				return err
			}

			return s.IssueEmailVerification(ctx, user)
		case domain.TokenTypePasswordReset:
			user, err := s.storage.GetUserByEmail(ctx, old.Email)
			if err != nil {
				return err
			}

			return s.issuePasswordReset(ctx, user)
		case domain.TokenTypeInvitation:
			if old.OrganizationID == nil || old.Role == nil {
				return types.NewError(types.ErrorInvalidToken, "")
			}

			org, err := s.resolver.Resolve(ctx, entities.Organization, *old.OrganizationID)
			if err != nil {
				return err
			}

			token, err := s.issue(ctx, &domain.Token{
				Type:           old.Type,
				Email:          old.Email,
				UserID:         old.UserID,
				OrganizationID: old.OrganizationID,
				Role:           old.Role,
				CreatedBy:      old.CreatedBy,
			}, s.cfg.InvitationLifetime)

			if err != nil {
				return err
			}

			s.deliver(ctx, old.Email, fmt.Sprintf("Invitation to join %s", org.Name), mail.TemplateInvitation, mail.TemplateData{
				Link:         s.link("/invitation/", token.ID),
				Organization: org.Name,
				Role:         string(*old.Role),
			})

			return nil
		default:
			return types.NewError(types.ErrorInvalidToken, "")
		}
	})
}

func (s *Service) VerifyEmail(ctx context.Context, tokenID string) error {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.VerifyEmail")
	defer span.End()

	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		token, err := s.consume(ctx, tokenID, domain.TokenTypeEmailVerification)
		if err != nil {
			return err
		}

		if token.UserID == nil {
			return types.NewError(types.ErrorInvalidToken, "")
		}

		if err := s.storage.MarkEmailVerified(ctx, *token.UserID); err != nil {
			return err
		}

		return s.storage.DeleteToken(ctx, token.ID)
	})
}

// RequestPasswordReset answers the same for known and unknown emails
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.RequestPasswordReset")
	defer span.End()

	user, err := s.storage.GetUserByEmail(ctx, email)

	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.logger.Debugf("password reset requested for unknown email")
		return nil
	case err != nil:
		return err
	}

	return s.issuePasswordReset(ctx, user)
}

func (s *Service) issuePasswordReset(ctx context.Context, user *domain.User) error {
	token, err := s.issue(ctx, &domain.Token{
		Type:   domain.TokenTypePasswordReset,
		Email:  user.Email,
		UserID: &user.ID,
	}, s.cfg.VerificationLifetime)

	if err != nil {
		return err
	}

	s.deliver(ctx, user.Email, "Reset your password", mail.TemplatePasswordReset, mail.TemplateData{
		Name: user.Name,
		Link: s.link("/auth/reset-password/", token.ID),
	})

	return nil
}

// ResetPassword also verifies the email, the reset link proved ownership of the inbox
func (s *Service) ResetPassword(ctx context.Context, tokenID, password string) error {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.ResetPassword")
	defer span.End()

	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		token, err := s.consume(ctx, tokenID, domain.TokenTypePasswordReset)
		if err != nil {
			return err
		}

		if token.UserID == nil {
			return types.NewError(types.ErrorInvalidToken, "")
		}

		hash, err := authentication.HashPassword(password)
		if err != nil {
			return err
		}

		if err := s.storage.UpdateUserPassword(ctx, *token.UserID, hash); err != nil {
			return err
		}

		if err := s.storage.MarkEmailVerified(ctx, *token.UserID); err != nil {
			return err
		}

		return s.storage.DeleteToken(ctx, token.ID)
	})
}

// PurgeExpired deletes expired tokens and sessions, returning how many of each went away
func (s *Service) PurgeExpired(ctx context.Context) (int64, int64, error) {
	ctx, span := s.tracer.Start(ctx, "invitation.Service.PurgeExpired")
	defer span.End()

	now := s.now()

	tokens, err := s.storage.DeleteExpiredTokens(ctx, now)
	if err != nil {
		return 0, 0, err
	}

	sessions, err := s.storage.DeleteExpiredSessions(ctx, now)
	if err != nil {
		return tokens, 0, err
	}

	return tokens, sessions, nil
}

func NewService(
	cfg Config,
	s StorageInterface,
	tx TxInterface,
	r ResolverInterface,
	mailer mail.SenderInterface,
	notifier events.NotifierInterface,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	svc := new(Service)

	svc.cfg = cfg
	svc.storage = s
	svc.tx = tx
	svc.resolver = r
	svc.mailer = mailer
	svc.notifier = notifier
	svc.now = time.Now

	svc.tracer = tracer
	svc.monitor = monitor
	svc.logger = logger

	return svc
}
