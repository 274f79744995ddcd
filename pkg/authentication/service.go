// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package authentication

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/canonical/workspace-service/internal/entities"
	"github.com/canonical/workspace-service/internal/http/types"
	"github.com/canonical/workspace-service/internal/logging"
	"github.com/canonical/workspace-service/internal/monitoring"
	"github.com/canonical/workspace-service/internal/storage"
	"github.com/canonical/workspace-service/internal/tracing"
	domain "github.com/canonical/workspace-service/internal/types"
)

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Profile is the current user with every membership they hold
type Profile struct {
	User        *domain.User         `json:"user"`
	Memberships []*domain.Membership `json:"memberships"`
}

// MenuItem is one context entity the user belongs to
type MenuItem struct {
	Entity     *domain.Entity     `json:"entity"`
	Membership *domain.Membership `json:"membership"`
}

// Menu groups the user's contexts by type, each list follows the membership order
type Menu map[entities.Type][]MenuItem

var _ ServiceInterface = (*Service)(nil)

type Service struct {
	storage  StorageInterface
	sessions SessionValidatorInterface
	tokens   TokenIssuerInterface
	resolver ResolverInterface
	registry *entities.Registry

	tracer  tracing.TracingInterface
	monitor monitoring.MonitorInterface
	logger  logging.LoggerInterface
}

// HashPassword is shared with the token flows that set a password
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

// UserSlug derives a readable unique slug from an email address
func UserSlug(email string) string {
	local := strings.ToLower(strings.SplitN(email, "@", 2)[0])
	local = strings.Trim(slugUnsafe.ReplaceAllString(local, "-"), "-")

	if local == "" {
		local = "user"
	}

	suffix := make([]byte, 3)
	_, _ = rand.Read(suffix)

	return local + "-" + hex.EncodeToString(suffix)
}

func (s *Service) SignUp(ctx context.Context, email, password, name string) (*domain.User, error) {
	ctx, span := s.tracer.Start(ctx, "authentication.Service.SignUp")
	defer span.End()

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user, err := s.storage.CreateUser(ctx, &domain.User{
		Slug:           UserSlug(email),
		Email:          email,
		Name:           name,
		Role:           domain.SystemRoleUser,
		HashedPassword: &hash,
	})

	if errors.Is(err, storage.ErrDuplicateKey) {
		return nil, types.NewError(types.ErrorEmailExists, "").WithEntity(string(entities.User))
	}

	if err != nil {
		return nil, err
	}

	if err := s.tokens.IssueEmailVerification(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// SignIn answers the same error for an unknown email and a wrong password
func (s *Service) SignIn(ctx context.Context, email, password string) (string, *domain.Session, error) {
	ctx, span := s.tracer.Start(ctx, "authentication.Service.SignIn")
	defer span.End()

	invalid := types.NewError(types.ErrorUnauthorized, "invalid email or password")

	user, err := s.storage.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		s.logger.Security().AuthnLoginFail(email)
		return "", nil, invalid
	}

	if err != nil {
		return "", nil, err
	}

	if user.HashedPassword == nil || bcrypt.CompareHashAndPassword([]byte(*user.HashedPassword), []byte(password)) != nil {
		s.logger.Security().AuthnLoginFail(email)
		return "", nil, invalid
	}

	value, session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return "", nil, err
	}

	if err := s.storage.TouchUser(ctx, user.ID, storage.LastSignInAt); err != nil {
		s.logger.Errorf("failed to record sign in for %s: %v", user.ID, err)
	}

	s.logger.Security().AuthnLoginSuccess(user.ID)

	return value, session, nil
}

func (s *Service) SignOut(ctx context.Context, cookieValue string) error {
	ctx, span := s.tracer.Start(ctx, "authentication.Service.SignOut")
	defer span.End()

	return s.sessions.Invalidate(ctx, cookieValue)
}

// Me is the canonical current user route, the only one bumping lastVisitAt
func (s *Service) Me(ctx context.Context, user *domain.User) (*Profile, error) {
	ctx, span := s.tracer.Start(ctx, "authentication.Service.Me")
	defer span.End()

	if err := s.storage.TouchUser(ctx, user.ID, storage.LastVisitAt); err != nil {
		s.logger.Errorf("failed to record visit for %s: %v", user.ID, err)
	}

	memberships, err := s.storage.ListMembershipsByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	return &Profile{User: user, Memberships: memberships}, nil
}

func (s *Service) Menu(ctx context.Context, user *domain.User) (Menu, error) {
	ctx, span := s.tracer.Start(ctx, "authentication.Service.Menu")
	defer span.End()

	memberships, err := s.storage.ListMembershipsByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	byType := make(map[entities.Type][]*domain.Membership)
	for _, m := range memberships {
		ref, err := entities.ContextRefFromMembership(m)
		if err != nil {
			s.logger.Errorf("skipping membership in menu: %v", err)
			continue
		}
		byType[ref.Type] = append(byType[ref.Type], m)
	}

	menu := make(Menu)

	for _, t := range s.registry.ContextTypes() {
		ms := byType[t]
		menu[t] = []MenuItem{}

		if len(ms) == 0 {
			continue
		}

		ids := make([]string, 0, len(ms))
		for _, m := range ms {
			ids = append(ids, m.ContextID())
		}

		resolved, err := s.resolver.ResolveMany(ctx, t, ids)
		if err != nil {
			return nil, err
		}

		found := make(map[string]*domain.Entity, len(resolved))
		for _, e := range resolved {
			found[e.ID] = e
		}

		for _, m := range ms {
			if e, ok := found[m.ContextID()]; ok {
				menu[t] = append(menu[t], MenuItem{Entity: e, Membership: m})
			}
		}

		sort.SliceStable(menu[t], func(i, j int) bool {
			return menu[t][i].Membership.Order < menu[t][j].Membership.Order
		})
	}

	return menu, nil
}

func NewService(
	s StorageInterface,
	sessions SessionValidatorInterface,
	tokens TokenIssuerInterface,
	resolver ResolverInterface,
	registry *entities.Registry,
	tracer tracing.TracingInterface,
	monitor monitoring.MonitorInterface,
	logger logging.LoggerInterface,
) *Service {
	return &Service{
		storage:  s,
		sessions: sessions,
		tokens:   tokens,
		resolver: resolver,
		registry: registry,
		tracer:   tracer,
		monitor:  monitor,
		logger:   logger,
	}
}
