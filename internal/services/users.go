package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"mosques/internal/auth"
	"mosques/internal/core"
	applog "mosques/internal/log"
	"mosques/internal/metrics"
	ports "mosques/internal/sheets"
)

var ErrEmptyPassword = errors.New("empty password")

type UserService struct {
	store   ports.UserStore
	tokens  *auth.Issuer
	metrics *metrics.Metrics
}

func NewUserService(store ports.UserStore, tokens *auth.Issuer, m *metrics.Metrics) *UserService {
	return &UserService{store: store, tokens: tokens, metrics: m}
}

// Session is the result of a successful login.
type Session struct {
	Token string
	User  core.User
}

func (s *UserService) find(ctx context.Context, nationalID string) (core.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return core.User{}, fmt.Errorf("list users: %w", err)
	}
	for _, u := range users {
		if u.NationalID == nationalID {
			return u, nil
		}
	}
	return core.User{}, core.ErrNotFound
}

// Login checks credentials and issues a token. Unknown users and wrong
// passwords both yield core.ErrInvalidCredentials. A legacy plaintext
// password is replaced by its hash after a successful login.
func (s *UserService) Login(ctx context.Context, nationalID, password string) (Session, error) {
	nationalID = strings.TrimSpace(nationalID)
	u, err := s.find(ctx, nationalID)
	if errors.Is(err, core.ErrNotFound) || (err == nil && !auth.CheckPassword(password, u.Password)) {
		s.metrics.ObserveLogin(false)
		slog.InfoContext(ctx, "Login rejected",
			applog.FieldComponent, applog.ComponentAuth, applog.FieldNationalID, nationalID)
		return Session{}, core.ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}

	token, err := s.tokens.Issue(u)
	if err != nil {
		return Session{}, err
	}
	s.metrics.ObserveLogin(true)

	if !auth.IsHashed(u.Password) {
		s.upgradePassword(ctx, u.NationalID, password)
	}
	u.Password = ""
	return Session{Token: token, User: u}, nil
}

func (s *UserService) upgradePassword(ctx context.Context, nationalID, password string) {
	hash, err := auth.HashPassword(password)
	if err == nil {
		err = s.store.UpdatePassword(ctx, nationalID, hash)
	}
	if err != nil {
		slog.WarnContext(ctx, "Failed to rehash legacy password",
			applog.FieldComponent, applog.ComponentAuth, applog.FieldNationalID, nationalID, applog.FieldError, err)
	}
}

// ChangePassword lets callerID change their own password.
func (s *UserService) ChangePassword(ctx context.Context, callerID, nationalID, oldPassword, newPassword string) error {
	if callerID != nationalID {
		return core.ErrForbidden
	}
	if strings.TrimSpace(newPassword) == "" {
		return ErrEmptyPassword
	}
	u, err := s.find(ctx, nationalID)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(oldPassword, u.Password) {
		return core.ErrInvalidCredentials
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdatePassword(ctx, nationalID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	slog.InfoContext(ctx, "Password changed",
		applog.FieldComponent, applog.ComponentUsers, applog.FieldNationalID, nationalID)
	return nil
}

// AddUser creates an account whose initial password is the national ID.
func (s *UserService) AddUser(ctx context.Context, u core.User) (core.User, error) {
	u.NationalID = strings.TrimSpace(u.NationalID)
	u.Name = strings.TrimSpace(u.Name)
	u.Mosque = strings.TrimSpace(u.Mosque)
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	hash, err := auth.HashPassword(u.NationalID)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}
	u.Password = hash
	if err := s.store.AddUser(ctx, u); err != nil {
		return core.User{}, fmt.Errorf("add user: %w", err)
	}
	slog.InfoContext(ctx, "User added",
		applog.FieldComponent, applog.ComponentUsers,
		applog.FieldNationalID, u.NationalID, applog.FieldRole, u.Role)
	u.Password = ""
	return u, nil
}

// ListUsers returns every user without passwords.
func (s *UserService) ListUsers(ctx context.Context) ([]core.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	for i := range users {
		users[i].Password = ""
	}
	return users, nil
}
