package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mswierczewski/socialwall/internal/domain"
	"github.com/mswierczewski/socialwall/internal/repository"
	"github.com/mswierczewski/socialwall/internal/storage"
)

func TestEditProfileReplacesFields(t *testing.T) {
	svc, users := newUserServiceForTest(t)
	seedUser(t, users, "u1", "alice")

	birthDate := time.Date(1990, 4, 12, 0, 0, 0, 0, time.UTC)
	info, err := svc.EditProfile(context.Background(), "u1", EditProfileInput{
		Username:    "alice-renamed",
		FirstName:   "Alice",
		LastName:    "Cooper",
		BirthDate:   &birthDate,
		City:        "Warsaw",
		Country:     "Poland",
		Description: "hello there",
	})
	if err != nil {
		t.Fatalf("edit profile: %v", err)
	}
	if info.Username != "alice-renamed" || info.FirstName != "Alice" || info.LastName != "Cooper" {
		t.Fatalf("unexpected identity fields %+v", info)
	}
	if info.City != "Warsaw" || info.Country != "Poland" || info.Description != "hello there" {
		t.Fatalf("unexpected profile fields %+v", info)
	}
	if info.BirthDate == nil || !info.BirthDate.Equal(birthDate) {
		t.Fatalf("unexpected birth date %v", info.BirthDate)
	}

	// Changes must be visible through a fresh read, not just the response.
	again, err := svc.Info(context.Background(), "u1")
	if err != nil {
		t.Fatalf("info after edit: %v", err)
	}
	if again.Username != "alice-renamed" || again.City != "Warsaw" {
		t.Fatalf("edit did not persist: %+v", again)
	}
}

func TestEditProfileClearsOmittedFields(t *testing.T) {
	svc, users := newUserServiceForTest(t)
	seedUser(t, users, "u1", "alice")

	if _, err := svc.EditProfile(context.Background(), "u1", EditProfileInput{
		Username: "alice", FirstName: "Alice", LastName: "Smith",
		City: "Berlin", Description: "temp",
	}); err != nil {
		t.Fatalf("first edit: %v", err)
	}

	info, err := svc.EditProfile(context.Background(), "u1", EditProfileInput{
		Username: "alice", FirstName: "Alice", LastName: "Smith",
	})
	if err != nil {
		t.Fatalf("second edit: %v", err)
	}
	if info.City != "" || info.Description != "" || info.BirthDate != nil {
		t.Fatalf("optional fields must be cleared, got %+v", info)
	}
}

func TestEditProfileRejectsTakenUsername(t *testing.T) {
	svc, users := newUserServiceForTest(t)
	seedUser(t, users, "u1", "alice")
	seedUser(t, users, "u2", "bob")

	_, err := svc.EditProfile(context.Background(), "u1", EditProfileInput{
		Username: "bob", FirstName: "Alice", LastName: "Smith",
	})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	// Keeping the current username is not a conflict with oneself.
	if _, err := svc.EditProfile(context.Background(), "u1", EditProfileInput{
		Username: "alice", FirstName: "Alice", LastName: "Smith",
	}); err != nil {
		t.Fatalf("edit with own username: %v", err)
	}
}

func TestEditProfileRejectsUnknownUser(t *testing.T) {
	svc, _ := newUserServiceForTest(t)

	_, err := svc.EditProfile(context.Background(), "missing", EditProfileInput{
		Username: "ghost", FirstName: "G", LastName: "Host",
	})
	if !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func newUserServiceForTest(t *testing.T) (*UserService, repository.UserRepository) {
	t.Helper()
	db := newServiceTestDB(t)
	users := repository.NewUserRepository(db)
	files, err := storage.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("storage: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewUserService(users, files, log), users
}

func seedUser(t *testing.T, users repository.UserRepository, id, username string) {
	t.Helper()
	err := users.Create(&domain.User{
		ID:       id,
		Username: username,
		Email:    username + "@example.com",
		Enabled:  true,
		Roles:    []domain.UserRole{{UserID: id, Role: domain.RoleUser}},
		Profile:  domain.Profile{UserID: id, FirstName: "First", LastName: "Last"},
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
}
