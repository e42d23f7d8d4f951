package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"timekeeper/internal/models"
	"timekeeper/internal/storage"
)

// PresetDeleteResult distinguishes "user has no presets at all" from
// "tag not found" and a successful removal.
type PresetDeleteResult int

const (
	PresetsAbsent PresetDeleteResult = iota
	PresetNotFound
	PresetDeleted
)

type UserServiceInterface interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUsers(ctx context.Context) ([]models.User, error)
	GetPresets(ctx context.Context, userID string) ([]models.Preset, error)
	GetPreset(ctx context.Context, userID, tag string) (*models.Preset, error)
	InsertPreset(ctx context.Context, userID string, preset models.Preset) error
	DeletePreset(ctx context.Context, userID, tag string) (PresetDeleteResult, error)
	SetUserTimezone(ctx context.Context, userID, timezone string) error
	SetPremiumUser(ctx context.Context, userID string, grant models.PremiumStatus, preventOverwrite bool) (bool, error)
	IsUserPremium(ctx context.Context, userID string) (bool, error)
}

type UserService struct {
	repo storage.UserRepository
}

func NewUserService(repo storage.Store) UserServiceInterface {
	return &UserService{repo: repo}
}

func (us *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := us.repo.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return user, nil
}

func (us *UserService) GetUsers(ctx context.Context) ([]models.User, error) {
	users, err := us.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

func (us *UserService) GetPresets(ctx context.Context, userID string) ([]models.Preset, error) {
	user, err := us.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Presets == nil {
		return []models.Preset{}, nil
	}
	return user.Presets, nil
}

func (us *UserService) GetPreset(ctx context.Context, userID, tag string) (*models.Preset, error) {
	user, err := us.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, _ := user.FindPreset(tag)
	return p, nil
}

// InsertPreset appends a preset. Tag uniqueness is enforced by the store in
// the same statement as the write.
func (us *UserService) InsertPreset(ctx context.Context, userID string, preset models.Preset) error {
	if strings.TrimSpace(preset.Tag) == "" {
		return models.NewValidationError("preset tag is required")
	}
	err := us.repo.InsertPreset(ctx, userID, preset)
	if errors.Is(err, storage.ErrDuplicate) {
		return models.ErrPresetExists
	}
	if err != nil {
		return fmt.Errorf("insert preset: %w", err)
	}
	return nil
}

func (us *UserService) DeletePreset(ctx context.Context, userID, tag string) (PresetDeleteResult, error) {
	user, err := us.GetUser(ctx, userID)
	if err != nil {
		return PresetsAbsent, err
	}
	if user == nil {
		return PresetsAbsent, nil
	}
	ok, err := us.repo.DeletePreset(ctx, userID, tag)
	if err != nil {
		return PresetsAbsent, fmt.Errorf("delete preset: %w", err)
	}
	if !ok {
		return PresetNotFound, nil
	}
	return PresetDeleted, nil
}

func (us *UserService) SetUserTimezone(ctx context.Context, userID, timezone string) error {
	if _, err := LoadZone(timezone); err != nil {
		return err
	}
	if err := us.repo.SetTimezone(ctx, userID, timezone); err != nil {
		return fmt.Errorf("set timezone: %w", err)
	}
	return nil
}

// SetPremiumUser applies grant to the user. A missing user is only created
// for a positive grant; with preventOverwrite an existing grant is kept and
// false is returned.
func (us *UserService) SetPremiumUser(ctx context.Context, userID string, grant models.PremiumStatus, preventOverwrite bool) (bool, error) {
	user, err := us.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}

	switch {
	case user == nil && !grant.Active():
		return true, nil
	case user != nil && preventOverwrite && user.Premium.Active():
		return false, nil
	}

	if err := us.repo.SetPremium(ctx, userID, grant); err != nil {
		return false, fmt.Errorf("set premium: %w", err)
	}
	return true, nil
}

func (us *UserService) IsUserPremium(ctx context.Context, userID string) (bool, error) {
	user, err := us.GetUser(ctx, userID)
	if err != nil {
		return false, err
	}
	return user.IsPremium(), nil
}

// LoadZone resolves an IANA zone name, rejecting the empty and "Local"
// names that time.LoadLocation would otherwise accept.
func LoadZone(name string) (*time.Location, error) {
	if name == "" || name == "Local" {
		return nil, models.ErrInvalidTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, models.ErrInvalidTimezone
	}
	return loc, nil
}
