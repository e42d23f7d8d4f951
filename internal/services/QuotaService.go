package services

import (
	"context"

	"timekeeper/internal/structures"
)

type QuotaServiceInterface interface {
	// RemainingQuota is how many more events userID may schedule.
	RemainingQuota(ctx context.Context, userID string) (int, error)
}

type QuotaService struct {
	conf   structures.QuotaConfig
	events EventServiceInterface
	users  UserServiceInterface
}

func NewQuotaService(conf *structures.Config, events EventServiceInterface, users UserServiceInterface) QuotaServiceInterface {
	return &QuotaService{conf: conf.Quota, events: events, users: users}
}

func (qs *QuotaService) RemainingQuota(ctx context.Context, userID string) (int, error) {
	premium, err := qs.users.IsUserPremium(ctx, userID)
	if err != nil {
		return 0, err
	}
	limit := qs.conf.FreeEvents
	if premium {
		limit = qs.conf.PremiumEvents
	}

	active, err := qs.events.CountActiveEvents(ctx, userID)
	if err != nil {
		return 0, err
	}
	return max(limit-active, 0), nil
}
