package services

import (
	"context"

	"timekeeper/internal/models"
)

// Stats is the admin overview. Paid grants and admin overrides are counted
// apart.
type Stats struct {
	Users         int `json:"users"`
	PaidPremium   int `json:"paidPremium"`
	AdminOverride int `json:"adminOverride"`
	Events        int `json:"events"`
	ExpiredEvents int `json:"expiredEvents"`
}

type StatsServiceInterface interface {
	Stats(ctx context.Context) (Stats, error)
}

type StatsService struct {
	users  UserServiceInterface
	events EventServiceInterface
}

func NewStatsService(users UserServiceInterface, events EventServiceInterface) StatsServiceInterface {
	return &StatsService{users: users, events: events}
}

func (ss *StatsService) Stats(ctx context.Context) (Stats, error) {
	users, err := ss.users.GetUsers(ctx)
	if err != nil {
		return Stats{}, err
	}
	all, err := ss.events.ListEvents(ctx, "")
	if err != nil {
		return Stats{}, err
	}
	expired, err := ss.events.ListExpiredEvents(ctx)
	if err != nil {
		return Stats{}, err
	}

	st := Stats{
		Users:         len(users),
		Events:        len(all),
		ExpiredEvents: len(expired),
	}
	for _, u := range users {
		switch u.Premium.Kind() {
		case models.PremiumGranted:
			st.PaidPremium++
		case models.PremiumAdminOverride:
			st.AdminOverride++
		case models.PremiumNone:
		}
	}
	return st, nil
}
