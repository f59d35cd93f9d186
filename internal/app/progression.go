package app

import (
	"context"
	"fmt"

	"quizzify-service/internal/domain"
)

const (
	xpPerMark   = 10
	xpPerLevel  = 500
	streakBonus = 1
)

// LevelForXP derives the level from total xp.
func LevelForXP(xp int) int {
	return xp/xpPerLevel + 1
}

// ApplyProgression returns the profile after one completed attempt. The
// streak grows on every attempt; it is not calendar aware.
func ApplyProgression(user domain.User, score int) domain.User {
	user.XP += score * xpPerMark
	user.Level = LevelForXP(user.XP)
	user.Streak += streakBonus
	return user
}

// ProgressionUpdater applies gamification rules to the stored profile.
type ProgressionUpdater struct {
	users UserStore
}

func NewProgressionUpdater(users UserStore) *ProgressionUpdater {
	return &ProgressionUpdater{users: users}
}

// Apply is called once per saved attempt and is never retried.
func (p *ProgressionUpdater) Apply(ctx context.Context, attempt domain.QuizAttempt) (domain.User, error) {
	user, err := p.users.UpdateUser(ctx, func(user domain.User) domain.User {
		return ApplyProgression(user, attempt.Score)
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}
