package app

import (
	"context"
	"testing"

	"quizzify-service/internal/domain"
)

func TestApplyProgressionCrossesLevel(t *testing.T) {
	user := domain.User{ID: "u1", XP: 480, Level: 1, Streak: 2}
	got := ApplyProgression(user, 5)
	if got.XP != 530 || got.Level != 2 || got.Streak != 3 {
		t.Fatalf("expected xp 530 level 2 streak 3, got %+v", got)
	}
}

func TestApplyProgressionZeroScore(t *testing.T) {
	got := ApplyProgression(domain.User{XP: 120, Level: 1}, 0)
	if got.XP != 120 || got.Level != 1 || got.Streak != 1 {
		t.Fatalf("a zero score still counts toward the streak, got %+v", got)
	}
}

func TestLevelForXP(t *testing.T) {
	cases := map[int]int{0: 1, 499: 1, 500: 2, 999: 2, 1000: 3}
	for xp, want := range cases {
		if got := LevelForXP(xp); got != want {
			t.Fatalf("xp %d: expected level %d, got %d", xp, want, got)
		}
	}
}

type userBox struct {
	user  domain.User
	saves int
}

func (b *userBox) UpdateUser(_ context.Context, mutate func(domain.User) domain.User) (domain.User, error) {
	b.user = mutate(b.user)
	b.saves++
	return b.user, nil
}

func TestProgressionUpdaterPersists(t *testing.T) {
	box := &userBox{user: domain.User{ID: "u1", Level: 1}}
	got, err := NewProgressionUpdater(box).Apply(context.Background(), domain.QuizAttempt{Score: 3})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if box.saves != 1 || box.user.XP != 30 || got.XP != 30 {
		t.Fatalf("expected one save with xp 30, got saves=%d user=%+v", box.saves, box.user)
	}
}
