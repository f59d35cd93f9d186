package app

import (
	"math/rand"
	"sync"
	"time"

	"quizzify-service/internal/domain"
)

const (
	joinCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	joinCodeLength   = 6
	maxJoinCodeDraws = 32
)

// CodeGenerator draws random join codes.
type CodeGenerator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewCodeGenerator(seed int64) *CodeGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &CodeGenerator{rnd: rand.New(rand.NewSource(seed))}
}

// Draw returns one candidate code; it may collide.
func (g *CodeGenerator) Draw() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	b := make([]byte, joinCodeLength)
	for i := range b {
		b[i] = joinCodeAlphabet[g.rnd.Intn(len(joinCodeAlphabet))]
	}
	return string(b)
}

// Allocate draws until the code is unused by any quiz in existing.
func (g *CodeGenerator) Allocate(existing []domain.Quiz) (string, error) {
	taken := make(map[string]struct{}, len(existing))
	for _, q := range existing {
		taken[domain.NormalizeCode(q.Code)] = struct{}{}
	}
	for i := 0; i < maxJoinCodeDraws; i++ {
		code := g.Draw()
		if _, ok := taken[code]; !ok {
			return code, nil
		}
	}
	return "", domain.ErrCodeExhausted
}

// ValidJoinCode reports whether code has the join code shape, ignoring case.
func ValidJoinCode(code string) bool {
	if len(code) != joinCodeLength {
		return false
	}
	for _, r := range domain.NormalizeCode(code) {
		if !(r >= 'A' && r <= 'Z') && !(r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
