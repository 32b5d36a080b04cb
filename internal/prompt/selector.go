package prompt

import (
	"math/rand"
	"sync"

	"survey-server/internal/models"
)

// VariantSelector выбирает случайный вариант промпта для каждого запроса.
// Случайность управляется сидом из конфигурации, что позволяет получать
// воспроизводимые прогоны в тестах.
type VariantSelector struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewVariantSelector(seed int64) *VariantSelector {
	return &VariantSelector{rng: rand.New(rand.NewSource(seed))}
}

// Pick возвращает билдер промпта для типа профиля персоны.
func (s *VariantSelector) Pick(profileType models.ProfileType) BuilderFunc {
	variants := EmployeeBuilders
	if profileType == models.ProfileTypeProduct {
		variants = ProductBuilders
	}
	s.mu.Lock()
	idx := s.rng.Intn(len(variants))
	s.mu.Unlock()
	return variants[idx]
}
