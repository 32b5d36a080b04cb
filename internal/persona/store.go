package persona

import (
	"fmt"
	"time"

	"survey-server/internal/config"
	"survey-server/internal/models"
	"survey-server/internal/prompt"

	"go.uber.org/zap"
)

// Store хранит загруженные профили персон. После конструирования профили
// неизменяемы: прогоны опросов работают со своими копиями (см. Snapshot),
// поэтому история одного прогона не протекает в следующий.
type Store struct {
	profiles []*models.Profile
	byID     map[string]*models.Profile
	selector *prompt.VariantSelector
	logger   *zap.Logger
}

// NewStore загружает персоны из источника данных, указанного в конфигурации.
func NewStore(cfg *config.Config, logger *zap.Logger) (*Store, error) {
	path := cfg.PersonaDataFile(cfg.DefaultDataSource)
	profiles, err := LoadProfiles(path, cfg.DefaultDataSource)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, fmt.Errorf("%w: файл '%s' не содержит записей", models.ErrPersonaDataNotFound, path)
	}

	byID := make(map[string]*models.Profile, len(profiles))
	for _, p := range profiles {
		byID[p.ID] = p
	}

	logger.Info("Персоны загружены",
		zap.String("data_source", cfg.DefaultDataSource),
		zap.String("path", path),
		zap.Int("count", len(profiles)))

	seed := cfg.PromptVariantSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Store{
		profiles: profiles,
		byID:     byID,
		selector: prompt.NewVariantSelector(seed),
		logger:   logger,
	}, nil
}

// Count возвращает число загруженных персон.
func (s *Store) Count() int {
	return len(s.profiles)
}

// All возвращает все профили в порядке загрузки.
func (s *Store) All() []*models.Profile {
	out := make([]*models.Profile, len(s.profiles))
	copy(out, s.profiles)
	return out
}

// Get возвращает профиль по идентификатору.
func (s *Store) Get(id string) (*models.Profile, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", models.ErrPersonaNotFound, id)
	}
	return p, nil
}

// Snapshot возвращает глубокие копии первых limit профилей для прогона
// опроса. limit <= 0 или больше числа персон означает все персоны.
func (s *Store) Snapshot(limit int) []*models.Profile {
	n := len(s.profiles)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*models.Profile, 0, n)
	for _, p := range s.profiles[:n] {
		out = append(out, cloneProfile(p))
	}
	return out
}

// BuildPrompt строит промпт для пары (персона, вопрос), выбирая случайный
// вариант формулировки.
func (s *Store) BuildPrompt(p *models.Profile, question string, options []string) (string, *models.ResponseSchema) {
	builder := s.selector.Pick(p.Type)
	return builder(p, question, options)
}

// PersonalitySummaryPrompt строит промпт резюме личности персоны.
func (s *Store) PersonalitySummaryPrompt(p *models.Profile) string {
	return prompt.PersonalitySummary(p)
}

// UpdateConversationHistory добавляет в историю персоны резюме ответа на
// вопрос: вариант с наибольшей вероятностью и его вес.
func UpdateConversationHistory(p *models.Profile, question string, dist models.Distribution, options []string) {
	topOption, topProb := dist.TopOption(options)
	p.ConversationHistory = append(p.ConversationHistory, models.HistoryEntry{
		Question: question,
		Summary:  fmt.Sprintf("When asked '%s', leaned %d%% towards '%s'", question, int(topProb*100), topOption),
	})
}

// UpdatePersonalitySummary сохраняет резюме личности в профиле.
func UpdatePersonalitySummary(p *models.Profile, summary string) {
	p.PersonalitySummary = summary
}

func cloneProfile(p *models.Profile) *models.Profile {
	out := *p
	out.ConversationHistory = make([]models.HistoryEntry, len(p.ConversationHistory))
	copy(out.ConversationHistory, p.ConversationHistory)
	if p.Employee != nil {
		e := *p.Employee
		out.Employee = &e
	}
	if p.Product != nil {
		r := *p.Product
		out.Product = &r
	}
	return &out
}
