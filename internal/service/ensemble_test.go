package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"survey-server/internal/config"
	"survey-server/internal/mocks"
	"survey-server/internal/models"
	"survey-server/internal/persona"
	"survey-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testPersonaFile - минимальная выгрузка glassdoor для тестов.
const testPersonaFile = `[
	{
		"name": "Alice",
		"date": "2024-01-15",
		"title": "Great place to grow",
		"rating": 4.5,
		"role": "Software Engineer",
		"location": "Berlin",
		"employment_status": "Current Employee",
		"recommend": true,
		"ceo_approval": true,
		"business_outlook": true,
		"pros": "Smart colleagues, interesting problems",
		"cons": "Meetings eat the afternoons",
		"advice_to_management": "Protect maker time"
	},
	{
		"date": "2023-11-02",
		"title": "Mixed feelings",
		"rating": 2.0,
		"role": "Account Manager",
		"location": "Remote",
		"employment_status": "Former Employee",
		"recommend": false,
		"pros": ["Decent benefits"],
		"cons": ["Slow promotions", "Constant reorgs"]
	}
]`

// newTestStore пишет файл персон во временную директорию и строит Store
// с детерминированным выбором вариантов промптов.
func newTestStore(t *testing.T) (*persona.Store, *config.Config) {
	t.Helper()

	dataDir := t.TempDir()
	err := os.WriteFile(filepath.Join(dataDir, "glassdoor.json"), []byte(testPersonaFile), 0644)
	require.NoError(t, err)

	cfg := &config.Config{
		PersonaDataDir:        dataDir,
		DefaultDataSource:     "glassdoor",
		MaxParallelPersonas:   4,
		MaxConcurrentRequests: 8,
		SurveyTimeout:         30 * time.Second,
		DefaultSamples:        100,
		DefaultPersonas:       2,
		PromptVariantSeed:     7,
	}

	store, err := persona.NewStore(cfg, zap.NewNop())
	require.NoError(t, err)
	return store, cfg
}

func structuredSurveyResponse(t *testing.T, relevant bool, dist map[string]float64, reason string) json.RawMessage {
	t.Helper()
	resp := models.SurveyLLMResponse{Relevant: relevant, Reason: reason}
	for option, prob := range dist {
		resp.Option = append(resp.Option, models.OptionProbability{Option: option, Probability: prob})
	}
	raw, err := json.Marshal(resp)
	require.NoError(t, err)
	return raw
}

func TestEnsembleResponder_MergesDistributions(t *testing.T) {
	store, _ := newTestStore(t)
	llm := mocks.NewMockLLMClient(t)

	members := []map[string]float64{
		{"Agree": 0.5, "Disagree": 0.5},
		{"Agree": 0.6, "Disagree": 0.4},
		{"Agree": 0.4, "Disagree": 0.6},
	}
	for i, temp := range []float32{0.1, 0.5, 1.0} {
		llm.On("RequestStructured", mock.Anything, mock.AnythingOfType("string"), mock.Anything, temp).
			Return(structuredSurveyResponse(t, true, members[i], "reason"), nil).Once()
	}
	llm.On("RequestText", mock.Anything, mock.AnythingOfType("string"), float32(0.2)).
		Return("Summarized reason", nil).Once()

	responder := service.NewEnsembleResponder(llm, store, service.DefaultEnsembleConfig(), zap.NewNop())

	p, err := store.Get("0")
	require.NoError(t, err)

	result, err := responder.GetEnsembleDistribution(context.Background(), p, "Do you agree?", []string{"Agree", "Disagree"})
	require.NoError(t, err)

	assert.True(t, result.Relevant)
	assert.InDelta(t, 0.5, result.Distribution["Agree"], 1e-9)
	assert.InDelta(t, 0.5, result.Distribution["Disagree"], 1e-9)
	assert.Equal(t, "Summarized reason", result.Reason)
	assert.Greater(t, result.ReliabilityScore, 0.0)
	assert.LessOrEqual(t, result.ReliabilityScore, 1.0)

	llm.AssertExpectations(t)
}

func TestEnsembleResponder_FullAgreementGivesMaxReliability(t *testing.T) {
	store, _ := newTestStore(t)
	llm := mocks.NewMockLLMClient(t)

	llm.On("RequestStructured", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(structuredSurveyResponse(t, true, map[string]float64{"Yes": 1.0}, "sure"), nil).Times(3)
	llm.On("RequestText", mock.Anything, mock.Anything, mock.Anything).
		Return("sure", nil).Once()

	responder := service.NewEnsembleResponder(llm, store, service.DefaultEnsembleConfig(), zap.NewNop())
	p, _ := store.Get("0")

	result, err := responder.GetEnsembleDistribution(context.Background(), p, "Yes or no?", []string{"Yes", "No"})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, result.ReliabilityScore, 1e-9)
}

func TestEnsembleResponder_RelevanceVeto(t *testing.T) {
	t.Run("veto enabled rejects the pair", func(t *testing.T) {
		store, _ := newTestStore(t)
		llm := mocks.NewMockLLMClient(t)

		llm.On("RequestStructured", mock.Anything, mock.Anything, mock.Anything, float32(0.1)).
			Return(structuredSurveyResponse(t, true, map[string]float64{"Yes": 1.0}, "ok"), nil).Once()
		llm.On("RequestStructured", mock.Anything, mock.Anything, mock.Anything, float32(0.5)).
			Return(structuredSurveyResponse(t, false, nil, "not my area"), nil).Once()
		llm.On("RequestStructured", mock.Anything, mock.Anything, mock.Anything, float32(1.0)).
			Return(structuredSurveyResponse(t, true, map[string]float64{"Yes": 1.0}, "ok"), nil).Once()

		responder := service.NewEnsembleResponder(llm, store, service.DefaultEnsembleConfig(), zap.NewNop())
		p, _ := store.Get("0")

		result, err := responder.GetEnsembleDistribution(context.Background(), p, "Q?", []string{"Yes", "No"})
		require.NoError(t, err)
		assert.False(t, result.Relevant)
		assert.Equal(t, "Persona not relevant to question", result.Reason)
		assert.Empty(t, result.Distribution)
	})

	t.Run("veto disabled drops the member", func(t *testing.T) {
		store, _ := newTestStore(t)
		llm := mocks.NewMockLLMClient(t)

		llm.On("RequestStructured", mock.Anything, mock.Anything, mock.Anything, float32(0.1)).
			Return(structuredSurveyResponse(t, true, map[string]float64{"Yes": 1.0}, "ok"), nil).Once()
		llm.On("RequestStructured", mock.Anything, mock.Anything, mock.Anything, float32(0.5)).
			Return(structuredSurveyResponse(t, false, nil, "not my area"), nil).Once()
		llm.On("RequestStructured", mock.Anything, mock.Anything, mock.Anything, float32(1.0)).
			Return(structuredSurveyResponse(t, true, map[string]float64{"Yes": 1.0}, "ok"), nil).Once()
		llm.On("RequestText", mock.Anything, mock.Anything, mock.Anything).
			Return("ok", nil).Once()

		cfg := service.DefaultEnsembleConfig()
		cfg.RelevanceVeto = false
		responder := service.NewEnsembleResponder(llm, store, cfg, zap.NewNop())
		p, _ := store.Get("0")

		result, err := responder.GetEnsembleDistribution(context.Background(), p, "Q?", []string{"Yes", "No"})
		require.NoError(t, err)
		assert.True(t, result.Relevant)
		assert.InDelta(t, 1.0, result.Distribution["Yes"], 1e-9)
	})
}

func TestEnsembleResponder_MemberFailureDoesNotFailEnsemble(t *testing.T) {
	store, _ := newTestStore(t)
	llm := mocks.NewMockLLMClient(t)

	llm.On("RequestStructured", mock.Anything, mock.Anything, mock.Anything, float32(0.1)).
		Return(nil, errors.New("rate limited")).Once()
	llm.On("RequestStructured", mock.Anything, mock.Anything, mock.Anything, float32(0.5)).
		Return(structuredSurveyResponse(t, true, map[string]float64{"Yes": 0.8, "No": 0.2}, "ok"), nil).Once()
	llm.On("RequestStructured", mock.Anything, mock.Anything, mock.Anything, float32(1.0)).
		Return(structuredSurveyResponse(t, true, map[string]float64{"Yes": 0.8, "No": 0.2}, "ok"), nil).Once()
	llm.On("RequestText", mock.Anything, mock.Anything, mock.Anything).
		Return("ok", nil).Once()

	responder := service.NewEnsembleResponder(llm, store, service.DefaultEnsembleConfig(), zap.NewNop())
	p, _ := store.Get("0")

	result, err := responder.GetEnsembleDistribution(context.Background(), p, "Q?", []string{"Yes", "No"})
	require.NoError(t, err)
	assert.True(t, result.Relevant)
	assert.InDelta(t, 0.8, result.Distribution["Yes"], 1e-9)
}

func TestEnsembleResponder_ZeroSumMemberIsDropped(t *testing.T) {
	store, _ := newTestStore(t)
	llm := mocks.NewMockLLMClient(t)

	// Член при температуре 0.5 отвечает relevant=true, но со всеми
	// нулевыми вероятностями - он не должен разбавлять среднее
	llm.On("RequestStructured", mock.Anything, mock.Anything, mock.Anything, float32(0.1)).
		Return(structuredSurveyResponse(t, true, map[string]float64{"Yes": 0.7, "No": 0.3}, "ok"), nil).Once()
	llm.On("RequestStructured", mock.Anything, mock.Anything, mock.Anything, float32(0.5)).
		Return(structuredSurveyResponse(t, true, map[string]float64{"Yes": 0.0, "No": 0.0}, "??"), nil).Once()
	llm.On("RequestStructured", mock.Anything, mock.Anything, mock.Anything, float32(1.0)).
		Return(structuredSurveyResponse(t, true, map[string]float64{"Yes": 0.7, "No": 0.3}, "ok"), nil).Once()
	llm.On("RequestText", mock.Anything, mock.Anything, mock.Anything).
		Return("ok", nil).Once()

	responder := service.NewEnsembleResponder(llm, store, service.DefaultEnsembleConfig(), zap.NewNop())
	p, _ := store.Get("0")

	result, err := responder.GetEnsembleDistribution(context.Background(), p, "Q?", []string{"Yes", "No"})
	require.NoError(t, err)
	assert.True(t, result.Relevant)
	assert.InDelta(t, 0.7, result.Distribution["Yes"], 1e-9)
	assert.InDelta(t, 0.3, result.Distribution["No"], 1e-9)
	assert.InDelta(t, 1.0, result.Distribution.Sum(), 1e-9)
}

func TestEnsembleResponder_AllMembersFail(t *testing.T) {
	store, _ := newTestStore(t)
	llm := mocks.NewMockLLMClient(t)

	llm.On("RequestStructured", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("rate limited")).Times(3)

	responder := service.NewEnsembleResponder(llm, store, service.DefaultEnsembleConfig(), zap.NewNop())
	p, _ := store.Get("0")

	result, err := responder.GetEnsembleDistribution(context.Background(), p, "Q?", []string{"Yes", "No"})
	require.NoError(t, err)
	assert.False(t, result.Relevant)
	assert.Equal(t, "Failed to get distributions", result.Reason)
}

func TestEnsembleResponder_SummaryFallbackOnError(t *testing.T) {
	store, _ := newTestStore(t)
	llm := mocks.NewMockLLMClient(t)

	llm.On("RequestStructured", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(structuredSurveyResponse(t, true, map[string]float64{"Yes": 1.0}, "my reason"), nil).Times(3)
	llm.On("RequestText", mock.Anything, mock.Anything, mock.Anything).
		Return("", errors.New("summary failed")).Once()

	responder := service.NewEnsembleResponder(llm, store, service.DefaultEnsembleConfig(), zap.NewNop())
	p, _ := store.Get("0")

	result, err := responder.GetEnsembleDistribution(context.Background(), p, "Q?", []string{"Yes", "No"})
	require.NoError(t, err)
	// При недоступном резюме причины склеиваются как есть
	assert.Contains(t, result.Reason, "my reason")
}
