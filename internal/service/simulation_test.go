package service_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"survey-server/internal/analytics"
	"survey-server/internal/mocks"
	"survey-server/internal/models"
	"survey-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	classificationJSON = `{"scale_type": "binary", "is_likert": false, "ordered_options": null}`
	metaSectionJSON    = `{"primary_findings": ["finding"], "statistical_metrics": {}, "recommendations": ["do more"]}`
)

// schemaNamed матчит запрос по имени JSON-схемы ответа.
func schemaNamed(names ...string) interface{} {
	return mock.MatchedBy(func(s *models.ResponseSchema) bool {
		for _, name := range names {
			if s != nil && strings.HasPrefix(s.Name, name) {
				return true
			}
		}
		return false
	})
}

func surveyAnswer(t *testing.T, dist map[string]float64) json.RawMessage {
	t.Helper()
	return structuredSurveyResponse(t, true, dist, "because")
}

func newTestSimulation(t *testing.T, llm *mocks.MockLLMClient) *service.SurveySimulation {
	t.Helper()
	store, cfg := newTestStore(t)
	responder := service.NewEnsembleResponder(llm, store, service.DefaultEnsembleConfig(), zap.NewNop())
	analyzer := analytics.NewAnalyzer(llm, 42, zap.NewNop())
	meta := analytics.NewMetaAnalysis(llm, zap.NewNop())
	return service.NewSurveySimulation(responder, store, analyzer, meta, cfg, zap.NewNop())
}

// mockAnalysisCalls настраивает классификацию, качественные секции и
// мета-анализ: во всех тестах они отвечают одинаково.
func mockAnalysisCalls(llm *mocks.MockLLMClient) {
	llm.On("RequestStructured", mock.Anything, mock.Anything, schemaNamed("question_classification"), mock.Anything).
		Return(json.RawMessage(classificationJSON), nil).Maybe()
	llm.On("RequestStructured", mock.Anything, mock.Anything,
		schemaNamed("theme_radar", "persona_network", "sentiment_flow", "response_heatmap"), mock.Anything).
		Return(json.RawMessage(`{}`), nil).Maybe()
	llm.On("RequestJSON", mock.Anything, mock.Anything, mock.Anything).
		Return(json.RawMessage(metaSectionJSON), nil).Maybe()
}

func twoQuestionRequest() *models.SurveyRequest {
	return &models.SurveyRequest{
		Title: "Workplace survey",
		Questions: []models.Question{
			{
				ID:   "q1",
				Text: "Do you enjoy your work?",
				Options: []models.Option{
					{ID: "o1", Text: "Yes"},
					{ID: "o2", Text: "No"},
				},
			},
			{
				ID:   "q2",
				Text: "Would you recommend the company?",
				Options: []models.Option{
					{ID: "o1", Text: "Yes"},
					{ID: "o2", Text: "No"},
				},
			},
		},
		NumberOfPersonas: 1,
		NumberOfSamples:  50,
	}
}

func TestSurveySimulation_RunSurvey(t *testing.T) {
	llm := mocks.NewMockLLMClient(t)
	mockAnalysisCalls(llm)

	// Промпты опроса собираем, чтобы проверить перенос истории между
	// вопросами
	var mu sync.Mutex
	var surveyPrompts []string
	llm.On("RequestStructured", mock.Anything, mock.Anything, schemaNamed("employee_response"), mock.Anything).
		Run(func(args mock.Arguments) {
			mu.Lock()
			surveyPrompts = append(surveyPrompts, args.String(1))
			mu.Unlock()
		}).
		Return(surveyAnswer(t, map[string]float64{"Yes": 0.9, "No": 0.1}), nil)
	llm.On("RequestText", mock.Anything, mock.Anything, mock.Anything).
		Return("Pragmatic optimist", nil)

	sim := newTestSimulation(t, llm)
	status := service.NewSimulationStatus(0, 0)

	result, err := sim.RunSurvey(context.Background(), twoQuestionRequest(), status)
	require.NoError(t, err)

	require.Contains(t, result.QuestionResults, "q1")
	require.Contains(t, result.QuestionResults, "q2")

	assert.Equal(t, 1, result.Metadata.TotalPersonas)
	assert.Equal(t, 2, result.Metadata.TotalQuestions)
	assert.Equal(t, 1, result.Metadata.CompletedPersonas["q1"])
	assert.Equal(t, 1, result.Metadata.CompletedPersonas["q2"])
	assert.Equal(t, 0, result.Metadata.SkippedPersonas["q1"])
	assert.Zero(t, result.Metadata.ErrorCount)
	assert.NotNil(t, result.CompleteAnalysis)

	q1 := result.QuestionResults["q1"]
	assert.Equal(t, models.ScaleBinary, q1.QuestionType)
	assert.Equal(t, 50, q1.BasicStatistics.TotalResponses)
	assert.NotNil(t, q1.CategoricalMetrics)
	assert.Nil(t, q1.AgreementMetrics)

	// История первого вопроса должна попасть в промпты второго
	var secondQuestionPrompts []string
	for _, p := range surveyPrompts {
		if strings.Contains(p, "Would you recommend the company?") {
			secondQuestionPrompts = append(secondQuestionPrompts, p)
		}
	}
	require.NotEmpty(t, secondQuestionPrompts)
	for _, p := range secondQuestionPrompts {
		assert.Contains(t, p, "When asked 'Do you enjoy your work?', leaned 90% towards 'Yes'")
	}

	snapshot := status.Snapshot()
	assert.Equal(t, service.StageCompleted, snapshot.Stage)
	assert.Empty(t, snapshot.Errors)
}

func TestSurveySimulation_NoQuestions(t *testing.T) {
	llm := mocks.NewMockLLMClient(t)
	sim := newTestSimulation(t, llm)

	_, err := sim.RunSurvey(context.Background(), &models.SurveyRequest{Title: "empty"}, service.NewSimulationStatus(0, 0))
	assert.ErrorIs(t, err, models.ErrNoQuestions)
}

func TestSurveySimulation_NonRelevantPersonaIsSkipped(t *testing.T) {
	llm := mocks.NewMockLLMClient(t)
	mockAnalysisCalls(llm)

	// Первая персона (Software Engineer) отвечает, вторая (Account Manager)
	// нерелевантна
	llm.On("RequestStructured", mock.Anything,
		mock.MatchedBy(func(p string) bool { return strings.Contains(p, "Software Engineer") }),
		schemaNamed("employee_response"), mock.Anything).
		Return(surveyAnswer(t, map[string]float64{"Yes": 1.0}), nil)
	llm.On("RequestStructured", mock.Anything,
		mock.MatchedBy(func(p string) bool { return strings.Contains(p, "Account Manager") }),
		schemaNamed("employee_response"), mock.Anything).
		Return(structuredSurveyResponse(t, false, nil, "out of scope"), nil)
	llm.On("RequestText", mock.Anything, mock.Anything, mock.Anything).
		Return("summary", nil)

	sim := newTestSimulation(t, llm)

	req := twoQuestionRequest()
	req.Questions = req.Questions[:1]
	req.NumberOfPersonas = 2

	status := service.NewSimulationStatus(0, 0)
	result, err := sim.RunSurvey(context.Background(), req, status)
	require.NoError(t, err)

	// Нерелевантная персона - пропуск, а не ошибка
	assert.Equal(t, 1, result.Metadata.CompletedPersonas["q1"])
	assert.Equal(t, 1, result.Metadata.SkippedPersonas["q1"])
	assert.Zero(t, result.Metadata.ErrorCount)
}

func TestSurveySimulation_QuestionAnalysisFailureIsIsolated(t *testing.T) {
	llm := mocks.NewMockLLMClient(t)

	// Классификация первого вопроса падает, второго - работает
	llm.On("RequestStructured", mock.Anything,
		mock.MatchedBy(func(p string) bool { return strings.Contains(p, "Do you enjoy your work?") }),
		schemaNamed("question_classification"), mock.Anything).
		Return(nil, models.ErrAIRequestFailed)
	llm.On("RequestStructured", mock.Anything,
		mock.MatchedBy(func(p string) bool { return strings.Contains(p, "Would you recommend the company?") }),
		schemaNamed("question_classification"), mock.Anything).
		Return(json.RawMessage(classificationJSON), nil)
	llm.On("RequestStructured", mock.Anything, mock.Anything,
		schemaNamed("theme_radar", "persona_network", "sentiment_flow", "response_heatmap"), mock.Anything).
		Return(json.RawMessage(`{}`), nil).Maybe()
	llm.On("RequestJSON", mock.Anything, mock.Anything, mock.Anything).
		Return(json.RawMessage(metaSectionJSON), nil).Maybe()

	llm.On("RequestStructured", mock.Anything, mock.Anything, schemaNamed("employee_response"), mock.Anything).
		Return(surveyAnswer(t, map[string]float64{"Yes": 1.0}), nil)
	llm.On("RequestText", mock.Anything, mock.Anything, mock.Anything).
		Return("summary", nil)

	sim := newTestSimulation(t, llm)
	status := service.NewSimulationStatus(0, 0)

	result, err := sim.RunSurvey(context.Background(), twoQuestionRequest(), status)
	require.NoError(t, err)

	// Упавший вопрос не роняет прогон, но фиксируется как ошибка
	assert.NotContains(t, result.QuestionResults, "q1")
	assert.Contains(t, result.QuestionResults, "q2")
	assert.GreaterOrEqual(t, result.Metadata.ErrorCount, 1)
}

func TestSurveySimulation_MetaAnalysisFailureIsNotFatal(t *testing.T) {
	llm := mocks.NewMockLLMClient(t)

	llm.On("RequestStructured", mock.Anything, mock.Anything, schemaNamed("question_classification"), mock.Anything).
		Return(json.RawMessage(classificationJSON), nil)
	llm.On("RequestStructured", mock.Anything, mock.Anything,
		schemaNamed("theme_radar", "persona_network", "sentiment_flow", "response_heatmap"), mock.Anything).
		Return(json.RawMessage(`{}`), nil)
	llm.On("RequestJSON", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, models.ErrAIRequestFailed)

	llm.On("RequestStructured", mock.Anything, mock.Anything, schemaNamed("employee_response"), mock.Anything).
		Return(surveyAnswer(t, map[string]float64{"Yes": 1.0}), nil)
	llm.On("RequestText", mock.Anything, mock.Anything, mock.Anything).
		Return("summary", nil)

	sim := newTestSimulation(t, llm)
	status := service.NewSimulationStatus(0, 0)

	req := twoQuestionRequest()
	req.Questions = req.Questions[:1]

	result, err := sim.RunSurvey(context.Background(), req, status)
	require.NoError(t, err)

	assert.Nil(t, result.CompleteAnalysis)
	assert.GreaterOrEqual(t, result.Metadata.ErrorCount, 1)
	assert.Contains(t, result.QuestionResults, "q1")
}

func TestSurveySimulation_PersonaErrorIsIsolated(t *testing.T) {
	llm := mocks.NewMockLLMClient(t)
	mockAnalysisCalls(llm)

	// Резюме личности второй персоны падает, первая отрабатывает
	llm.On("RequestText", mock.Anything,
		mock.MatchedBy(func(p string) bool { return strings.Contains(p, "Account Manager") }),
		mock.Anything).
		Return("", models.ErrAIRequestFailed)
	llm.On("RequestText", mock.Anything, mock.Anything, mock.Anything).
		Return("summary", nil)
	llm.On("RequestStructured", mock.Anything, mock.Anything, schemaNamed("employee_response"), mock.Anything).
		Return(surveyAnswer(t, map[string]float64{"Yes": 1.0}), nil)

	sim := newTestSimulation(t, llm)
	status := service.NewSimulationStatus(0, 0)

	req := twoQuestionRequest()
	req.Questions = req.Questions[:1]
	req.NumberOfPersonas = 2

	result, err := sim.RunSurvey(context.Background(), req, status)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Metadata.CompletedPersonas["q1"])
	assert.Equal(t, 0, result.Metadata.SkippedPersonas["q1"])
	assert.GreaterOrEqual(t, result.Metadata.ErrorCount, 1)
}

func TestSurveySimulation_TimeoutKeepsCompletedQuestions(t *testing.T) {
	llm := mocks.NewMockLLMClient(t)
	mockAnalysisCalls(llm)

	// Резюме личности тянет время дольше бюджета прогона: первый вопрос
	// успевает завершиться целиком, до второго дело не доходит
	llm.On("RequestText", mock.Anything, mock.Anything, mock.Anything).
		Run(func(mock.Arguments) { time.Sleep(80 * time.Millisecond) }).
		Return("summary", nil)
	llm.On("RequestStructured", mock.Anything, mock.Anything, schemaNamed("employee_response"), mock.Anything).
		Return(surveyAnswer(t, map[string]float64{"Yes": 1.0}), nil)

	store, cfg := newTestStore(t)
	cfg.SurveyTimeout = 50 * time.Millisecond
	responder := service.NewEnsembleResponder(llm, store, service.DefaultEnsembleConfig(), zap.NewNop())
	analyzer := analytics.NewAnalyzer(llm, 42, zap.NewNop())
	meta := analytics.NewMetaAnalysis(llm, zap.NewNop())
	sim := service.NewSurveySimulation(responder, store, analyzer, meta, cfg, zap.NewNop())

	status := service.NewSimulationStatus(0, 0)
	result, err := sim.RunSurvey(context.Background(), twoQuestionRequest(), status)
	require.NoError(t, err)
	require.NotNil(t, result)

	// Проанализированный вопрос сохранен, пропущенный отражен в ошибках
	assert.Contains(t, result.QuestionResults, "q1")
	assert.NotContains(t, result.QuestionResults, "q2")
	assert.GreaterOrEqual(t, result.Metadata.ErrorCount, 1)

	snapshot := status.Snapshot()
	assert.Equal(t, service.StageCompleted, snapshot.Stage)
	require.NotEmpty(t, snapshot.Errors)
	assert.Contains(t, strings.Join(snapshot.Errors, "; "), "timed out before question q2")
}
