package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"survey-server/internal/analytics"
	"survey-server/internal/config"
	"survey-server/internal/handler"
	"survey-server/internal/mocks"
	"survey-server/internal/models"
	"survey-server/internal/persona"
	"survey-server/internal/service"
	"survey-server/pkg/taskmanager"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const personaFixture = `[
	{
		"name": "Alice",
		"title": "Great place to grow",
		"rating": 4.5,
		"role": "Software Engineer",
		"location": "Berlin",
		"employment_status": "Current Employee",
		"pros": "Smart colleagues",
		"cons": "Slow promotions"
	},
	{
		"title": "Mixed feelings",
		"rating": 2.0,
		"role": "Account Manager",
		"employment_status": "Former Employee",
		"pros": "Decent benefits",
		"cons": "Too many meetings"
	}
]`

type testEnv struct {
	router *httptest.Server
	llm    *mocks.MockLLMClient
	tasks  *taskmanager.TaskManager
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "glassdoor.json"), []byte(personaFixture), 0644))

	cfg := &config.Config{
		Env:                   "test",
		PersonaDataDir:        dataDir,
		DefaultDataSource:     "glassdoor",
		MaxParallelPersonas:   4,
		MaxConcurrentRequests: 8,
		SurveyTimeout:         30 * time.Second,
		DefaultSamples:        50,
		DefaultPersonas:       2,
		PromptVariantSeed:     7,
		SamplingSeed:          7,
		MaxBackgroundTasks:    2,
	}

	logger := zap.NewNop()
	store, err := persona.NewStore(cfg, logger)
	require.NoError(t, err)

	llm := mocks.NewMockLLMClient(t)
	responder := service.NewEnsembleResponder(llm, store, service.DefaultEnsembleConfig(), logger)
	analyzer := analytics.NewAnalyzer(llm, cfg.SamplingSeed, logger)
	meta := analytics.NewMetaAnalysis(llm, logger)
	sim := service.NewSurveySimulation(responder, store, analyzer, meta, cfg, logger)

	tm, err := taskmanager.New(taskmanager.Config{MaxTasks: cfg.MaxBackgroundTasks})
	require.NoError(t, err)
	t.Cleanup(tm.Close)

	surveyHandler := handler.NewSurveyHandler(sim, store, llm, tm, cfg, logger)
	server := httptest.NewServer(handler.NewRouter(cfg, surveyHandler, logger))
	t.Cleanup(server.Close)

	return &testEnv{router: server, llm: llm, tasks: tm}
}

func (e *testEnv) get(t *testing.T, path string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(e.router.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func (e *testEnv) post(t *testing.T, path, payload string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Post(e.router.URL+path, "application/json", strings.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	resp, body := env.get(t, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status": "ok"}`, string(body))
}

func TestListPersonas(t *testing.T) {
	env := newTestEnv(t)

	t.Run("full list", func(t *testing.T) {
		resp, body := env.get(t, "/personas")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var parsed struct {
			Total    int               `json:"total"`
			Personas []*models.Profile `json:"personas"`
		}
		require.NoError(t, json.Unmarshal(body, &parsed))
		assert.Equal(t, 2, parsed.Total)
		require.Len(t, parsed.Personas, 2)
		assert.Equal(t, "Alice", parsed.Personas[0].Name)
	})

	t.Run("limited list", func(t *testing.T) {
		resp, body := env.get(t, "/personas?limit=1")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var parsed struct {
			Personas []*models.Profile `json:"personas"`
		}
		require.NoError(t, json.Unmarshal(body, &parsed))
		assert.Len(t, parsed.Personas, 1)
	})

	t.Run("single persona by index", func(t *testing.T) {
		resp, body := env.get(t, "/personas?index=1")
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var p models.Profile
		require.NoError(t, json.Unmarshal(body, &p))
		assert.Equal(t, "Anonymous", p.Name)
	})

	t.Run("unknown index", func(t *testing.T) {
		resp, _ := env.get(t, "/personas?index=99")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid limit", func(t *testing.T) {
		resp, _ := env.get(t, "/personas?limit=abc")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAskPersona(t *testing.T) {
	env := newTestEnv(t)

	env.llm.On("RequestStructured", mock.Anything,
		mock.MatchedBy(func(p string) bool { return strings.Contains(p, "What should change?") }),
		mock.Anything, mock.Anything).
		Return(json.RawMessage(`{"response": "Fewer meetings, please."}`), nil).Once()

	resp, body := env.post(t, "/ask", `{"persona_id": "0", "question": "What should change?"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed struct {
		PersonaID string `json:"persona_id"`
		Response  string `json:"response"`
	}
	require.NoError(t, json.Unmarshal(body, &parsed))
	assert.Equal(t, "0", parsed.PersonaID)
	assert.Equal(t, "Fewer meetings, please.", parsed.Response)

	t.Run("missing persona", func(t *testing.T) {
		resp, _ := env.post(t, "/ask", `{"persona_id": "99", "question": "Q?"}`)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("invalid body", func(t *testing.T) {
		resp, _ := env.post(t, "/ask", `{"persona_id": "0"}`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestSurveyValidation(t *testing.T) {
	env := newTestEnv(t)

	// Опрос без вопросов отклоняется на этапе валидации
	resp, _ := env.post(t, "/survey/run", `{"title": "empty", "questions": []}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = env.post(t, "/survey/run/async", `{"title": "empty", "questions": []}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTaskEndpoints(t *testing.T) {
	env := newTestEnv(t)

	t.Run("unknown task", func(t *testing.T) {
		resp, _ := env.get(t, "/tasks/1b671a64-40d5-491e-99b0-da01ff1f3341")
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("malformed task id", func(t *testing.T) {
		resp, _ := env.get(t, "/tasks/not-a-uuid")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestAsyncSurveyLifecycle(t *testing.T) {
	env := newTestEnv(t)

	// Схемо-зависимые ответы модели: опрос, классификация, качественные
	// секции и мета-анализ
	surveyAnswer := `{"relevant": true, "option": [{"option": "Yes", "probability": 1.0}], "reason": "sure"}`
	classification := `{"scale_type": "binary", "is_likert": false, "ordered_options": null}`

	schemaNamed := func(prefixes ...string) interface{} {
		return mock.MatchedBy(func(s *models.ResponseSchema) bool {
			for _, prefix := range prefixes {
				if s != nil && strings.HasPrefix(s.Name, prefix) {
					return true
				}
			}
			return false
		})
	}

	env.llm.On("RequestStructured", mock.Anything, mock.Anything, schemaNamed("employee_response"), mock.Anything).
		Return(json.RawMessage(surveyAnswer), nil)
	env.llm.On("RequestStructured", mock.Anything, mock.Anything, schemaNamed("question_classification"), mock.Anything).
		Return(json.RawMessage(classification), nil)
	env.llm.On("RequestStructured", mock.Anything, mock.Anything,
		schemaNamed("theme_radar", "persona_network", "sentiment_flow", "response_heatmap"), mock.Anything).
		Return(json.RawMessage(`{}`), nil)
	env.llm.On("RequestJSON", mock.Anything, mock.Anything, mock.Anything).
		Return(json.RawMessage(`{"primary_findings": [], "statistical_metrics": {}, "recommendations": []}`), nil)
	env.llm.On("RequestText", mock.Anything, mock.Anything, mock.Anything).
		Return("summary", nil)

	payload := `{
		"title": "Smoke survey",
		"questions": [
			{"id": "q1", "text": "Happy?", "options": [{"id": "o1", "text": "Yes"}, {"id": "o2", "text": "No"}]}
		],
		"number_of_personas": 1,
		"number_of_samples": 20
	}`

	resp, body := env.post(t, "/survey/run/async", payload)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var accepted struct {
		TaskID string `json:"task_id"`
	}
	require.NoError(t, json.Unmarshal(body, &accepted))
	require.NotEmpty(t, accepted.TaskID)

	// Дожидаемся завершения фоновой задачи
	deadline := time.Now().Add(5 * time.Second)
	var final struct {
		Status   string                  `json:"status"`
		Progress *service.StatusSnapshot `json:"progress"`
		Result   json.RawMessage         `json:"result"`
	}
	for time.Now().Before(deadline) {
		resp, body = env.get(t, "/tasks/"+accepted.TaskID)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, json.Unmarshal(body, &final))
		if final.Status == string(taskmanager.TaskStatusCompleted) || final.Status == string(taskmanager.TaskStatusFailed) {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}

	require.Equal(t, string(taskmanager.TaskStatusCompleted), final.Status)
	require.NotNil(t, final.Progress)
	assert.Equal(t, service.StageCompleted, final.Progress.Stage)

	var result models.SurveyResult
	require.NoError(t, json.Unmarshal(final.Result, &result))
	assert.Contains(t, result.QuestionResults, "q1")
	assert.Equal(t, 1, result.Metadata.TotalPersonas)
}
