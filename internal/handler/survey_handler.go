package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	"survey-server/internal/ai"
	"survey-server/internal/config"
	"survey-server/internal/models"
	"survey-server/internal/persona"
	"survey-server/internal/prompt"
	"survey-server/internal/service"
	"survey-server/pkg/taskmanager"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SurveyHandler обрабатывает HTTP запросы сервиса симуляции опросов.
type SurveyHandler struct {
	sim    *service.SurveySimulation
	store  *persona.Store
	llm    ai.LLMClient
	tasks  taskmanager.ITaskManager
	cfg    *config.Config
	logger *zap.Logger

	// Живые статусы асинхронных прогонов по ID задачи.
	mu       sync.RWMutex
	statuses map[uuid.UUID]*service.SimulationStatus
}

// NewSurveyHandler создает новый SurveyHandler.
func NewSurveyHandler(
	sim *service.SurveySimulation,
	store *persona.Store,
	llm ai.LLMClient,
	tasks taskmanager.ITaskManager,
	cfg *config.Config,
	logger *zap.Logger,
) *SurveyHandler {
	return &SurveyHandler{
		sim:      sim,
		store:    store,
		llm:      llm,
		tasks:    tasks,
		cfg:      cfg,
		logger:   logger.Named("SurveyHandler"),
		statuses: make(map[uuid.UUID]*service.SimulationStatus),
	}
}

// RegisterRoutes регистрирует маршруты сервиса опросов.
func (h *SurveyHandler) RegisterRoutes(router *gin.Engine) {
	surveyGroup := router.Group("/survey")
	{
		surveyGroup.POST("/run", h.runSurvey)
		surveyGroup.POST("/run/async", h.runSurveyAsync)
	}

	tasksGroup := router.Group("/tasks")
	{
		tasksGroup.GET("/:id", h.getTask)
		tasksGroup.DELETE("/:id", h.cancelTask)
	}

	router.GET("/personas", h.listPersonas)
	router.POST("/ask", h.askPersona)
}

// runSurvey запускает прогон опроса синхронно и возвращает полный результат.
func (h *SurveyHandler) runSurvey(c *gin.Context) {
	var req models.SurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	h.logger.Info("Received survey run request",
		zap.String("title", req.Title),
		zap.Int("questions", len(req.Questions)),
		zap.Int("personas", req.NumberOfPersonas),
	)

	status := service.NewSimulationStatus(len(req.Questions), req.NumberOfPersonas)
	result, err := h.sim.RunSurvey(c.Request.Context(), &req, status)
	if err != nil {
		// Таймауты и отсутствие распределений - ожидаемые ошибки, не логируем как Error
		if !isExpectedSurveyError(err) {
			h.logger.Error("Survey run failed (unhandled)", zap.String("title", req.Title), zap.Error(err))
		}
		handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// asyncRunResponse - ответ на постановку асинхронного прогона.
type asyncRunResponse struct {
	TaskID string `json:"task_id"`
}

// runSurveyAsync ставит прогон опроса в фоновую задачу и сразу возвращает ее ID.
func (h *SurveyHandler) runSurveyAsync(c *gin.Context) {
	var req models.SurveyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	status := service.NewSimulationStatus(len(req.Questions), req.NumberOfPersonas)

	taskID, err := h.tasks.SubmitTask(c.Request.Context(), func(ctx context.Context) (interface{}, error) {
		return h.sim.RunSurvey(ctx, &req, status)
	})
	if err != nil {
		h.logger.Warn("Failed to submit survey task", zap.String("title", req.Title), zap.Error(err))
		c.JSON(http.StatusTooManyRequests, APIError{Message: err.Error()})
		return
	}

	h.mu.Lock()
	h.statuses[taskID] = status
	h.mu.Unlock()

	h.logger.Info("Survey task submitted",
		zap.String("taskID", taskID.String()),
		zap.String("title", req.Title),
	)

	c.JSON(http.StatusAccepted, asyncRunResponse{TaskID: taskID.String()})
}

// taskResponse - статус фоновой задачи вместе с живым прогрессом прогона.
type taskResponse struct {
	TaskID   string                  `json:"task_id"`
	Status   taskmanager.TaskStatus  `json:"status"`
	Message  string                  `json:"message,omitempty"`
	Progress *service.StatusSnapshot `json:"progress,omitempty"`
	Result   interface{}             `json:"result,omitempty"`
}

// getTask возвращает статус фоновой задачи и прогресс прогона.
func (h *SurveyHandler) getTask(c *gin.Context) {
	idStr := c.Param("id")
	taskID, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid task ID format", zap.String("id", idStr), zap.Error(err))
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid task ID format"})
		return
	}

	task, err := h.tasks.GetTask(taskID)
	if err != nil {
		c.JSON(http.StatusNotFound, APIError{Message: "Task not found"})
		return
	}

	resp := taskResponse{
		TaskID:  task.ID.String(),
		Status:  task.Status,
		Message: task.Message,
	}

	h.mu.RLock()
	status, ok := h.statuses[taskID]
	h.mu.RUnlock()
	if ok {
		snapshot := status.Snapshot()
		resp.Progress = &snapshot
	}

	if task.Status == taskmanager.TaskStatusCompleted {
		resp.Result = task.Result
	}

	c.JSON(http.StatusOK, resp)
}

// cancelTask отменяет фоновую задачу прогона.
func (h *SurveyHandler) cancelTask(c *gin.Context) {
	idStr := c.Param("id")
	taskID, err := uuid.Parse(idStr)
	if err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid task ID format"})
		return
	}

	if err := h.tasks.CancelTask(taskID); err != nil {
		c.JSON(http.StatusConflict, APIError{Message: err.Error()})
		return
	}

	h.logger.Info("Survey task cancelled", zap.String("taskID", taskID.String()))
	c.Status(http.StatusNoContent)
}

// personaListResponse - ответ со списком персон.
type personaListResponse struct {
	Total    int               `json:"total"`
	Personas []*models.Profile `json:"personas"`
}

// listPersonas возвращает загруженные персоны. Параметр index выбирает
// одну персону, limit ограничивает размер списка.
func (h *SurveyHandler) listPersonas(c *gin.Context) {
	if indexStr := c.Query("index"); indexStr != "" {
		p, err := h.store.Get(indexStr)
		if err != nil {
			handleServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
		return
	}

	limit := 0
	if limitStr := c.Query("limit"); limitStr != "" {
		parsedLimit, err := strconv.Atoi(limitStr)
		if err != nil || parsedLimit <= 0 {
			h.logger.Warn("Invalid limit parameter received", zap.String("limit", limitStr), zap.Error(err))
			c.JSON(http.StatusBadRequest, APIError{Message: "Invalid 'limit' parameter"})
			return
		}
		limit = parsedLimit
	}

	personas := h.store.Snapshot(limit)
	c.JSON(http.StatusOK, personaListResponse{
		Total:    h.store.Count(),
		Personas: personas,
	})
}

// askRequest - запрос свободного вопроса к конкретной персоне.
type askRequest struct {
	PersonaID string `json:"persona_id" binding:"required"`
	Question  string `json:"question" binding:"required"`
}

// askResponse - ответ персоны на свободный вопрос.
type askResponse struct {
	PersonaID string `json:"persona_id"`
	Question  string `json:"question"`
	Response  string `json:"response"`
}

// askPersona задает персоне произвольный вопрос от первого лица.
func (h *SurveyHandler) askPersona(c *gin.Context) {
	var req askRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, APIError{Message: "Invalid request body: " + err.Error()})
		return
	}

	p, err := h.store.Get(req.PersonaID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	raw, err := h.llm.RequestStructured(c.Request.Context(), prompt.Ask(p, req.Question), prompt.AskResponseSchema(), 0.7)
	if err != nil {
		h.logger.Error("Ask request failed",
			zap.String("personaID", req.PersonaID),
			zap.Error(err),
		)
		handleServiceError(c, err)
		return
	}

	var parsed struct {
		Response string `json:"response"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		h.logger.Error("Failed to parse ask response", zap.String("personaID", req.PersonaID), zap.Error(err))
		handleServiceError(c, models.ErrInvalidAIJSON)
		return
	}

	c.JSON(http.StatusOK, askResponse{
		PersonaID: req.PersonaID,
		Question:  req.Question,
		Response:  parsed.Response,
	})
}

// isExpectedSurveyError сообщает, является ли ошибка прогона ожидаемой
// (не требующей логирования на уровне Error).
func isExpectedSurveyError(err error) bool {
	return errorIsAny(err,
		models.ErrNoQuestions,
		models.ErrSurveyTimeout,
		models.ErrNoDistributions,
		models.ErrPersonaDataNotFound,
	)
}

func errorIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
