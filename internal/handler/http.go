package handler

import (
	"errors"
	"net/http"
	"time"

	"survey-server/internal/config"
	"survey-server/internal/models"
	sharedMiddleware "survey-server/shared/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	ginprometheus "github.com/zsais/go-gin-prometheus"
	"go.uber.org/zap"
)

// APIError представляет стандартизированный ответ об ошибке.
type APIError struct {
	Message string `json:"message"`
}

// NewRouter собирает HTTP роутер сервиса: middleware, health check,
// маршруты опросов и метрики Prometheus.
func NewRouter(cfg *config.Config, surveyHandler *SurveyHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Env == "development" {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.RedirectTrailingSlash = true
	router.Use(sharedMiddleware.GinZapLogger(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/health", healthHandler)
	router.HEAD("/health", healthHandler)

	surveyHandler.RegisterRoutes(router)

	// Prometheus middleware применяется после регистрации роутов
	p := ginprometheus.NewPrometheus("gin")
	p.Use(router)

	return router
}

func handleServiceError(c *gin.Context, err error) {
	var statusCode int
	var apiErr APIError

	switch {
	case errors.Is(err, models.ErrNoQuestions) || errors.Is(err, models.ErrBadRequest):
		statusCode = http.StatusBadRequest
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrPersonaNotFound) || errors.Is(err, models.ErrPersonaDataNotFound):
		statusCode = http.StatusNotFound
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrSurveyTimeout):
		statusCode = http.StatusGatewayTimeout
		apiErr = APIError{Message: err.Error()}
	case errors.Is(err, models.ErrAIRequestFailed) ||
		errors.Is(err, models.ErrEmptyAIResponse) ||
		errors.Is(err, models.ErrInvalidAIJSON) ||
		errors.Is(err, models.ErrNoDistributions):
		statusCode = http.StatusBadGateway
		apiErr = APIError{Message: err.Error()}
	default:
		statusCode = http.StatusInternalServerError
		apiErr = APIError{Message: "Internal server error"}
	}
	c.JSON(statusCode, apiErr)
}
