package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"survey-server/internal/analytics"
	"survey-server/internal/config"
	"survey-server/internal/models"
	"survey-server/internal/persona"

	"go.uber.org/zap"
)

// SurveySimulation оркестрирует прогон опроса: вопросы строго
// последовательно (история ответов каждой персоны должна быть видна
// следующему вопросу), персоны внутри вопроса - параллельными партиями.
type SurveySimulation struct {
	responder *EnsembleResponder
	store     *persona.Store
	analyzer  *analytics.Analyzer
	meta      *analytics.MetaAnalysis
	cfg       *config.Config
	logger    *zap.Logger

	// Глобальный лимит одновременно обрабатываемых пар персона-вопрос
	sem chan struct{}
}

func NewSurveySimulation(responder *EnsembleResponder, store *persona.Store, analyzer *analytics.Analyzer, meta *analytics.MetaAnalysis, cfg *config.Config, logger *zap.Logger) *SurveySimulation {
	return &SurveySimulation{
		responder: responder,
		store:     store,
		analyzer:  analyzer,
		meta:      meta,
		cfg:       cfg,
		logger:    logger,
		sem:       make(chan struct{}, cfg.MaxConcurrentRequests),
	}
}

// RunSurvey выполняет полный прогон опроса. Прогресс отражается в status.
func (s *SurveySimulation) RunSurvey(ctx context.Context, req *models.SurveyRequest, status *SimulationStatus) (*models.SurveyResult, error) {
	if len(req.Questions) == 0 {
		return nil, models.ErrNoQuestions
	}

	numPersonas := req.NumberOfPersonas
	if numPersonas <= 0 {
		numPersonas = s.cfg.DefaultPersonas
	}
	numSamples := req.NumberOfSamples
	if numSamples <= 0 {
		numSamples = s.cfg.DefaultSamples
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.SurveyTimeout)
	defer cancel()

	startTime := time.Now()

	status.Init(len(req.Questions), s.store.Count())
	status.Update(StageBuildingPrompts, "Loading personas")
	profiles := s.store.Snapshot(numPersonas)

	s.logger.Info("Старт прогона опроса",
		zap.String("title", req.Title),
		zap.Int("questions", len(req.Questions)),
		zap.Int("personas", len(profiles)),
		zap.Int("samples", numSamples))

	results := make(map[string]*models.QuestionAnalysis, len(req.Questions))
	completedPersonas := make(map[string]int, len(req.Questions))
	skippedPersonas := make(map[string]int, len(req.Questions))
	distributions := make(map[string]map[string]float64, len(req.Questions))

	for i := range req.Questions {
		question := &req.Questions[i]
		status.StartQuestion(i + 1)

		if ctx.Err() != nil {
			// Таймаут между вопросами не обесценивает уже
			// проанализированные: оставшиеся вопросы помечаются
			// ошибками, частичный результат возвращается вызывающему
			for j := i; j < len(req.Questions); j++ {
				status.AddError(fmt.Sprintf("Survey timed out before question %s", req.Questions[j].ID))
			}
			s.logger.Warn("Прогон опроса прерван по таймауту",
				zap.Int("question", i+1),
				zap.Int("total_questions", len(req.Questions)))
			break
		}

		status.Update(StageQueryingLLM, fmt.Sprintf("Question %d of %d", i+1, len(req.Questions)))
		responses := s.runQuestion(ctx, question, profiles, status)

		status.Update(StageQuantitativeAnalysis, fmt.Sprintf("Question %d of %d", i+1, len(req.Questions)))
		analysis, err := s.analyzer.AnalyzeQuestion(ctx, question, responses, numSamples)
		if err != nil {
			// Вопрос без анализа не роняет прогон: остальные вопросы
			// ценнее, чем симметрия результата
			s.logger.Error("Анализ вопроса не удался",
				zap.String("question_id", question.ID), zap.Error(err))
			status.AddError(fmt.Sprintf("Error analyzing question %s: %v", question.ID, err))
			continue
		}

		results[question.ID] = analysis
		completedPersonas[question.ID] = analysis.CompletedPersonas
		skippedPersonas[question.ID] = countSkipped(responses)
		distributions[question.ID] = analysis.BasicStatistics.Proportions
	}

	if len(results) == 0 {
		if ctx.Err() != nil {
			status.Update(StageError, "Survey timed out")
			return nil, fmt.Errorf("%w: ни один вопрос не успел завершиться", models.ErrSurveyTimeout)
		}
		status.Update(StageError, "All questions failed")
		return nil, fmt.Errorf("%w: ни один вопрос не удалось проанализировать", models.ErrNoDistributions)
	}

	result := &models.SurveyResult{
		QuestionResults: results,
		Metadata: models.SurveyMetadata{
			TotalPersonas:     len(profiles),
			TotalQuestions:    len(req.Questions),
			ErrorCount:        status.ErrorCount(),
			CompletedPersonas: completedPersonas,
			SkippedPersonas:   skippedPersonas,
			DurationSeconds:   time.Since(startTime).Seconds(),
		},
	}

	status.Update(StageQualitativeAnalysis, "Running survey meta-analysis")
	complete, err := s.meta.CompleteAnalysis(ctx, profiles, req.Questions, distributions)
	if err != nil {
		// Мета-анализ - надстройка над результатами, его падение не
		// обесценивает пер-вопросную аналитику
		s.logger.Warn("Мета-анализ опроса не удался", zap.Error(err))
		status.AddError(fmt.Sprintf("Meta-analysis failed: %v", err))
	} else {
		result.CompleteAnalysis = complete
	}
	result.Metadata.ErrorCount = status.ErrorCount()

	status.Update(StageCompleted, "Survey completed")
	s.logger.Info("Прогон опроса завершен",
		zap.Int("questions_analyzed", len(results)),
		zap.Int("errors", result.Metadata.ErrorCount),
		zap.Float64("duration_seconds", result.Metadata.DurationSeconds))

	return result, nil
}

// runQuestion прогоняет один вопрос по всем персонам. Конкурентность
// ограничена с двух сторон: MaxParallelPersonas в пределах вопроса и
// глобальный семафор s.sem на число одновременных пар персона-вопрос.
func (s *SurveySimulation) runQuestion(ctx context.Context, question *models.Question, profiles []*models.Profile, status *SimulationStatus) []models.PersonaResponse {
	options := question.OptionTexts()
	responses := make([]models.PersonaResponse, len(profiles))

	batchSize := s.cfg.MaxParallelPersonas
	if batchSize <= 0 {
		batchSize = len(profiles)
	}
	batchSem := make(chan struct{}, batchSize)

	var wg sync.WaitGroup
	for idx := range profiles {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			batchSem <- struct{}{}
			defer func() { <-batchSem }()
			s.sem <- struct{}{}
			defer func() { <-s.sem }()

			responses[idx] = s.processPersonaQuestion(ctx, profiles[idx], question.Text, options)
			status.PersonaDone()
		}(idx)
	}
	wg.Wait()

	for _, resp := range responses {
		if resp.Error != "" {
			status.AddError(fmt.Sprintf("Error processing persona %s for question %s: %s",
				resp.PersonaID, question.Text, resp.Error))
		}
	}
	return responses
}

// processPersonaQuestion обрабатывает одну пару персона-вопрос. Любая паника
// или ошибка превращается в ответ с заполненным Error: одна персона не
// должна ронять прогон.
func (s *SurveySimulation) processPersonaQuestion(ctx context.Context, p *models.Profile, question string, options []string) (resp models.PersonaResponse) {
	resp = models.PersonaResponse{PersonaID: p.ID}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Паника при обработке персоны",
				zap.String("persona_id", p.ID), zap.Any("panic", r))
			resp = models.PersonaResponse{
				PersonaID: p.ID,
				Reason:    fmt.Sprintf("panic: %v", r),
				Error:     fmt.Sprintf("panic: %v", r),
			}
		}
	}()

	summary, err := s.responder.PersonalitySummary(ctx, p)
	if err != nil {
		resp.Reason = err.Error()
		resp.Error = err.Error()
		return resp
	}
	persona.UpdatePersonalitySummary(p, summary)
	resp.PersonalitySummary = summary

	ensemble, err := s.responder.GetEnsembleDistribution(ctx, p, question, options)
	if err != nil {
		resp.Reason = err.Error()
		resp.Error = err.Error()
		return resp
	}

	if !ensemble.Relevant {
		// Нерелевантность - не ошибка: персона просто пропускает вопрос
		resp.Relevant = false
		resp.Reason = ensemble.Reason
		return resp
	}

	persona.UpdateConversationHistory(p, question, ensemble.Distribution, options)

	resp.Relevant = true
	resp.Distribution = ensemble.Distribution
	resp.Reason = ensemble.Reason
	resp.ReliabilityScore = ensemble.ReliabilityScore
	return resp
}

func countSkipped(responses []models.PersonaResponse) int {
	var n int
	for _, resp := range responses {
		if resp.Error == "" && !resp.Relevant {
			n++
		}
	}
	return n
}
