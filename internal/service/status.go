// Package service содержит оркестрацию опроса: ансамблевые запросы к модели,
// последовательный прогон вопросов и отслеживание статуса.
package service

import (
	"sync"
	"time"
)

// SurveyStage - этап прогона опроса. Строковые значения показываются клиенту.
type SurveyStage string

const (
	StageInitializing         SurveyStage = "Initializing survey"
	StageBuildingPrompts      SurveyStage = "Fetching Personas"
	StageQueryingLLM          SurveyStage = "Surveying Personas"
	StageQuantitativeAnalysis SurveyStage = "Sampling Responses"
	StageQualitativeAnalysis  SurveyStage = "Analyzing Responses"
	StageCompleted            SurveyStage = "Completed"
	StageError                SurveyStage = "Error"
)

// StatusSnapshot - моментальный снимок статуса прогона.
type StatusSnapshot struct {
	StartTime         time.Time   `json:"start_time"`
	CurrentQuestion   int         `json:"current_question"`
	TotalQuestions    int         `json:"total_questions"`
	CompletedPersonas int         `json:"completed_personas"`
	TotalPersonas     int         `json:"total_personas"`
	Stage             SurveyStage `json:"stage"`
	Message           string      `json:"message"`
	Errors            []string    `json:"errors"`
}

// SimulationStatus отслеживает прогресс прогона. Безопасен для конкурентного
// использования: обработчики персон пишут из разных горутин.
type SimulationStatus struct {
	mu sync.Mutex
	s  StatusSnapshot
}

func NewSimulationStatus(totalQuestions, totalPersonas int) *SimulationStatus {
	return &SimulationStatus{
		s: StatusSnapshot{
			StartTime:      time.Now(),
			TotalQuestions: totalQuestions,
			TotalPersonas:  totalPersonas,
			Stage:          StageInitializing,
			Errors:         []string{},
		},
	}
}

// Init задает итоговые размеры прогона, когда они становятся известны.
func (ss *SimulationStatus) Init(totalQuestions, totalPersonas int) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.s.TotalQuestions = totalQuestions
	ss.s.TotalPersonas = totalPersonas
}

// Update переводит прогон на новый этап.
func (ss *SimulationStatus) Update(stage SurveyStage, message string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.s.Stage = stage
	ss.s.Message = message
}

// StartQuestion отмечает начало обработки вопроса (нумерация с единицы).
func (ss *SimulationStatus) StartQuestion(index int) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.s.CurrentQuestion = index
	ss.s.CompletedPersonas = 0
}

// PersonaDone увеличивает счетчик обработанных персон текущего вопроса.
func (ss *SimulationStatus) PersonaDone() {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.s.CompletedPersonas++
}

// AddError фиксирует ошибку обработки; прогон при этом продолжается.
func (ss *SimulationStatus) AddError(msg string) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	ss.s.Errors = append(ss.s.Errors, msg)
}

// ErrorCount возвращает число накопленных ошибок.
func (ss *SimulationStatus) ErrorCount() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.s.Errors)
}

// Snapshot возвращает копию текущего статуса.
func (ss *SimulationStatus) Snapshot() StatusSnapshot {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	out := ss.s
	out.Errors = make([]string, len(ss.s.Errors))
	copy(out.Errors, ss.s.Errors)
	return out
}
