// Package taskmanager управляет фоновыми задачами с отслеживанием статуса.
// Используется для асинхронных прогонов опросов: прогон может занимать
// минуты, HTTP-клиент получает идентификатор задачи и опрашивает ее статус.
package taskmanager

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ITaskManager определяет интерфейс для управления задачами.
type ITaskManager interface {
	SubmitTask(ctx context.Context, taskFunc TaskFunc) (uuid.UUID, error)
	GetTask(taskID uuid.UUID) (*Task, error)
	CancelTask(taskID uuid.UUID) error
	CleanupTasks(age time.Duration)
	Shutdown(ctx context.Context) error
	Close()
}

// TaskStatus представляет статус задачи.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// TaskFunc представляет функцию, выполняемую в задаче.
type TaskFunc func(ctx context.Context) (interface{}, error)

// Task представляет асинхронную задачу.
type Task struct {
	ID        uuid.UUID
	Status    TaskStatus
	Message   string
	Result    interface{}
	CreatedAt time.Time
	UpdatedAt time.Time
	Cancel    context.CancelFunc
}

// TaskManager управляет асинхронными задачами.
type TaskManager struct {
	tasks     map[uuid.UUID]*Task
	mu        sync.RWMutex
	maxTasks  int
	closing   chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Config содержит конфигурацию для TaskManager.
type Config struct {
	MaxTasks int
}

// New создает новый экземпляр TaskManager.
func New(cfg Config) (*TaskManager, error) {
	maxTasks := cfg.MaxTasks
	if maxTasks <= 0 {
		maxTasks = 10
	}

	return &TaskManager{
		tasks:    make(map[uuid.UUID]*Task),
		maxTasks: maxTasks,
		closing:  make(chan struct{}),
	}, nil
}

// SubmitTask создает и запускает новую задачу. Задача получает независимый
// контекст: отмена HTTP-запроса, породившего задачу, не прерывает прогон.
func (tm *TaskManager) SubmitTask(ctx context.Context, taskFunc TaskFunc) (uuid.UUID, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	select {
	case <-tm.closing:
		return uuid.UUID{}, errors.New("менеджер задач останавливается")
	default:
	}

	activeTasks := 0
	for _, task := range tm.tasks {
		if task.Status == TaskStatusPending || task.Status == TaskStatusRunning {
			activeTasks++
		}
	}
	if activeTasks >= tm.maxTasks {
		return uuid.UUID{}, errors.New("превышено максимальное количество активных задач")
	}

	taskID := uuid.New()

	baseTaskCtx, cancel := context.WithCancel(context.Background())
	taskLogger := log.Ctx(ctx)
	taskCtx := taskLogger.WithContext(baseTaskCtx)

	task := &Task{
		ID:        taskID,
		Status:    TaskStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
		Cancel:    cancel,
	}
	tm.tasks[taskID] = task

	tm.wg.Add(1)
	go func() {
		defer tm.wg.Done()
		defer cancel()

		tm.runTask(taskCtx, task, taskFunc)
	}()

	return taskID, nil
}

func (tm *TaskManager) runTask(ctx context.Context, task *Task, taskFunc TaskFunc) {
	tm.updateTaskStatus(ctx, task, TaskStatusRunning, "Задача запущена", nil)

	result, err := taskFunc(ctx)

	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			log.Ctx(ctx).Info().Str("taskID", task.ID.String()).Msg("Контекст задачи был отменен")
			tm.updateTaskStatus(ctx, task, TaskStatusCancelled, "Задача отменена", nil)
		} else {
			log.Ctx(ctx).Error().Err(ctx.Err()).Str("taskID", task.ID.String()).Msg("Ошибка контекста задачи")
			tm.updateTaskStatus(ctx, task, TaskStatusFailed, fmt.Sprintf("Ошибка контекста: %v", ctx.Err()), nil)
		}
		return
	}

	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("taskID", task.ID.String()).Msg("Задача завершилась с ошибкой")
		tm.updateTaskStatus(ctx, task, TaskStatusFailed, fmt.Sprintf("Ошибка: %v", err), nil)
	} else {
		log.Ctx(ctx).Info().Str("taskID", task.ID.String()).Msg("Задача успешно выполнена")
		tm.updateTaskStatus(ctx, task, TaskStatusCompleted, "Задача успешно выполнена", result)
	}
}

func (tm *TaskManager) updateTaskStatus(ctx context.Context, task *Task, status TaskStatus, message string, result interface{}) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	task.Status = status
	task.Message = message
	task.UpdatedAt = time.Now()
	if result != nil {
		task.Result = result
	}

	log.Ctx(ctx).Info().
		Str("taskID", task.ID.String()).
		Str("newStatus", string(task.Status)).
		Str("message", task.Message).
		Msg("Статус задачи обновлен")
}

// GetTask возвращает информацию о задаче по ID.
func (tm *TaskManager) GetTask(taskID uuid.UUID) (*Task, error) {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	task, ok := tm.tasks[taskID]
	if !ok {
		return nil, fmt.Errorf("задача с ID %s не найдена", taskID)
	}

	// Возвращаем копию: статус задачи обновляется конкурентно
	taskCopy := *task
	taskCopy.Cancel = nil
	return &taskCopy, nil
}

// CancelTask отменяет выполнение задачи.
func (tm *TaskManager) CancelTask(taskID uuid.UUID) error {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	task, ok := tm.tasks[taskID]
	if !ok {
		return fmt.Errorf("задача с ID %s не найдена", taskID)
	}

	if task.Status != TaskStatusPending && task.Status != TaskStatusRunning {
		return fmt.Errorf("невозможно отменить задачу в статусе %s", task.Status)
	}

	if task.Cancel != nil {
		task.Cancel()
	}

	task.Status = TaskStatusCancelled
	task.Message = "Задача отменена пользователем"
	task.UpdatedAt = time.Now()

	return nil
}

// CleanupTasks удаляет завершенные задачи, которые старше указанного времени.
func (tm *TaskManager) CleanupTasks(age time.Duration) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	now := time.Now()
	for id, task := range tm.tasks {
		if (task.Status == TaskStatusCompleted || task.Status == TaskStatusFailed || task.Status == TaskStatusCancelled) &&
			now.Sub(task.UpdatedAt) > age {
			delete(tm.tasks, id)
		}
	}
}

// Shutdown ожидает завершения всех задач с таймаутом.
func (tm *TaskManager) Shutdown(ctx context.Context) error {
	tm.closeOnce.Do(func() { close(tm.closing) })

	done := make(chan struct{})
	go func() {
		tm.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.New("таймаут при ожидании завершения задач")
	}
}

// Close закрывает менеджер задач и отменяет все незавершенные задачи.
func (tm *TaskManager) Close() {
	tm.closeOnce.Do(func() { close(tm.closing) })
	tm.mu.Lock()
	for _, task := range tm.tasks {
		if task.Status == TaskStatusPending || task.Status == TaskStatusRunning {
			if task.Cancel != nil {
				task.Cancel()
			}
		}
	}
	tm.mu.Unlock()

	tm.wg.Wait()
}
