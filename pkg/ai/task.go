package ai

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/theapemachine/dice-agent/pkg/a2a"
	"github.com/theapemachine/dice-agent/pkg/errors"
	"github.com/theapemachine/dice-agent/pkg/metrics"
	"github.com/theapemachine/dice-agent/pkg/provider"
	"github.com/theapemachine/dice-agent/pkg/stores"
	"github.com/theapemachine/dice-agent/pkg/tools"
)

const (
	ArtifactName        = "dice"
	ArtifactDescription = "dice roll result"
)

/*
TaskManager drives a task through submitted, working and one of the
terminal states. Every transition computes the full next record and
writes it back wholesale.
*/
type TaskManager struct {
	agent     *a2a.AgentCard
	taskStore stores.TaskStore
	invoker   *Invoker
	locks     *keyedMutex
	metrics   *metrics.TaskMetrics
}

type TaskManagerOption func(*TaskManager)

func NewTaskManager(
	card *a2a.AgentCard, options ...TaskManagerOption,
) (*TaskManager, error) {
	taskManager := &TaskManager{
		agent:   card,
		invoker: NewInvoker(nil, nil),
		locks:   newKeyedMutex(),
		metrics: metrics.NewTaskMetrics(),
	}

	for _, option := range options {
		option(taskManager)
	}

	if taskManager.taskStore == nil {
		log.Error("missing task store")
		return nil, errors.NewError(errors.ErrMissingTaskStore{})
	}

	if taskManager.invoker.provider == nil {
		log.Error("missing provider")
		return nil, errors.NewError(errors.ErrMissingProvider{})
	}

	return taskManager, nil
}

func (manager *TaskManager) Card() *a2a.AgentCard {
	return manager.agent
}

func (manager *TaskManager) Metrics() *metrics.TaskMetrics {
	return manager.metrics
}

/*
GetOrCreate loads the record for id and merges msg into it, or creates a
fresh task seeded with msg. Terminal tasks are left untouched and
rejected with ErrTaskAlreadyCompleted.
*/
func (manager *TaskManager) GetOrCreate(
	ctx context.Context, id string, msg a2a.Message,
) (stores.TaskRecord, error) {
	record, ok, err := manager.taskStore.Get(ctx, id)

	if err != nil {
		return stores.TaskRecord{}, manager.storeFailure("get", id, err)
	}

	if !ok {
		record = stores.TaskRecord{Task: a2a.NewTask(id, uuid.NewString(), msg)}
		log.Info("creating task", "task_id", id, "session_id", record.Task.SessionID)

		return manager.save(ctx, record)
	}

	if record.Task.Status.State.Terminal() {
		log.Warn("rejecting send to terminal task", "task_id", id, "state", record.Task.Status.State)
		return stores.TaskRecord{}, errors.ErrTaskAlreadyCompleted
	}

	record.Task.AppendHistory(msg)
	log.Info("continuing task", "task_id", id, "history", len(record.Task.History))

	return manager.save(ctx, record)
}

// BeginWork marks the task working before the completion service is called.
func (manager *TaskManager) BeginWork(
	ctx context.Context, record stores.TaskRecord,
) (stores.TaskRecord, error) {
	record.Task.ToStatus(a2a.TaskStateWorking, nil)
	return manager.save(ctx, record)
}

/*
Complete stores the final answer as the task's only artifact, appends
one agent message per step to the history and marks the task completed.
*/
func (manager *TaskManager) Complete(
	ctx context.Context, record stores.TaskRecord, finalText string, steps []string,
) (stores.TaskRecord, error) {
	record.Task.Artifacts = []a2a.Artifact{
		a2a.NewTextArtifact(ArtifactName, ArtifactDescription, 0, finalText),
	}

	for _, text := range steps {
		record.Task.AppendHistory(*a2a.NewTextMessage(a2a.RoleAgent, text))
	}

	record.Task.ToStatus(a2a.TaskStateCompleted, a2a.NewTextMessage(a2a.RoleAgent, finalText))

	return manager.save(ctx, record)
}

// Fail marks the task failed with an agent message describing cause.
func (manager *TaskManager) Fail(
	ctx context.Context, record stores.TaskRecord, cause error,
) (stores.TaskRecord, error) {
	record.Task.Artifacts = []a2a.Artifact{}
	record.Task.ToStatus(a2a.TaskStateFailed, a2a.NewTextMessage(a2a.RoleAgent, failureText(cause)))

	return manager.save(ctx, record)
}

func (manager *TaskManager) Get(ctx context.Context, id string) (a2a.Task, error) {
	record, ok, err := manager.taskStore.Get(ctx, id)

	if err != nil {
		return a2a.Task{}, manager.storeFailure("get", id, err)
	}

	if !ok {
		return a2a.Task{}, errors.ErrTaskNotFound
	}

	return record.Task, nil
}

/*
SendTask runs one send: merge the message, mark the task working, ask
the completion service and fold its answer back in. A failing completion
still yields a result, carrying the failed state.
*/
func (manager *TaskManager) SendTask(
	ctx context.Context, params a2a.TaskSendParams,
) (a2a.SendTaskResult, error) {
	if params.ID == "" || params.Message == nil {
		return a2a.SendTaskResult{}, errors.ErrInvalidParams
	}

	unlock := manager.locks.Lock(params.ID)
	defer unlock()

	record, err := manager.GetOrCreate(ctx, params.ID, *params.Message)

	if err != nil {
		if stderrors.Is(err, errors.ErrTaskAlreadyCompleted) {
			manager.metrics.RecordRejection()
		}

		return a2a.SendTaskResult{}, err
	}

	if record, err = manager.BeginWork(ctx, record); err != nil {
		return a2a.SendTaskResult{}, err
	}

	started := time.Now()
	response, invokeErr := manager.invoker.Invoke(ctx, *params.Message)
	manager.metrics.RecordRun(invokeErr == nil, time.Since(started))

	// The request may be gone by now; the task still has to leave working.
	finishCtx := context.WithoutCancel(ctx)

	if invokeErr != nil {
		record, err = manager.Fail(finishCtx, record, invokeErr)
	} else {
		record, err = manager.Complete(finishCtx, record, response.Text, stepTexts(response.Steps))
	}

	if err != nil {
		return a2a.SendTaskResult{}, err
	}

	log.Info("task finished", "task_id", record.Task.ID, "state", record.Task.Status.State)

	return a2a.SendTaskResult{
		ID:        record.Task.ID,
		SessionID: record.Task.SessionID,
		Status:    record.Task.Status.State,
		Artifacts: record.Task.Artifacts,
	}, nil
}

func (manager *TaskManager) save(
	ctx context.Context, record stores.TaskRecord,
) (stores.TaskRecord, error) {
	stored, err := manager.taskStore.Put(ctx, record.Task.ID, record)

	if err != nil {
		return stores.TaskRecord{}, manager.storeFailure("put", record.Task.ID, err)
	}

	return stored, nil
}

func (manager *TaskManager) storeFailure(op, id string, err error) error {
	log.Error("task store failed", "op", op, "task_id", id, "error", err)

	if stderrors.Is(err, stores.ErrVersionConflict) {
		return errors.ErrTaskStore.WithMessagef("Task %s was modified concurrently", id)
	}

	return errors.ErrTaskStore
}

func stepTexts(steps []provider.Step) []string {
	out := make([]string, 0, len(steps))

	for _, step := range steps {
		out = append(out, step.Text)
	}

	return out
}

func failureText(cause error) string {
	if stderrors.Is(cause, context.DeadlineExceeded) {
		return "The task failed: the completion service timed out."
	}

	return fmt.Sprintf("The task failed: %v", cause)
}

func WithTaskStore(taskStore stores.TaskStore) TaskManagerOption {
	return func(manager *TaskManager) {
		manager.taskStore = taskStore
	}
}

func WithProvider(prvdr provider.Interface) TaskManagerOption {
	return func(manager *TaskManager) {
		manager.invoker.provider = prvdr
	}
}

func WithTools(registry *tools.Registry) TaskManagerOption {
	return func(manager *TaskManager) {
		manager.invoker.tools = registry
	}
}

// WithTimeout bounds each completion call. Zero disables the bound.
func WithTimeout(timeout time.Duration) TaskManagerOption {
	return func(manager *TaskManager) {
		manager.invoker.timeout = timeout
	}
}

func WithMaxSteps(maxSteps int) TaskManagerOption {
	return func(manager *TaskManager) {
		if maxSteps > 0 {
			manager.invoker.maxSteps = maxSteps
		}
	}
}

func WithSystem(system string) TaskManagerOption {
	return func(manager *TaskManager) {
		manager.invoker.system = system
	}
}

// WithMetrics shares m with other components, such as the server's metrics route.
func WithMetrics(m *metrics.TaskMetrics) TaskManagerOption {
	return func(manager *TaskManager) {
		if m != nil {
			manager.metrics = m
		}
	}
}
