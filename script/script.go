package script

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/namezys/hass-home-script/action"
)

// task is one cancellable unit of in-flight asynchronous work.
type task struct {
	id     string
	name   string
	cancel context.CancelFunc
	done   chan struct{}
}

// Script is a named execution context. Only one action set of a script is
// meant to be in flight at any time; the dispatch engine cancels the old set
// before launching a new one.
type Script struct {
	name   string
	logger *slog.Logger

	mu      sync.Mutex
	tasks   map[string]*task
	stopped bool
}

func newScript(name string) *Script {
	return &Script{
		name:   name,
		logger: slog.Default().With("component", "script", "script", name),
		tasks:  make(map[string]*task),
	}
}

// Name returns the script name.
func (s *Script) Name() string {
	return s.name
}

// ActiveTasks returns the number of currently recorded in-flight tasks.
func (s *Script) ActiveTasks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// Stopped reports whether the script accepts new actions.
func (s *Script) Stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopped
}

// RunAction executes one action for this script. Asynchronous actions are
// launched as cancellable tasks and tracked until completion; synchronous
// ones run inline on the calling goroutine. Failures are logged and isolated.
// A stopped script skips the action silently.
func (s *Script) RunAction(ctx context.Context, act action.Action) {
	if s.Stopped() {
		s.logger.Debug("script is stopped, skip action", "action", act.String())
		return
	}
	s.logger.Debug("run action", "action", act.String())
	if act.IsAsync() {
		s.runTask(ctx, act)
		return
	}
	s.runInline(act)
}

// runTask launches an asynchronous action as one tracked task.
func (s *Script) runTask(ctx context.Context, act action.Action) {
	runCtx, cancel := context.WithCancel(ctx)
	t := &task{
		id:     uuid.NewString(),
		name:   act.String(),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		cancel()
		s.logger.Debug("script is stopped, skip action", "action", t.name)
		return
	}
	s.tasks[t.id] = t
	s.mu.Unlock()

	go func() {
		defer close(t.done)
		defer s.removeTask(t.id)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("panic in action", "action", t.name, "panic", r)
			}
		}()

		s.logger.Info("run async task", "action", t.name, "task", t.id)
		err := act.RunContext(runCtx)
		switch {
		case err == nil:
			s.logger.Debug("task finished", "action", t.name, "task", t.id)
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			// Preempted by a newer action set or an engine stop.
			s.logger.Debug("task cancelled", "action", t.name, "task", t.id)
		default:
			s.logger.Error("error in action", "action", t.name, "task", t.id, "error", err)
		}
	}()
}

// runInline executes a synchronous action on the calling goroutine.
func (s *Script) runInline(act action.Action) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in action", "action", act.String(), "panic", r)
		}
	}()
	s.logger.Info("run action inline", "action", act.String())
	if err := act.Run(); err != nil {
		s.logger.Error("error in action", "action", act.String(), "error", err)
		return
	}
	s.logger.Debug("action finished", "action", act.String())
}

func (s *Script) removeTask(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tasks, id)
}

// CancelAll requests cancellation of every recorded task. It does not wait
// for completion and does not clear the set; each task removes itself when it
// finishes.
func (s *Script) CancelAll() {
	s.mu.Lock()
	tasks := make([]*task, 0, len(s.tasks))
	for _, t := range s.tasks {
		tasks = append(tasks, t)
	}
	s.mu.Unlock()

	s.logger.Debug("cancel all tasks", "count", len(tasks))
	for _, t := range tasks {
		s.logger.Debug("cancel task", "action", t.name, "task", t.id)
		t.cancel()
	}
}

// Stop marks the script stopped and cancels all in-flight tasks. There is no
// way back; the engine creates a fresh context when rules are reloaded.
func (s *Script) Stop() {
	s.mu.Lock()
	alreadyStopped := s.stopped
	s.stopped = true
	s.mu.Unlock()
	if alreadyStopped {
		return
	}
	s.logger.Debug("stop script")
	s.CancelAll()
}

// Wait blocks until every in-flight task completes or the timeout expires.
// It reports whether the script drained in time.
func (s *Script) Wait(timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for {
		s.mu.Lock()
		var pending *task
		for _, t := range s.tasks {
			pending = t
			break
		}
		s.mu.Unlock()
		if pending == nil {
			return true
		}
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false
		}
		select {
		case <-pending.done:
		case <-time.After(remaining):
			return false
		}
	}
}
