package store

import (
	"context"

	"tasklist/internal/service"
)

// Add creates a task. A temporary task is appended immediately and replaced
// in place by the server's task on success, or removed on failure.
func (s *Store) Add(ctx context.Context, draft service.Draft) error {
	if draft.Blank() {
		return ErrEmptyTitle
	}

	tempID := s.newID()

	s.mu.Lock()
	if err := s.begin(ActionAdd, NewTaskTarget); err != nil {
		s.mu.Unlock()
		return err
	}
	s.tasks = append(s.tasks, service.Task{
		ID:          tempID,
		Title:       draft.Title,
		Description: draft.Description,
	})
	s.mu.Unlock()
	defer s.finish()
	s.changed()

	s.logger.Debug("optimistic add", "temp_id", tempID)

	created, err := s.svc.CreateTask(ctx, draft)
	if err != nil {
		s.mu.Lock()
		s.tasks = removeTask(s.tasks, tempID)
		s.lastErr = CreateFailed.Message()
		s.mu.Unlock()

		s.metrics.rollback("add", strategyRestore)
		return s.fail("add", CreateFailed, "", err)
	}

	s.mu.Lock()
	s.tasks = replaceTemp(s.tasks, tempID, created)
	s.draft = service.Draft{}
	s.mu.Unlock()

	s.succeed("add", "Task added successfully")
	return nil
}

// ToggleComplete flips a task's completed flag. On failure the flag is set
// back to the value it had before the call.
func (s *Store) ToggleComplete(ctx context.Context, id string) error {
	s.mu.Lock()
	i := indexOf(s.tasks, id)
	if i < 0 {
		s.mu.Unlock()
		return ErrTaskNotFound
	}
	if err := s.begin(ActionToggle, id); err != nil {
		s.mu.Unlock()
		return err
	}
	prev := s.tasks[i].Completed
	next := !prev
	s.tasks[i].Completed = next
	s.mu.Unlock()
	defer s.finish()
	s.changed()

	updated, err := s.svc.UpdateTask(ctx, id, service.PatchCompleted(next))
	if err != nil {
		s.mu.Lock()
		if j := indexOf(s.tasks, id); j >= 0 {
			s.tasks[j].Completed = prev
		}
		s.lastErr = UpdateFailed.Message()
		s.mu.Unlock()

		s.metrics.rollback("toggle", strategyRestore)
		return s.fail("toggle", UpdateFailed, id, err)
	}

	s.mu.Lock()
	if j := indexOf(s.tasks, id); j >= 0 && updated.ID == id {
		s.tasks[j] = updated
	}
	s.mu.Unlock()

	if next {
		s.succeed("toggle", "Task marked as completed")
	} else {
		s.succeed("toggle", "Task marked as incomplete")
	}
	return nil
}

// Edit replaces a task's title and description. On success the local task is
// replaced by the server's representation; on failure the collection is
// reloaded.
func (s *Store) Edit(ctx context.Context, id string, draft service.Draft) error {
	s.mu.Lock()
	i := indexOf(s.tasks, id)
	if i < 0 {
		s.mu.Unlock()
		return ErrTaskNotFound
	}
	if draft.Blank() {
		s.mu.Unlock()
		return ErrEmptyTitle
	}
	if err := s.begin(ActionEdit, id); err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := cloneTasks(s.tasks)
	patch := service.PatchFromDraft(draft)
	s.tasks[i] = patch.Apply(s.tasks[i])
	s.mu.Unlock()
	defer s.finish()
	s.changed()

	updated, err := s.svc.UpdateTask(ctx, id, patch)
	if err != nil {
		s.mu.Lock()
		s.lastErr = UpdateFailed.Message()
		s.mu.Unlock()

		opErr := s.fail("edit", UpdateFailed, id, err)
		s.resync(ctx, "edit", snapshot)
		return opErr
	}

	s.mu.Lock()
	if j := indexOf(s.tasks, id); j >= 0 && updated.ID == id {
		s.tasks[j] = updated
	}
	if s.editing == id {
		s.editing = ""
	}
	s.mu.Unlock()

	s.succeed("edit", "Task updated successfully")
	return nil
}

// Delete removes a task. On failure the collection is reloaded, which brings
// the task back if the server still has it.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if indexOf(s.tasks, id) < 0 {
		s.mu.Unlock()
		return ErrTaskNotFound
	}
	if err := s.begin(ActionDelete, id); err != nil {
		s.mu.Unlock()
		return err
	}
	snapshot := cloneTasks(s.tasks)
	s.tasks = removeTask(s.tasks, id)
	if s.editing == id {
		s.editing = ""
	}
	s.mu.Unlock()
	defer s.finish()
	s.changed()

	if err := s.svc.DeleteTask(ctx, id); err != nil {
		s.mu.Lock()
		s.lastErr = DeleteFailed.Message()
		s.mu.Unlock()

		opErr := s.fail("delete", DeleteFailed, id, err)
		s.resync(ctx, "delete", snapshot)
		return opErr
	}

	s.succeed("delete", "Task deleted successfully")
	return nil
}

// begin claims the action slot. Must be called with s.mu held.
func (s *Store) begin(kind ActionKind, target string) error {
	if s.action.Active() {
		s.logger.Debug("rejected action",
			"kind", kind,
			"target", target,
			"in_flight", s.action.Kind)
		return ErrActionInFlight
	}
	s.action = ActionState{TargetID: target, Kind: kind}
	s.metrics.inflight.Inc()
	return nil
}

// finish releases the action slot.
func (s *Store) finish() {
	s.mu.Lock()
	s.action = ActionState{}
	s.mu.Unlock()
	s.metrics.inflight.Dec()
	s.changed()
}

func (s *Store) succeed(op, msg string) {
	s.metrics.observe(op, nil)
	s.logger.Debug("action succeeded", "operation", op)
	s.notifier.Success(msg)
}

func (s *Store) fail(op string, kind ErrorKind, id string, err error) error {
	s.metrics.observe(op, err)
	s.logger.Warn("action failed",
		"operation", op,
		"task_id", id,
		"error", err)
	s.notifier.Error(kind.Message())
	return &OpError{Kind: kind, TaskID: id, Err: err}
}

// resync reloads the collection after a failed edit or delete without
// touching the loading flag or notifications. If the reload fails too, the
// snapshot taken before the optimistic change is restored.
func (s *Store) resync(ctx context.Context, op string, snapshot []service.Task) {
	tasks, err := s.svc.ListTasks(ctx)

	s.mu.Lock()
	if err != nil {
		s.tasks = snapshot
	} else {
		s.tasks = dedupe(tasks)
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("resync failed, restored snapshot", "operation", op, "error", err)
		s.metrics.rollback(op, strategyRestore)
		return
	}
	s.metrics.rollback(op, strategyResync)
}

func removeTask(tasks []service.Task, id string) []service.Task {
	out := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

// replaceTemp swaps the temporary task for the created one, keeping its
// position. A reload that ran meanwhile may already hold the created task,
// or may have dropped the temporary one; ids stay unique either way.
func replaceTemp(tasks []service.Task, tempID string, created service.Task) []service.Task {
	out := make([]service.Task, 0, len(tasks))
	placed := false
	for _, t := range tasks {
		if t.ID == tempID || t.ID == created.ID {
			if !placed {
				out = append(out, created)
				placed = true
			}
			continue
		}
		out = append(out, t)
	}
	if !placed {
		out = append(out, created)
	}
	return out
}
