// Package store holds the local view of the task collection and keeps it in
// sync with a remote service.Service.
//
// Every mutation follows the same three phases: capture the pre-state, apply
// the change locally, then call the remote API. A failed add or toggle
// restores the captured state exactly; a failed edit or delete reloads the
// collection from the server instead, because the tentative change may
// already have been shown. Only one mutation can be in flight per store, and
// its ActionState is cleared on every exit path.
package store

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"tasklist/internal/service"
)

// TempIDPrefix prefixes the ids of tasks that are not yet created remotely.
const TempIDPrefix = "tmp-"

// IsTemporaryID reports whether id was generated locally by Add.
func IsTemporaryID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// State is a point-in-time copy of everything a presentation layer renders.
type State struct {
	Tasks   []service.Task
	Loading bool
	Action  ActionState
	Err     string
	Draft   service.Draft
	Editing string
}

// Store is the task collection plus its synchronization state.
// The zero value is not usable; create one with New.
type Store struct {
	svc                service.Service
	notifier           *Notifier
	metrics            *metrics
	logger             *slog.Logger
	clearOnLoadFailure bool
	newID              func() string
	loads              singleflight.Group

	mu      sync.RWMutex
	tasks   []service.Task
	loading bool
	action  ActionState
	lastErr string
	draft   service.Draft
	editing string

	obsMu     sync.RWMutex
	observers []func()
}

// Option configures a Store.
type Option func(*options)

type options struct {
	logger              *slog.Logger
	registerer          prometheus.Registerer
	notificationTimeout time.Duration
	clearOnLoadFailure  bool
	newID               func() string
}

// WithLogger sets the store logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithRegisterer registers the store metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithNotificationTimeout sets how long notifications stay visible.
func WithNotificationTimeout(d time.Duration) Option {
	return func(o *options) { o.notificationTimeout = d }
}

// WithClearOnLoadFailure makes a failed Load empty the collection instead of
// keeping the previous contents.
func WithClearOnLoadFailure(clear bool) Option {
	return func(o *options) { o.clearOnLoadFailure = clear }
}

// WithIDGenerator replaces the temporary id generator used by Add.
func WithIDGenerator(fn func() string) Option {
	return func(o *options) { o.newID = fn }
}

// New creates an empty store backed by svc.
func New(svc service.Service, opts ...Option) *Store {
	o := options{
		logger:              slog.Default(),
		notificationTimeout: DefaultNotificationTimeout,
		newID:               func() string { return TempIDPrefix + uuid.NewString() },
	}
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger.With("component", "task_store")
	return &Store{
		svc:                svc,
		notifier:           NewNotifier(o.notificationTimeout, o.logger),
		metrics:            newMetrics(o.registerer),
		logger:             logger,
		clearOnLoadFailure: o.clearOnLoadFailure,
		newID:              o.newID,
	}
}

// Notifier returns the store's notification channel.
func (s *Store) Notifier() *Notifier {
	return s.notifier
}

// OnChange registers fn to be called after every state change.
// fn must not block; it runs on the goroutine that made the change.
func (s *Store) OnChange(fn func()) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Store) changed() {
	s.obsMu.RLock()
	observers := make([]func(), len(s.observers))
	copy(observers, s.observers)
	s.obsMu.RUnlock()

	for _, fn := range observers {
		fn()
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		Tasks:   cloneTasks(s.tasks),
		Loading: s.loading,
		Action:  s.action,
		Err:     s.lastErr,
		Draft:   s.draft,
		Editing: s.editing,
	}
}

// Tasks returns a copy of the collection in display order.
func (s *Store) Tasks() []service.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks)
}

// Task returns the task with the given id.
func (s *Store) Task(id string) (service.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := indexOf(s.tasks, id); i >= 0 {
		return s.tasks[i], true
	}
	return service.Task{}, false
}

// Loading reports whether a Load is in progress.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Action returns the in-flight mutation, if any.
func (s *Store) Action() ActionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.action
}

// Err returns the last error message, or "" if none.
func (s *Store) Err() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// ClearErr dismisses the last error.
func (s *Store) ClearErr() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
	s.changed()
}

// SetDraft stores the contents of the create form.
func (s *Store) SetDraft(d service.Draft) {
	s.mu.Lock()
	s.draft = d
	s.mu.Unlock()
	s.changed()
}

// Draft returns the contents of the create form.
func (s *Store) Draft() service.Draft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.draft
}

// BeginEdit opens the edit form for a task.
func (s *Store) BeginEdit(id string) error {
	s.mu.Lock()
	if indexOf(s.tasks, id) < 0 {
		s.mu.Unlock()
		return ErrTaskNotFound
	}
	s.editing = id
	s.mu.Unlock()
	s.changed()
	return nil
}

// CancelEdit closes the edit form without saving.
func (s *Store) CancelEdit() {
	s.mu.Lock()
	s.editing = ""
	s.mu.Unlock()
	s.changed()
}

// Editing returns the id of the task whose edit form is open, or "".
func (s *Store) Editing() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.editing
}

// Load replaces the collection with the server's. Concurrent calls share
// one request, which runs detached from any single caller's cancellation and
// is bounded by the backend's own timeout. A caller whose ctx ends first
// returns ctx.Err() while the shared load carries on.
func (s *Store) Load(ctx context.Context) error {
	ch := s.loads.DoChan("load", func() (any, error) {
		return nil, s.load(context.WithoutCancel(ctx))
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.logger.Debug("joined in-progress load")
		}
		return res.Err
	}
}

func (s *Store) load(ctx context.Context) (err error) {
	s.setLoading(true)
	defer s.setLoading(false)
	defer func() { s.metrics.observe("load", err) }()

	tasks, err := s.svc.ListTasks(ctx)
	if err != nil {
		s.mu.Lock()
		if s.clearOnLoadFailure {
			s.tasks = nil
		}
		s.lastErr = FetchFailed.Message()
		s.mu.Unlock()

		s.logger.Warn("load failed", "error", err)
		s.notifier.Error(FetchFailed.Message())
		return &OpError{Kind: FetchFailed, Err: err}
	}

	s.mu.Lock()
	s.tasks = dedupe(tasks)
	s.lastErr = ""
	s.mu.Unlock()

	s.logger.Debug("loaded tasks", "count", len(tasks))
	return nil
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
	s.changed()
}

func indexOf(tasks []service.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func cloneTasks(tasks []service.Task) []service.Task {
	out := make([]service.Task, len(tasks))
	copy(out, tasks)
	return out
}

// dedupe keeps the first task for each id.
func dedupe(tasks []service.Task) []service.Task {
	seen := make(map[string]struct{}, len(tasks))
	out := make([]service.Task, 0, len(tasks))
	for _, t := range tasks {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		out = append(out, t)
	}
	return out
}
