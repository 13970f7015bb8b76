// Package googletasks implements the service.Service interface using Google Tasks API.
package googletasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	tasks "google.golang.org/api/tasks/v1"

	"tasklist/internal/service"
)

const (
	// DefaultListID is the special ID for the default list.
	DefaultListID = "@default"

	// PageSize is the number of tasks per page.
	PageSize = 100

	// APITimeout is the default timeout for API calls.
	APITimeout = 10 * time.Second

	// Google Tasks status values.
	statusCompleted   = "completed"
	statusNeedsAction = "needsAction"

	// OAuth scope for Google Tasks
	tasksScope = "https://www.googleapis.com/auth/tasks"
)

// Client implements service.Service on a single Google Tasks list.
type Client struct {
	svc     *tasks.Service
	listID  string
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-call timeout. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithListID selects a list other than the user's default.
func WithListID(id string) Option {
	return func(c *Client) { c.listID = id }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a new Google Tasks client from an OAuth client file and a
// previously obtained token file.
func New(ctx context.Context, oauthClientPath, tokenPath string, opts ...Option) (*Client, error) {
	// Load OAuth client config
	clientJSON, err := os.ReadFile(oauthClientPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read oauth client file: %w", err)
	}

	oauthConfig, err := google.ConfigFromJSON(clientJSON, tasksScope)
	if err != nil {
		return nil, fmt.Errorf("invalid oauth client file: %w", err)
	}

	// Load token
	tokenData, err := os.ReadFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	var token oauth2.Token
	if err := json.Unmarshal(tokenData, &token); err != nil {
		return nil, fmt.Errorf("invalid token file: %w", err)
	}

	// Token source refreshes automatically
	httpClient := oauth2.NewClient(ctx, oauthConfig.TokenSource(ctx, &token))
	return NewWithHTTPClient(ctx, httpClient, "", opts...)
}

// NewWithHTTPClient creates a client with a custom HTTP client. A non-empty
// endpoint replaces the Google API base URL (for testing).
func NewWithHTTPClient(ctx context.Context, httpClient *http.Client, endpoint string, opts ...Option) (*Client, error) {
	clientOpts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(endpoint))
	}
	svc, err := tasks.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create tasks service: %w", err)
	}

	c := &Client{
		svc:     svc,
		listID:  DefaultListID,
		timeout: APITimeout,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "googletasks_client", "list", c.listID)
	return c, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.timeout)
}

// ListTasks implements service.Service. Completed and hidden tasks are
// included; every page is fetched.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	result := []service.Task{}
	err := c.svc.Tasks.List(c.listID).
		MaxResults(PageSize).
		ShowCompleted(true).
		ShowHidden(true).
		ShowDeleted(false).
		Pages(ctx, func(resp *tasks.Tasks) error {
			for _, t := range resp.Items {
				result = append(result, fromAPI(t))
			}
			return nil
		})
	if err != nil {
		return nil, wrapError(err)
	}

	c.logger.Debug("listed tasks", "count", len(result))
	return result, nil
}

// CreateTask implements service.Service.
func (c *Client) CreateTask(ctx context.Context, draft service.Draft) (service.Task, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	created, err := c.svc.Tasks.Insert(c.listID, &tasks.Task{
		Title: draft.Title,
		Notes: draft.Description,
	}).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return fromAPI(created), nil
}

// UpdateTask implements service.Service. Only the fields set in patch are
// sent.
func (c *Client) UpdateTask(ctx context.Context, id string, patch service.Patch) (service.Task, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	updated, err := c.svc.Tasks.Patch(c.listID, id, toAPIPatch(patch)).Context(ctx).Do()
	if err != nil {
		return service.Task{}, wrapError(err)
	}
	return fromAPI(updated), nil
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.svc.Tasks.Delete(c.listID, id).Context(ctx).Do(); err != nil {
		return wrapError(err)
	}
	return nil
}

func fromAPI(t *tasks.Task) service.Task {
	return service.Task{
		ID:          t.Id,
		Title:       t.Title,
		Description: t.Notes,
		Completed:   t.Status == statusCompleted,
	}
}

func toAPIPatch(p service.Patch) *tasks.Task {
	t := &tasks.Task{}
	if p.Title != nil {
		t.Title = *p.Title
		t.ForceSendFields = append(t.ForceSendFields, "Title")
	}
	if p.Description != nil {
		t.Notes = *p.Description
		t.ForceSendFields = append(t.ForceSendFields, "Notes")
	}
	if p.Completed != nil {
		if *p.Completed {
			t.Status = statusCompleted
		} else {
			t.Status = statusNeedsAction
			t.NullFields = append(t.NullFields, "Completed")
		}
	}
	return t
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	// Check for timeout
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("request timed out: %w", err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("token expired or revoked: %w", err)
		case http.StatusNotFound:
			return fmt.Errorf("not found: %w", err)
		}
	}

	return err
}
