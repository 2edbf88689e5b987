package client

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"toolgate/internal/enrollment/metrics"
	"toolgate/internal/enrollment/models"
	"toolgate/pkg/domain"
	"toolgate/pkg/platform/circuit"
	"toolgate/pkg/platform/sentinel"
)

const coursesEndpoint = "user_courses"

// HTTP talks to the learning platform's REST API. Calls are bounded by the
// client timeout and guarded by a circuit breaker; when the breaker is open
// the client fails fast with sentinel.ErrUnavailable so callers can apply
// their deny-by-default fallback without waiting out a timeout.
type HTTP struct {
	baseURL string
	apiKey  string
	client  *http.Client
	breaker *circuit.Breaker
	logger  *slog.Logger
}

// HTTPOption configures the HTTP provider.
type HTTPOption func(*HTTP)

// WithTimeout bounds each platform call.
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		if d > 0 {
			h.client.Timeout = d
		}
	}
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *circuit.Breaker) HTTPOption {
	return func(h *HTTP) {
		if b != nil {
			h.breaker = b
		}
	}
}

// WithLogger attaches a logger for breaker transitions and call failures.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(h *HTTP) {
		h.logger = logger
	}
}

// NewHTTP constructs a learning platform provider.
func NewHTTP(baseURL, apiKey string, opts ...HTTPOption) (*HTTP, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("enrollment base URL is required")
	}

	h := &HTTP{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 3 * time.Second},
		breaker: circuit.New("enrollment", circuit.WithFailureThreshold(5), circuit.WithSuccessThreshold(2)),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// courseRecord is the platform's wire form of a per-user course row.
type courseRecord struct {
	CourseID      string     `json:"course_id"`
	Title         string     `json:"title"`
	ProgressScore float64    `json:"progress_score"`
	Completed     bool       `json:"completed"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// AccessibleCourseIDs returns every course the user is enrolled in or has
// completed.
func (h *HTTP) AccessibleCourseIDs(ctx context.Context, principal domain.Principal) ([]domain.CourseID, error) {
	records, err := h.fetchCourses(ctx, principal)
	if err != nil {
		return nil, err
	}

	ids := make([]domain.CourseID, 0, len(records))
	for _, rec := range records {
		ids = append(ids, domain.CourseID(rec.CourseID))
	}
	return ids, nil
}

// CourseCompletions returns the user's full course records.
func (h *HTTP) CourseCompletions(ctx context.Context, principal domain.Principal) ([]models.CourseCompletion, error) {
	records, err := h.fetchCourses(ctx, principal)
	if err != nil {
		return nil, err
	}

	out := make([]models.CourseCompletion, 0, len(records))
	for _, rec := range records {
		out = append(out, models.CourseCompletion{
			CourseID:      domain.CourseID(rec.CourseID),
			Title:         rec.Title,
			ProgressScore: rec.ProgressScore,
			Completed:     rec.Completed,
			CompletedAt:   rec.CompletedAt,
		})
	}
	return out, nil
}

func (h *HTTP) fetchCourses(ctx context.Context, principal domain.Principal) ([]courseRecord, error) {
	if h.breaker.IsOpen() {
		return nil, fmt.Errorf("enrollment provider circuit open: %w", sentinel.ErrUnavailable)
	}

	start := time.Now()
	records, err := h.doFetch(ctx, platformKey(principal))
	metrics.RequestDuration.WithLabelValues(coursesEndpoint).
		Observe(float64(time.Since(start).Microseconds()) / 1000.0)

	if err != nil {
		metrics.RequestErrors.WithLabelValues(coursesEndpoint).Inc()
		if _, change := h.breaker.RecordFailure(); change.Opened {
			metrics.BreakerTransitions.WithLabelValues(string(circuit.StateOpen)).Inc()
			h.logger.WarnContext(ctx, "enrollment circuit opened", "breaker", h.breaker.Name())
		}
		return nil, err
	}

	if _, change := h.breaker.RecordSuccess(); change.Closed {
		metrics.BreakerTransitions.WithLabelValues(string(circuit.StateClosed)).Inc()
		h.logger.InfoContext(ctx, "enrollment circuit closed", "breaker", h.breaker.Name())
	}
	return records, nil
}

func (h *HTTP) doFetch(ctx context.Context, userKey string) ([]courseRecord, error) {
	endpoint := fmt.Sprintf("%s/api/v1/users/%s/courses", h.baseURL, url.PathEscape(userKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build enrollment request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if h.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+h.apiKey)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("enrollment request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		// Unknown user on the platform side means no courses, not an outage.
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("enrollment request returned status %d", resp.StatusCode)
	}

	var payload struct {
		Courses []courseRecord `json:"courses"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode enrollment response: %w", err)
	}
	return payload.Courses, nil
}

// platformKey picks the identifier the learning platform knows the user by.
func platformKey(principal domain.Principal) string {
	if principal.ExternalID != "" {
		return principal.ExternalID
	}
	return principal.ID.String()
}
