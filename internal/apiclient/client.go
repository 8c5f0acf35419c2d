package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/brk3/habitkit/internal/server"
	"github.com/brk3/habitkit/internal/tracker"
	"github.com/brk3/habitkit/pkg/habit"
	"github.com/brk3/habitkit/pkg/versioninfo"
)

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func New(base, apiKey string) *Client {
	return &Client{
		BaseURL: base,
		APIKey:  apiKey,
		HTTP:    http.DefaultClient,
	}
}

// StatusError is returned for any response outside the expected codes.
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %d %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.Code, http.StatusText(e.Code))
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusNotFound
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any, okCodes ...int) (int, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer res.Body.Close()

	if len(okCodes) == 0 {
		okCodes = []int{http.StatusOK}
	}
	expected := false
	for _, code := range okCodes {
		expected = expected || res.StatusCode == code
	}
	if !expected {
		var e server.ErrorResponse
		_ = json.NewDecoder(res.Body).Decode(&e)
		return res.StatusCode, &StatusError{Op: op, Code: res.StatusCode, Message: e.Error}
	}
	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return res.StatusCode, fmt.Errorf("%s: decode response: %w", op, err)
		}
	}
	return res.StatusCode, nil
}

func habitPath(habitID string, rest ...string) string {
	p := "/habits/" + url.PathEscape(habitID)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

func dayQuery(day string) url.Values {
	if day == "" {
		return nil
	}
	return url.Values{"day": {day}}
}

func seriesQuery(req tracker.SeriesRequest) url.Values {
	q := url.Values{}
	if req.Bucket != "" {
		q.Set("bucket", req.Bucket)
	}
	if req.N != 0 {
		q.Set("n", strconv.Itoa(req.N))
	}
	if req.End != "" {
		q.Set("end", req.End)
	}
	if req.Dir != "" {
		q.Set("dir", req.Dir)
	}
	return q
}

func (c *Client) ListHabits(ctx context.Context) ([]habit.Habit, error) {
	var response server.HabitListResponse
	if _, err := c.do(ctx, "list habits", http.MethodGet, "/habits", nil, nil, &response); err != nil {
		return nil, err
	}
	return response.Habits, nil
}

func (c *Client) ListArchivedHabits(ctx context.Context) ([]habit.Habit, error) {
	var response server.HabitListResponse
	if _, err := c.do(ctx, "list archived habits", http.MethodGet, "/habits/archived", nil, nil, &response); err != nil {
		return nil, err
	}
	return response.Habits, nil
}

func (c *Client) GetHabit(ctx context.Context, habitID string) (*habit.Habit, error) {
	var out habit.Habit
	if _, err := c.do(ctx, "get habit "+habitID, http.MethodGet, habitPath(habitID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateHabit(ctx context.Context, h habit.Habit) (*habit.Habit, error) {
	var out habit.Habit
	if _, err := c.do(ctx, "create habit", http.MethodPost, "/habits", nil, h, &out, http.StatusCreated); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateHabit(ctx context.Context, habitID string, h habit.Habit) (*habit.Habit, error) {
	var out habit.Habit
	if _, err := c.do(ctx, "update habit "+habitID, http.MethodPut, habitPath(habitID), nil, h, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SetArchived(ctx context.Context, habitID string, archived bool) (*habit.Habit, error) {
	action := "unarchive"
	if archived {
		action = "archive"
	}
	var out habit.Habit
	if _, err := c.do(ctx, action+" habit "+habitID, http.MethodPost, habitPath(habitID, action), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteHabit(ctx context.Context, habitID string) error {
	_, err := c.do(ctx, "delete habit "+habitID, http.MethodDelete, habitPath(habitID), nil, nil, nil, http.StatusNoContent)
	return err
}

func (c *Client) Toggle(ctx context.Context, habitID, day string) (*server.ToggleResponse, error) {
	var out server.ToggleResponse
	if _, err := c.do(ctx, "toggle habit "+habitID, http.MethodPost, habitPath(habitID, "toggle"), dayQuery(day), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Increment(ctx context.Context, habitID, day string) (*habit.Progress, error) {
	var out habit.Progress
	if _, err := c.do(ctx, "increment habit "+habitID, http.MethodPost, habitPath(habitID, "increment"), dayQuery(day), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Decrement reports Decremented=false, not an error, when the period had
// nothing left to remove.
func (c *Client) Decrement(ctx context.Context, habitID, day string) (*server.DecrementResponse, error) {
	var out server.DecrementResponse
	_, err := c.do(ctx, "decrement habit "+habitID, http.MethodPost, habitPath(habitID, "decrement"), dayQuery(day), nil, &out,
		http.StatusOK, http.StatusConflict)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Today(ctx context.Context) (*server.ProgressListResponse, error) {
	var out server.ProgressListResponse
	if _, err := c.do(ctx, "today", http.MethodGet, "/habits/today", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetHabitSummary(ctx context.Context, habitID string) (*habit.HabitSummary, error) {
	var out habit.HabitSummary
	if _, err := c.do(ctx, "summary "+habitID, http.MethodGet, habitPath(habitID, "summary"), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) HabitSeries(ctx context.Context, habitID string, req tracker.SeriesRequest) (*habit.Series, error) {
	var out habit.Series
	if _, err := c.do(ctx, "series "+habitID, http.MethodGet, habitPath(habitID, "series"), seriesQuery(req), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) OverallSeries(ctx context.Context, req tracker.SeriesRequest) (*habit.Series, error) {
	var out habit.Series
	if _, err := c.do(ctx, "overall series", http.MethodGet, "/stats/series", seriesQuery(req), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Stats(ctx context.Context) (*habit.OverallStats, error) {
	var out habit.OverallStats
	if _, err := c.do(ctx, "stats", http.MethodGet, "/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AtRisk(ctx context.Context) ([]habit.AtRisk, error) {
	var out server.AtRiskResponse
	if _, err := c.do(ctx, "at risk", http.MethodGet, "/stats/at-risk", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Habits, nil
}

func (c *Client) Export(ctx context.Context) ([]habit.Habit, error) {
	var out []habit.Habit
	if _, err := c.do(ctx, "export", http.MethodGet, "/export", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Import(ctx context.Context, habits []habit.Habit) (*habit.ImportResult, error) {
	var out habit.ImportResult
	if _, err := c.do(ctx, "import", http.MethodPost, "/import", nil, habits, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Version(ctx context.Context) (*versioninfo.VersionInfo, error) {
	var out versioninfo.VersionInfo
	if _, err := c.do(ctx, "version", http.MethodGet, "/version", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
