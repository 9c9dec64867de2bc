package mirror

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"game-service/internal/gameerr"
	"game-service/internal/models"
	"game-service/internal/utils"
)

// envelope covers the success, error and pending response shapes.
type envelope struct {
	Success       bool            `json:"success"`
	Message       string          `json:"message"`
	Data          json.RawMessage `json:"data"`
	Error         *utils.APIError `json:"error"`
	RemainingTime int64           `json:"remaining_time"`
	Progress      *utils.Progress `json:"progress"`
	Timing        *utils.Timing   `json:"timing"`
}

// MergeOutcome is what the server answered to a merge call. Completed is only ever set
// from a server success response.
type MergeOutcome struct {
	Completed   bool
	Message     string
	Remaining   time.Duration
	Progress    int
	Wait        time.Duration
	SpeedUpCost int64
	Result      *models.MergeStatus
}

// Client talks to the game service and keeps the local Timer in line with every answer.
type Client struct {
	baseURL    string
	userID     string
	httpClient *http.Client
	timer      *Timer
}

func NewClient(baseURL, userID string, httpClient *http.Client, timer *Timer) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userID:     userID,
		httpClient: httpClient,
		timer:      timer,
	}
}

func (c *Client) UserID() string {
	return c.userID
}

func (c *Client) Timer() *Timer {
	return c.timer
}

// ============================================================================
// PRODUCER BUILDING
// ============================================================================

func (c *Client) AddBuilding(ctx context.Context) (*models.BuildingSnapshot, error) {
	var snap models.BuildingSnapshot
	if _, err := c.call(ctx, http.MethodPost, c.userPath("/add"), nil, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

func (c *Client) Status(ctx context.Context) (*models.BuildingStatus, error) {
	var status models.BuildingStatus
	if _, err := c.call(ctx, http.MethodGet, c.userPath(""), nil, &status); err != nil {
		return nil, err
	}
	c.syncBuilding(status.Building)
	return &status, nil
}

func (c *Client) StartProduction(ctx context.Context) (*models.ActivateResult, error) {
	var res models.ActivateResult
	if _, err := c.call(ctx, http.MethodPost, c.userPath("/start"), nil, &res); err != nil {
		return nil, err
	}
	c.timer.Start(BuildingKey(c.userID), res.EndTime.Sub(res.StartTime), 0)
	return &res, nil
}

// CollectProduction always asks the server; an early answer resets the local countdown
// to the server's remaining minutes.
func (c *Client) CollectProduction(ctx context.Context) (*models.CollectResult, error) {
	key := BuildingKey(c.userID)
	var res models.CollectResult
	if _, err := c.call(ctx, http.MethodPost, c.userPath("/collect"), nil, &res); err != nil {
		var ge *gameerr.Error
		switch {
		case errors.Is(err, gameerr.ErrNotReady) && errors.As(err, &ge):
			c.timer.Start(key, time.Duration(detailInt(ge.Details, "remaining_minutes"))*time.Minute, 0)
		case errors.Is(err, gameerr.ErrNoActiveProduction):
			c.timer.Stop(key)
		}
		return nil, err
	}
	c.timer.Stop(key)
	return &res, nil
}

// syncBuilding replaces the local countdown with the server's coarse remaining time.
func (c *Client) syncBuilding(snap *models.BuildingSnapshot) {
	key := BuildingKey(c.userID)
	if snap == nil || snap.State == models.BuildingIdle {
		c.timer.Stop(key)
		return
	}
	c.timer.Start(key, time.Duration(snap.RemainingMinutes)*time.Minute, 0)
}

func (c *Client) Upgrade(ctx context.Context, level int) (*models.UpgradeResult, error) {
	var res models.UpgradeResult
	if _, err := c.call(ctx, http.MethodPost, c.userPath(fmt.Sprintf("/upgrade/%d", level)), nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ============================================================================
// CREATURE MERGE
// ============================================================================

func (c *Client) GrantCreature(ctx context.Context, templateID string, rarity models.Rarity) (*models.CreatureInstance, error) {
	body := models.GrantCreatureRequest{TemplateID: templateID, Rarity: rarity}
	var creature models.CreatureInstance
	if _, err := c.call(ctx, http.MethodPost, "/api/creatures/"+url.PathEscape(c.userID), body, &creature); err != nil {
		return nil, err
	}
	return &creature, nil
}

func (c *Client) ListCreatures(ctx context.Context) ([]models.CreatureInstance, error) {
	var creatures []models.CreatureInstance
	if _, err := c.call(ctx, http.MethodGet, "/api/creatures/"+url.PathEscape(c.userID), nil, &creatures); err != nil {
		return nil, err
	}
	return creatures, nil
}

// Merge starts or advances the merge. Even when the local countdown says the merge is
// due (and for common merges it always is) completion comes from the server.
func (c *Client) Merge(ctx context.Context, a, b uuid.UUID) (*MergeOutcome, error) {
	path := "/api/creatures/" + url.PathEscape(c.userID) + "/upgrade-milestone"
	return c.mergeCall(ctx, http.MethodPut, path, a, b)
}

func (c *Client) CheckProgress(ctx context.Context, a, b uuid.UUID) (*MergeOutcome, error) {
	query := url.Values{}
	query.Set("creature1Id", a.String())
	query.Set("creature2Id", b.String())
	path := "/api/creatures/check-upgrade-progress/" + url.PathEscape(c.userID) + "?" + query.Encode()
	return c.mergeCall(ctx, http.MethodGet, path, a, b)
}

func (c *Client) CollectMerge(ctx context.Context, a, b uuid.UUID) (*MergeOutcome, error) {
	path := "/api/creatures/" + url.PathEscape(c.userID) + "/collect-upgrade"
	return c.mergeCall(ctx, http.MethodPost, path, a, b)
}

func (c *Client) SpeedUp(ctx context.Context, a, b uuid.UUID) (*MergeOutcome, error) {
	path := "/api/creatures/speed-up-upgrade/" + url.PathEscape(c.userID)
	return c.mergeCall(ctx, http.MethodPost, path, a, b)
}

func (c *Client) mergeCall(ctx context.Context, method, path string, a, b uuid.UUID) (*MergeOutcome, error) {
	key := MergeKey(c.userID, a, b)

	var body any
	if method != http.MethodGet {
		body = models.MergeRequest{Creature1ID: a.String(), Creature2ID: b.String()}
	}

	var status models.MergeStatus
	env, err := c.call(ctx, method, path, body, &status)
	if err != nil {
		var ge *gameerr.Error
		switch {
		case errors.Is(err, gameerr.ErrNoSession):
			c.timer.Stop(key)
		case errors.Is(err, gameerr.ErrNotReady) && errors.As(err, &ge):
			c.timer.Start(key, time.Duration(detailInt(ge.Details, "remaining_minutes"))*time.Minute, detailInt(ge.Details, "progress"))
		}
		return nil, err
	}

	if !env.Success {
		outcome := &MergeOutcome{
			Message:   env.Message,
			Remaining: time.Duration(env.RemainingTime) * time.Second,
		}
		if env.Progress != nil {
			outcome.Progress = env.Progress.Current
		}
		if env.Timing != nil {
			outcome.Wait = time.Duration(env.Timing.WaitTimeMinutes) * time.Minute
			outcome.SpeedUpCost = env.Timing.SpeedUpCost
		}
		c.timer.Start(key, outcome.Remaining, outcome.Progress)
		return outcome, nil
	}

	outcome := &MergeOutcome{
		Message:  env.Message,
		Progress: status.Progress,
		Result:   &status,
	}
	// ready after a speed-up or a check is not yet a completed merge
	if status.Creature != nil {
		outcome.Completed = true
		c.timer.Stop(key)
	} else {
		c.timer.Start(key, 0, 100)
	}
	return outcome, nil
}

// ============================================================================
// TRANSPORT
// ============================================================================

func (c *Client) userPath(suffix string) string {
	return "/user/" + url.PathEscape(c.userID) + suffix
}

// call performs one request. Error envelopes become *gameerr.Error so callers can match
// them with errors.Is like on the server side.
func (c *Client) call(ctx context.Context, method, path string, body any, out any) (*envelope, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		slog.Warn("unexpected response body", "status", resp.StatusCode, "path", path)
		return nil, fmt.Errorf("%s %s: unexpected response with status %d", method, path, resp.StatusCode)
	}

	if resp.StatusCode >= http.StatusBadRequest || env.Error != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, toGameError(resp.StatusCode, env.Error))
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return nil, fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return &env, nil
}

func toGameError(status int, apiErr *utils.APIError) *gameerr.Error {
	kind := gameerr.Kind("INTERNAL")
	switch status {
	case http.StatusNotFound:
		kind = gameerr.KindNotFound
	case http.StatusConflict:
		kind = gameerr.KindInvalidState
	case http.StatusPaymentRequired:
		kind = gameerr.KindInsufficientFunds
	case http.StatusBadRequest:
		kind = gameerr.KindInvalidParameter
	}
	if apiErr == nil {
		return gameerr.New(kind, "UNKNOWN", http.StatusText(status))
	}
	ge := gameerr.New(kind, gameerr.Reason(apiErr.Code), apiErr.Message)
	ge.Details = apiErr.Details
	if ge.Reason == gameerr.ReasonAlreadyExists {
		ge.Kind = gameerr.KindAlreadyExists
	}
	return ge
}

// detailInt reads a numeric detail decoded from JSON.
func detailInt(details map[string]any, key string) int {
	switch v := details[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case int64:
		return int(v)
	}
	return 0
}
