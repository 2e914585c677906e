// internal/workers/matching/check-match/handler.go
package checkmatch

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	commonerrors "edunet-workers/internal/common/errors"
	"edunet-workers/internal/common/logger"
	"edunet-workers/internal/common/metrics"
	"edunet-workers/internal/models"
)

const TaskType = "check-match"

var (
	ErrMissingIDs       = errors.New("MISSING_IDS")
	ErrMatchCheckFailed = errors.New("MATCH_CHECK_FAILED")
)

type Handler struct {
	config *Config
	db     *sql.DB
	logger logger.Logger
	errs   *commonerrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	wrapped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		db:     db,
		logger: wrapped,
		errs:   commonerrors.NewErrorHandler(wrapped),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.errs.HandleJobError(context.Background(), client, job, &commonerrors.StandardError{
			Code:      "PARSE_ERROR",
			Message:   "Failed to parse job input",
			Details:   fmt.Sprintf("parse input: %v", err),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errs.HandleJobError(ctx, client, job, standardizeError(err))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.UserID == "" || input.TargetID == "" {
		return nil, ErrMissingIDs
	}

	// Only interest can complete a match; a pass never does.
	decision := models.Decision{Action: input.Action}
	if !decision.Positive() {
		return &Output{Matched: false}, nil
	}

	reciprocal, err := h.reciprocalAction(ctx, input.TargetID, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMatchCheckFailed, err)
	}
	if reciprocal == "" {
		return &Output{Matched: false}, nil
	}

	userA, userB := models.CanonicalPair(input.UserID, input.TargetID)
	super := input.Action == models.ActionSuperLike || reciprocal == models.ActionSuperLike

	existing, err := h.findMatch(ctx, userA, userB)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMatchCheckFailed, err)
	}
	if existing != nil {
		return &Output{Matched: true, Created: false, Match: existing}, nil
	}

	match := models.Match{
		ID:        uuid.NewString(),
		UserA:     userA,
		UserB:     userB,
		Super:     super,
		CreatedAt: time.Now(),
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO matches (id, user_a, user_b, super, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		match.ID, match.UserA, match.UserB, match.Super, match.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMatchCheckFailed, err)
	}

	metrics.MatchesCreated.WithLabelValues(strconv.FormatBool(super)).Inc()

	h.logger.Info("match created", map[string]interface{}{
		"matchId": match.ID,
		"userA":   match.UserA,
		"userB":   match.UserB,
		"super":   match.Super,
	})

	return &Output{Matched: true, Created: true, Match: &match}, nil
}

// reciprocalAction returns the latest positive action actor took on
// target, or "" when there is none.
func (h *Handler) reciprocalAction(ctx context.Context, actorID, targetID string) (string, error) {
	if h.db == nil {
		return "", errors.New("no history store configured")
	}

	var action string
	err := h.db.QueryRowContext(ctx, `
		SELECT action
		FROM deck_decisions
		WHERE actor_id = $1 AND target_id = $2 AND action IN ('like', 'super_like')
		ORDER BY created_at DESC
		LIMIT 1`, actorID, targetID).Scan(&action)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return action, nil
}

func (h *Handler) findMatch(ctx context.Context, userA, userB string) (*models.Match, error) {
	var match models.Match
	err := h.db.QueryRowContext(ctx, `
		SELECT id, user_a, user_b, super, created_at
		FROM matches
		WHERE user_a = $1 AND user_b = $2`, userA, userB).Scan(
		&match.ID, &match.UserA, &match.UserB, &match.Super, &match.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

// standardizeError maps execute failures onto the shared error
// taxonomy: a missing ID pair is a non-retryable BPMN error, while
// store failures get retried before the workflow gives up.
func standardizeError(err error) *commonerrors.StandardError {
	if errors.Is(err, ErrMissingIDs) {
		return &commonerrors.StandardError{
			Code:      "MISSING_IDS",
			Message:   "Both user and target identifiers are required",
			Details:   err.Error(),
			Retryable: false,
			Timestamp: time.Now().UTC(),
		}
	}
	return commonerrors.NewMatchCheckFailedError(err)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
