// internal/workers/matching/record-decision/handler.go
package recorddecision

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/xeipuuv/gojsonschema"

	commonerrors "edunet-workers/internal/common/errors"
	"edunet-workers/internal/common/logger"
	"edunet-workers/internal/common/metrics"
	"edunet-workers/internal/matching/deck"
	"edunet-workers/internal/matching/gesture"
	"edunet-workers/internal/models"
)

const TaskType = "record-decision"

var (
	ErrInvalidDecisionFormat = errors.New("INVALID_DECISION_FORMAT")
	ErrSessionInvalid        = errors.New("DECK_SESSION_INVALID")
	ErrDeckExhausted         = errors.New("DECK_EXHAUSTED")
)

// decisionSchema guards the job payload before any state is touched.
var decisionSchema = map[string]interface{}{
	"type":     "object",
	"required": []interface{}{"userId"},
	"properties": map[string]interface{}{
		"userId": map[string]interface{}{
			"type":      "string",
			"minLength": 1,
		},
		"action": map[string]interface{}{
			"type": "string",
			"enum": []interface{}{models.ActionLike, models.ActionPass, models.ActionSuperLike},
		},
		"gesture": map[string]interface{}{
			"type":     "object",
			"required": []interface{}{"dx", "dy"},
			"properties": map[string]interface{}{
				"dx": map[string]interface{}{"type": "number"},
				"dy": map[string]interface{}{"type": "number"},
			},
		},
	},
}

type Handler struct {
	config *Config
	db     *sql.DB
	redis  *redis.Client
	logger logger.Logger
	errs   *commonerrors.ErrorHandler
}

func NewHandler(config *Config, db *sql.DB, rdb *redis.Client, log logger.Logger) *Handler {
	wrapped := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config: config,
		db:     db,
		redis:  rdb,
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
		h.errs.HandleJobError(context.Background(), client, job,
			commonerrors.NewInvalidDecisionFormatError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.errs.HandleJobError(ctx, client, job, standardizeError(&input, err))
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, fmt.Errorf("%w: input cannot be nil", ErrInvalidDecisionFormat)
	}
	if err := h.validateInput(input); err != nil {
		return nil, err
	}

	action, recorded, err := h.resolveAction(input)
	if err != nil {
		return nil, err
	}
	if !recorded {
		// Under-threshold drag: the card snaps back, nothing changes.
		return &Output{Recorded: false}, nil
	}

	d, err := h.loadSession(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	candidate, err := d.Decide(action, now)
	if err != nil {
		if errors.Is(err, deck.ErrExhausted) {
			return nil, fmt.Errorf("%w: no cards left for %s", ErrDeckExhausted, input.UserID)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidDecisionFormat, err)
	}

	if err := h.storeSession(ctx, input.UserID, d.Session()); err != nil {
		return nil, fmt.Errorf("%w: session write failed: %v", ErrSessionInvalid, err)
	}

	decision := models.Decision{
		ID:                 uuid.NewString(),
		ActorID:            input.UserID,
		TargetID:           candidate.Profile.ID,
		Action:             action,
		PredictedScore:     candidate.Affinity.Score,
		PredictedBreakdown: candidate.Affinity.Breakdown,
		CreatedAt:          now,
	}

	stored := true
	if err := h.storeDecision(ctx, decision); err != nil {
		// History write failures do not undo the swipe; the deck has
		// already advanced.
		h.logger.Warn("decision history write failed", map[string]interface{}{
			"userId":   input.UserID,
			"targetId": decision.TargetID,
			"error":    err,
		})
		stored = false
	}

	metrics.DecisionsRecorded.WithLabelValues(action).Inc()

	h.logger.Info("decision recorded", map[string]interface{}{
		"userId":    input.UserID,
		"targetId":  decision.TargetID,
		"action":    action,
		"remaining": d.Remaining(),
	})

	return &Output{
		Recorded:  true,
		Decision:  &decision,
		Stored:    stored,
		Remaining: d.Remaining(),
		Exhausted: d.Exhausted(),
	}, nil
}

func (h *Handler) validateInput(input *Input) error {
	raw, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDecisionFormat, err)
	}

	schemaLoader := gojsonschema.NewGoLoader(decisionSchema)
	documentLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDecisionFormat, err)
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("%w: %v", ErrInvalidDecisionFormat, errs)
	}
	return nil
}

// resolveAction picks the explicit action when present, otherwise
// classifies the drag deltas. recorded is false for an under-threshold
// drag.
func (h *Handler) resolveAction(input *Input) (string, bool, error) {
	if input.Action != "" {
		if !models.ValidAction(input.Action) {
			return "", false, fmt.Errorf("%w: unknown action '%s'", ErrInvalidDecisionFormat, input.Action)
		}
		return input.Action, true, nil
	}

	if input.Gesture == nil {
		return "", false, fmt.Errorf("%w: either action or gesture is required", ErrInvalidDecisionFormat)
	}

	outcome := gesture.Classify(gesture.Delta{DX: input.Gesture.DX, DY: input.Gesture.DY})
	action, ok := outcome.Action()
	if !ok {
		return "", false, nil
	}
	return action, true, nil
}

func (h *Handler) loadSession(ctx context.Context, userID string) (*deck.Deck, error) {
	if h.redis == nil {
		return nil, fmt.Errorf("%w: no session store configured", ErrSessionInvalid)
	}

	val, err := h.redis.Get(ctx, deck.SessionKeyPrefix+userID).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: session not found for %s", ErrSessionInvalid, userID)
	}

	var session models.DeckSession
	if err := json.Unmarshal([]byte(val), &session); err != nil {
		return nil, fmt.Errorf("%w: corrupt session for %s", ErrSessionInvalid, userID)
	}

	return deck.Restore(session), nil
}

func (h *Handler) storeSession(ctx context.Context, userID string, session models.DeckSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return h.redis.Set(ctx, deck.SessionKeyPrefix+userID, data, h.config.SessionTTL).Err()
}

func (h *Handler) storeDecision(ctx context.Context, decision models.Decision) error {
	if h.db == nil {
		return errors.New("no history store configured")
	}

	breakdown, err := json.Marshal(decision.PredictedBreakdown)
	if err != nil {
		return err
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO deck_decisions (id, actor_id, target_id, action, predicted_score, predicted_breakdown, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		decision.ID, decision.ActorID, decision.TargetID, decision.Action,
		decision.PredictedScore, breakdown, decision.CreatedAt,
	)
	return err
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
// taxonomy, so the workflow sees stable codes and retry counts:
// store write failures retry, everything else throws a BPMN error.
func standardizeError(input *Input, err error) *commonerrors.StandardError {
	switch {
	case errors.Is(err, ErrInvalidDecisionFormat):
		return commonerrors.NewInvalidDecisionFormatError(err.Error())
	case errors.Is(err, ErrSessionInvalid):
		return commonerrors.NewDeckSessionInvalidError(err.Error())
	case errors.Is(err, ErrDeckExhausted):
		return commonerrors.NewDeckExhaustedError(input.UserID)
	default:
		return commonerrors.NewDecisionWriteFailedError(err)
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
