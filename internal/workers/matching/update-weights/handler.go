// internal/workers/matching/update-weights/handler.go
package updateweights

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"edunet-workers/internal/common/logger"
	"edunet-workers/internal/matching/weights"
	"edunet-workers/internal/models"
)

const TaskType = "update-weights"

var (
	ErrInvalidFeedback     = errors.New("INVALID_FEEDBACK")
	ErrWeightsUpdateFailed = errors.New("WEIGHTS_UPDATE_FAILED")
)

type Handler struct {
	config *Config
	db     *sql.DB
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "WEIGHTS_UPDATE_FAILED"
		if errors.Is(err, ErrInvalidFeedback) {
			errorCode = "INVALID_FEEDBACK"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.UserID == "" {
		return nil, fmt.Errorf("%w: userId is required", ErrInvalidFeedback)
	}
	if !models.ValidAction(input.Action) {
		return nil, fmt.Errorf("%w: unknown action '%s'", ErrInvalidFeedback, input.Action)
	}

	vector, err := h.loadWeights(ctx, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeightsUpdateFailed, err)
	}

	if len(input.Breakdown) == 0 {
		// Nothing to learn from: a neutral-fallback score carries no
		// per-dimension signal.
		return &Output{Updated: false, Weights: vector}, nil
	}

	decision := models.Decision{Action: input.Action}
	vector.Adjust(input.Breakdown, decision.Positive(), input.Reciprocated)

	if err := h.storeWeights(ctx, input.UserID, vector); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeightsUpdateFailed, err)
	}

	h.logger.Info("weights adjusted", map[string]interface{}{
		"userId":       input.UserID,
		"action":       input.Action,
		"reciprocated": input.Reciprocated,
		"weights":      vector,
	})

	return &Output{Updated: true, Weights: vector}, nil
}

func (h *Handler) loadWeights(ctx context.Context, userID string) (weights.Vector, error) {
	if h.db == nil {
		return nil, errors.New("no weights store configured")
	}

	var content, behavior, interest, geo, network, search float64
	err := h.db.QueryRowContext(ctx, `
		SELECT content_weight, behavior_weight, interest_weight,
		       geo_weight, network_weight, search_weight
		FROM user_weights
		WHERE user_id = $1`, userID).Scan(
		&content, &behavior, &interest, &geo, &network, &search,
	)
	if err == sql.ErrNoRows {
		return weights.Defaults(), nil
	}
	if err != nil {
		return nil, err
	}

	return weights.Vector{
		models.DimensionContent:  content,
		models.DimensionBehavior: behavior,
		models.DimensionInterest: interest,
		models.DimensionGeo:      geo,
		models.DimensionNetwork:  network,
		models.DimensionSearch:   search,
	}, nil
}

func (h *Handler) storeWeights(ctx context.Context, userID string, vector weights.Vector) error {
	_, err := h.db.ExecContext(ctx, `
		INSERT INTO user_weights (user_id, content_weight, behavior_weight, interest_weight,
		                          geo_weight, network_weight, search_weight, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id) DO UPDATE SET
			content_weight = EXCLUDED.content_weight,
			behavior_weight = EXCLUDED.behavior_weight,
			interest_weight = EXCLUDED.interest_weight,
			geo_weight = EXCLUDED.geo_weight,
			network_weight = EXCLUDED.network_weight,
			search_weight = EXCLUDED.search_weight,
			updated_at = EXCLUDED.updated_at`,
		userID,
		vector[models.DimensionContent], vector[models.DimensionBehavior],
		vector[models.DimensionInterest], vector[models.DimensionGeo],
		vector[models.DimensionNetwork], vector[models.DimensionSearch],
		time.Now(),
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
