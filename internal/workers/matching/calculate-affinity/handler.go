// internal/workers/matching/calculate-affinity/handler.go
package calculateaffinity

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"edunet-workers/internal/common/logger"
	"edunet-workers/internal/common/metrics"
	"edunet-workers/internal/matching/affinity"
	"edunet-workers/internal/matching/weights"
	"edunet-workers/internal/models"
)

const (
	TaskType        = "calculate-affinity"
	profileCacheKey = "user:profile:"
)

var (
	ErrScoringFailed = errors.New("SCORING_FAILED")
	ErrMissingIDs    = errors.New("MISSING_IDS")
)

type Handler struct {
	config *Config
	db     *sql.DB
	redis  *redis.Client
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, rdb *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		redis:  rdb,
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
		errorCode := "SCORING_FAILED"
		if errors.Is(err, ErrMissingIDs) {
			errorCode = "MISSING_IDS"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.UserID == "" || input.TargetID == "" {
		return nil, ErrMissingIDs
	}

	requester, candidate, ok := h.resolveProfiles(ctx, input)
	if !ok {
		metrics.AffinityScoresComputed.WithLabelValues("neutral_fallback").Inc()
		return &Output{
			Affinity: models.NeutralResult(input.TargetID),
			Neutral:  true,
		}, nil
	}

	activity := models.ActivityBundle{UserID: input.UserID}
	if input.Activity != nil {
		activity = *input.Activity
	}

	network := models.NetworkOverlap{}
	if input.Network != nil {
		network = *input.Network
	}

	vector := weights.Defaults()
	if len(input.Weights) > 0 {
		vector = weights.Vector(input.Weights).Clone()
		vector.Normalize()
	}

	result := affinity.Score(*requester, *candidate, activity, network, vector)

	metrics.AffinityScoresComputed.WithLabelValues("scored").Inc()
	metrics.AffinityScoreDistribution.Observe(float64(result.Score))

	h.logger.Info("affinity computed", map[string]interface{}{
		"userId":     input.UserID,
		"targetId":   input.TargetID,
		"score":      result.Score,
		"confidence": result.Confidence,
	})

	return &Output{Affinity: result}, nil
}

// resolveProfiles returns both profiles, preferring inline payloads over
// the store. Any failed lookup reports !ok so the caller can fall back
// to the neutral result.
func (h *Handler) resolveProfiles(ctx context.Context, input *Input) (*models.Profile, *models.Profile, bool) {
	requester := input.RequesterProfile
	if requester == nil {
		var err error
		requester, err = h.getProfile(ctx, input.UserID)
		if err != nil {
			h.logger.Warn("requester profile unavailable", map[string]interface{}{
				"userId": input.UserID,
				"error":  err,
			})
			return nil, nil, false
		}
	}

	candidate := input.CandidateProfile
	if candidate == nil {
		var err error
		candidate, err = h.getProfile(ctx, input.TargetID)
		if err != nil {
			h.logger.Warn("candidate profile unavailable", map[string]interface{}{
				"targetId": input.TargetID,
				"error":    err,
			})
			return nil, nil, false
		}
	}

	return requester, candidate, true
}

func (h *Handler) getProfile(ctx context.Context, id string) (*models.Profile, error) {
	cacheKey := profileCacheKey + id
	if h.redis != nil {
		if val, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
			var profile models.Profile
			if err := json.Unmarshal([]byte(val), &profile); err == nil {
				return &profile, nil
			}
		}
	}

	if h.db == nil {
		return nil, errors.New("no profile store configured")
	}

	row := h.db.QueryRowContext(ctx, `
		SELECT id, name, type, city, province, region, description,
		       tags, interests, methodologies, themes, project_types
		FROM profiles WHERE id = $1`, id)

	var profile models.Profile
	err := row.Scan(
		&profile.ID, &profile.Name, &profile.Type,
		&profile.City, &profile.Province, &profile.Region, &profile.Description,
		pq.Array(&profile.Tags), pq.Array(&profile.Interests), pq.Array(&profile.Methodologies),
		pq.Array(&profile.Themes), pq.Array(&profile.ProjectTypes),
	)
	if err != nil {
		return nil, err
	}

	if h.redis != nil {
		data, _ := json.Marshal(profile)
		h.redis.Set(ctx, cacheKey, data, h.config.CacheTTL)
	}

	return &profile, nil
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
