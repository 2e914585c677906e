// internal/workers/matching/build-deck/handler.go
package builddeck

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"edunet-workers/internal/common/logger"
	"edunet-workers/internal/common/metrics"
	"edunet-workers/internal/matching/affinity"
	"edunet-workers/internal/matching/deck"
	"edunet-workers/internal/matching/weights"
	"edunet-workers/internal/models"
)

const TaskType = "build-deck"

var (
	ErrMissingUserID        = errors.New("MISSING_USER_ID")
	ErrProfileNotFound      = errors.New("PROFILE_NOT_FOUND")
	ErrCandidateFetchFailed = errors.New("CANDIDATE_FETCH_FAILED")
	ErrSessionStoreFailed   = errors.New("DECK_STORE_FAILED")
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
		errorCode := "DECK_BUILD_FAILED"
		switch {
		case errors.Is(err, ErrMissingUserID):
			errorCode = "MISSING_USER_ID"
		case errors.Is(err, ErrProfileNotFound):
			errorCode = "PROFILE_NOT_FOUND"
		case errors.Is(err, ErrCandidateFetchFailed):
			errorCode = "CANDIDATE_FETCH_FAILED"
		case errors.Is(err, ErrSessionStoreFailed):
			errorCode = "DECK_STORE_FAILED"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.UserID == "" {
		return nil, ErrMissingUserID
	}

	requester := input.RequesterProfile
	if requester == nil {
		fetched, err := h.fetchProfile(ctx, input.UserID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, input.UserID)
		}
		requester = fetched
	}

	deckSize := h.config.DeckSize
	if input.DeckSize > 0 && input.DeckSize < deckSize {
		deckSize = input.DeckSize
	}

	candidates, source, err := h.resolveCandidates(ctx, input, deckSize)
	if err != nil {
		return nil, err
	}

	vector := h.resolveWeights(ctx, input)

	activity := models.ActivityBundle{UserID: input.UserID}
	if input.Activity != nil {
		activity = *input.Activity
	}

	scored := make([]models.ScoredCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		network := models.NetworkOverlap{}
		if h.config.NetworkEnabled && input.Overlaps != nil {
			network = input.Overlaps[candidate.ID]
		}
		result := affinity.Score(*requester, candidate, activity, network, vector)
		scored = append(scored, models.ScoredCandidate{
			Profile:  candidate,
			Affinity: result,
		})
	}

	d := deck.New(input.UserID, scored, time.Now())
	session := d.Session()

	sessionKey := deck.SessionKeyPrefix + input.UserID
	if err := h.storeSession(ctx, sessionKey, session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionStoreFailed, err)
	}

	metrics.DecksBuilt.WithLabelValues(source).Inc()

	h.logger.Info("deck built", map[string]interface{}{
		"userId":   input.UserID,
		"deckSize": len(session.Candidates),
		"source":   source,
	})

	return &Output{
		SessionKey: sessionKey,
		DeckSize:   len(session.Candidates),
		Visible:    d.Visible(),
		Source:     source,
	}, nil
}

func (h *Handler) resolveCandidates(ctx context.Context, input *Input, limit int) ([]models.Profile, string, error) {
	if len(input.Candidates) > 0 {
		candidates := input.Candidates
		if len(candidates) > limit {
			candidates = candidates[:limit]
		}
		return candidates, "inline", nil
	}

	candidates, err := h.fetchCandidates(ctx, input.UserID, limit)
	if err == nil && len(candidates) > 0 {
		return candidates, "store", nil
	}

	// An empty result set gets the fallback list too: a user who has
	// swiped through every stored institute still needs a deck.
	if err == nil {
		h.logger.Warn("candidate store returned no usable candidates, using fallback list", map[string]interface{}{
			"userId": input.UserID,
		})
	} else {
		h.logger.Warn("candidate store unavailable, using fallback list", map[string]interface{}{
			"userId": input.UserID,
			"error":  err,
		})
	}

	candidates, fbErr := h.loadFallback(input.UserID, limit)
	if fbErr != nil {
		if err != nil {
			return nil, "", fmt.Errorf("%w: store: %v, fallback: %v", ErrCandidateFetchFailed, err, fbErr)
		}
		return nil, "", fmt.Errorf("%w: store empty, fallback: %v", ErrCandidateFetchFailed, fbErr)
	}
	return candidates, "fallback", nil
}

func (h *Handler) resolveWeights(ctx context.Context, input *Input) weights.Vector {
	if len(input.Weights) > 0 {
		vector := weights.Vector(input.Weights).Clone()
		vector.Normalize()
		return vector
	}

	if h.db == nil {
		return weights.Defaults()
	}

	var content, behavior, interest, geo, network, search float64
	err := h.db.QueryRowContext(ctx, `
		SELECT content_weight, behavior_weight, interest_weight,
		       geo_weight, network_weight, search_weight
		FROM user_weights
		WHERE user_id = $1`, input.UserID).Scan(
		&content, &behavior, &interest, &geo, &network, &search,
	)
	if err != nil {
		if err != sql.ErrNoRows {
			h.logger.Warn("weights lookup failed, using defaults", map[string]interface{}{
				"userId": input.UserID,
				"error":  err,
			})
		}
		return weights.Defaults()
	}

	vector := weights.Vector{
		models.DimensionContent:  content,
		models.DimensionBehavior: behavior,
		models.DimensionInterest: interest,
		models.DimensionGeo:      geo,
		models.DimensionNetwork:  network,
		models.DimensionSearch:   search,
	}
	vector.Normalize()
	return vector
}

func (h *Handler) fetchProfile(ctx context.Context, id string) (*models.Profile, error) {
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
	return &profile, nil
}

func (h *Handler) fetchCandidates(ctx context.Context, userID string, limit int) ([]models.Profile, error) {
	if h.db == nil {
		return nil, errors.New("no profile store configured")
	}

	rows, err := h.db.QueryContext(ctx, `
		SELECT id, name, type, city, province, region, description,
		       tags, interests, methodologies, themes, project_types
		FROM profiles
		WHERE type = 'institute' AND id <> $1
		  AND id NOT IN (SELECT target_id FROM deck_decisions WHERE actor_id = $1)
		ORDER BY created_at DESC, id ASC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []models.Profile
	for rows.Next() {
		var p models.Profile
		err := rows.Scan(
			&p.ID, &p.Name, &p.Type,
			&p.City, &p.Province, &p.Region, &p.Description,
			pq.Array(&p.Tags), pq.Array(&p.Interests), pq.Array(&p.Methodologies),
			pq.Array(&p.Themes), pq.Array(&p.ProjectTypes),
		)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, p)
	}
	return candidates, rows.Err()
}

// loadFallback reads the curated starter list shipped with the service,
// used when the profile store cannot serve candidates.
func (h *Handler) loadFallback(userID string, limit int) ([]models.Profile, error) {
	data, err := os.ReadFile(h.config.FallbackPath)
	if err != nil {
		return nil, err
	}

	var all []models.Profile
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}

	candidates := make([]models.Profile, 0, limit)
	for _, p := range all {
		if p.ID == userID {
			continue
		}
		candidates = append(candidates, p)
		if len(candidates) == limit {
			break
		}
	}
	return candidates, nil
}

func (h *Handler) storeSession(ctx context.Context, key string, session models.DeckSession) error {
	if h.redis == nil {
		return errors.New("no session store configured")
	}
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return h.redis.Set(ctx, key, data, h.config.SessionTTL).Err()
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
