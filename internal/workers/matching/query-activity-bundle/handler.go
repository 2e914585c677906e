// internal/workers/matching/query-activity-bundle/handler.go
package queryactivitybundle

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/lib/pq"

	"edunet-workers/internal/common/logger"
	"edunet-workers/internal/models"
)

const TaskType = "query-activity-bundle"

var (
	ErrMissingUserID = errors.New("MISSING_USER_ID")
)

// Handler assembles the recent activity of a user from Postgres and the
// search log index. Every source is optional: a failing source is
// replaced with an empty slice so scoring can still run on partial data.
type Handler struct {
	config *Config
	db     *sql.DB
	es     *elasticsearch.Client
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, es *elasticsearch.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		es:     es,
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
		h.failJob(client, job, "MISSING_USER_ID", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil || input.UserID == "" {
		return nil, ErrMissingUserID
	}

	bundle := models.ActivityBundle{
		UserID:    input.UserID,
		FetchedAt: time.Now(),
	}
	var degraded []string

	posts, err := h.fetchPosts(ctx, input.UserID)
	if err != nil {
		h.logger.Warn("posts fetch failed, using empty set", map[string]interface{}{
			"userId": input.UserID,
			"error":  err,
		})
		degraded = append(degraded, "posts")
		posts = []models.Post{}
	}
	bundle.Posts = posts

	projects, err := h.fetchProjects(ctx, input.UserID)
	if err != nil {
		h.logger.Warn("projects fetch failed, using empty set", map[string]interface{}{
			"userId": input.UserID,
			"error":  err,
		})
		degraded = append(degraded, "projects")
		projects = []models.Project{}
	}
	bundle.Projects = projects

	interactions, err := h.fetchInteractions(ctx, input.UserID)
	if err != nil {
		h.logger.Warn("interactions fetch failed, using empty set", map[string]interface{}{
			"userId": input.UserID,
			"error":  err,
		})
		degraded = append(degraded, "interactions")
		interactions = []models.InteractionEvent{}
	}
	bundle.Interactions = interactions

	searches, err := h.fetchSearches(ctx, input.UserID)
	if err != nil {
		h.logger.Warn("search log fetch failed, using empty set", map[string]interface{}{
			"userId": input.UserID,
			"error":  err,
		})
		degraded = append(degraded, "searches")
		searches = []models.SearchQuery{}
	}
	bundle.Searches = searches

	return &Output{Activity: bundle, Degraded: degraded}, nil
}

func (h *Handler) fetchPosts(ctx context.Context, userID string) ([]models.Post, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, author_id, tags, themes, created_at
		FROM posts
		WHERE author_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, h.config.PostLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []models.Post{}
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(&p.ID, &p.AuthorID, pq.Array(&p.Tags), pq.Array(&p.Themes), &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (h *Handler) fetchProjects(ctx context.Context, userID string) ([]models.Project, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, owner_id, title, methodologies, themes, project_type, created_at
		FROM projects
		WHERE owner_id = $1
		ORDER BY created_at DESC
		LIMIT $2`, userID, h.config.ProjectLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	projects := []models.Project{}
	for rows.Next() {
		var p models.Project
		if err := rows.Scan(&p.ID, &p.OwnerID, &p.Title, pq.Array(&p.Methodologies), pq.Array(&p.Themes), &p.ProjectType, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (h *Handler) fetchInteractions(ctx context.Context, userID string) ([]models.InteractionEvent, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, user_id, target_id, target_type, action, keywords, occurred_at
		FROM interactions
		WHERE user_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2`, userID, h.config.InteractionLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []models.InteractionEvent{}
	for rows.Next() {
		var e models.InteractionEvent
		if err := rows.Scan(&e.ID, &e.UserID, &e.TargetID, &e.TargetType, &e.Action, pq.Array(&e.Keywords), &e.OccurredAt); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (h *Handler) fetchSearches(ctx context.Context, userID string) ([]models.SearchQuery, error) {
	if h.es == nil {
		return nil, errors.New("elasticsearch client not configured")
	}

	queryBody := map[string]interface{}{
		"query": map[string]interface{}{
			"term": map[string]interface{}{"userId": userID},
		},
		"sort": []interface{}{
			map[string]interface{}{"occurredAt": map[string]interface{}{"order": "desc"}},
		},
	}
	body, _ := json.Marshal(queryBody)

	size := h.config.SearchLimit
	req := esapi.SearchRequest{
		Index: []string{h.config.SearchIndex},
		Body:  strings.NewReader(string(body)),
		Size:  &size,
	}

	res, err := req.Do(ctx, h.es)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.IsError() {
		return nil, fmt.Errorf("search log query failed: %s", res.String())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source struct {
					ID         string `json:"id"`
					UserID     string `json:"userId"`
					Query      string `json:"query"`
					OccurredAt string `json:"occurredAt"`
				} `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, err
	}

	searches := []models.SearchQuery{}
	for _, hit := range r.Hits.Hits {
		occurred, err := time.Parse(time.RFC3339, hit.Source.OccurredAt)
		if err != nil {
			occurred = time.Time{}
		}
		searches = append(searches, models.SearchQuery{
			ID:         hit.Source.ID,
			UserID:     hit.Source.UserID,
			Query:      hit.Source.Query,
			OccurredAt: occurred,
		})
	}
	return searches, nil
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
