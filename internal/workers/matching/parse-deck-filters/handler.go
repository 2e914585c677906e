// internal/workers/matching/parse-deck-filters/handler.go
package parsedeckfilters

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"edunet-workers/internal/common/logger"
	"edunet-workers/internal/matching/geo"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "parse-deck-filters"

var (
	ErrInvalidFilterFormat = errors.New("INVALID_FILTER_FORMAT")
)

var validInstituteTypes = map[string]bool{
	"liceo": true, "tecnico": true, "professionale": true,
	"comprensivo": true, "paritario": true,
}

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
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
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err), 0)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, "INVALID_FILTER_FORMAT", err.Error(), 0)
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input.RawFilters == nil {
		input.RawFilters = make(map[string]interface{})
	}

	parsed := ParsedFilters{
		Regions:        []string{},
		Provinces:      []string{},
		InstituteTypes: []string{},
		Themes:         []string{},
		Keywords:       "",
		DeckSize:       h.config.DefaultDeckSize,
	}

	if regionsRaw, ok := input.RawFilters["regions"]; ok {
		parsed.Regions = h.parseStringArray(regionsRaw)
		for _, region := range parsed.Regions {
			if geo.MacroArea(region) == "" {
				return nil, fmt.Errorf("%w: unknown region '%s'", ErrInvalidFilterFormat, region)
			}
		}
	}

	if provincesRaw, ok := input.RawFilters["provinces"]; ok {
		parsed.Provinces = h.parseStringArray(provincesRaw)
	}

	if typesRaw, ok := input.RawFilters["instituteTypes"]; ok {
		parsed.InstituteTypes = h.parseStringArray(typesRaw)
		for _, t := range parsed.InstituteTypes {
			if !validInstituteTypes[strings.ToLower(t)] {
				return nil, fmt.Errorf("%w: invalid institute type '%s'", ErrInvalidFilterFormat, t)
			}
		}
	}

	if themesRaw, ok := input.RawFilters["themes"]; ok {
		parsed.Themes = h.parseStringArray(themesRaw)
	}

	if keywordsRaw, ok := input.RawFilters["keywords"]; ok {
		if s, ok := keywordsRaw.(string); ok {
			parsed.Keywords = strings.TrimSpace(s)
		}
	}

	if sizeRaw, ok := input.RawFilters["deckSize"]; ok {
		if size, err := h.parseInt(sizeRaw); err == nil && size >= 1 {
			if size > h.config.MaxDeckSize {
				size = h.config.MaxDeckSize
			}
			parsed.DeckSize = size
		}
	}

	h.logger.Info("deck filters parsed", map[string]interface{}{
		"regions":        parsed.Regions,
		"provinces":      parsed.Provinces,
		"instituteTypes": parsed.InstituteTypes,
		"themes":         parsed.Themes,
		"keywords":       parsed.Keywords,
		"deckSize":       parsed.DeckSize,
	})

	return &Output{ParsedFilters: parsed}, nil
}

func (h *Handler) parseStringArray(raw interface{}) []string {
	result := []string{}

	if raw == nil {
		return result
	}

	seen := make(map[string]bool)

	appendTrimmed := func(s string) {
		trimmed := strings.TrimSpace(s)
		if trimmed != "" && !seen[trimmed] {
			result = append(result, trimmed)
			seen[trimmed] = true
		}
	}

	switch v := raw.(type) {
	case string:
		if v != "" {
			for _, s := range strings.Split(v, ",") {
				appendTrimmed(s)
			}
		}
	case []interface{}:
		for _, item := range v {
			if s, ok := item.(string); ok {
				appendTrimmed(s)
			}
		}
	case []string:
		for _, s := range v {
			appendTrimmed(s)
		}
	}

	return result
}

func (h *Handler) parseInt(raw interface{}) (int, error) {
	switch v := raw.(type) {
	case float64:
		if v < 0 || v != float64(int(v)) {
			return 0, errors.New("not a valid positive integer")
		}
		return int(v), nil
	case int:
		if v < 0 {
			return 0, errors.New("negative integer not allowed")
		}
		return v, nil
	case int64:
		if v < 0 {
			return 0, errors.New("negative integer not allowed")
		}
		return int(v), nil
	}
	return 0, errors.New("cannot parse as integer")
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string, _ int32) {
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
