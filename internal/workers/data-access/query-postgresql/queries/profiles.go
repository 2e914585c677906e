// internal/workers/data-access/query-postgresql/queries/profiles.go
package queries

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/lib/pq"
)

// MaxCandidates bounds a single candidate fetch regardless of the requested limit.
const MaxCandidates = 50

func InstituteProfile(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	userID, ok := params["userId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	var id, name, profileType, city, province, region, description string
	var tags, interests, methodologies, themes, projectTypes []string
	var createdAt string

	err := db.QueryRowContext(ctx, `
		SELECT id, name, type, city, province, region, description,
		       tags, interests, methodologies, themes, project_types, created_at
		FROM profiles
		WHERE id = $1`, userID).Scan(
		&id, &name, &profileType,
		&city, &province, &region, &description,
		pq.Array(&tags), pq.Array(&interests), pq.Array(&methodologies),
		pq.Array(&themes), pq.Array(&projectTypes), &createdAt,
	)
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"id":            id,
		"name":          name,
		"type":          profileType,
		"city":          city,
		"province":      province,
		"region":        region,
		"description":   description,
		"tags":          tags,
		"interests":     interests,
		"methodologies": methodologies,
		"themes":        themes,
		"projectTypes":  projectTypes,
		"createdAt":     createdAt,
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}

func CandidateProfiles(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	userID, ok := params["userId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	limit := MaxCandidates
	if raw, ok := params["limit"].(int); ok && raw > 0 && raw < MaxCandidates {
		limit = raw
	}

	region := ""
	if filters, ok := params["filters"].(map[string]interface{}); ok {
		if r, ok := filters["region"].(string); ok {
			region = r
		}
	}

	start := time.Now()

	// Candidates the user already decided on are filtered downstream by the
	// deck builder, which holds the live session sets.
	query := `
		SELECT id, name, type, city, province, region, description,
		       tags, interests, methodologies, themes, project_types
		FROM profiles
		WHERE type = 'institute' AND id <> $1`
	args := []interface{}{userID}
	if region != "" {
		query += ` AND lower(region) = lower($2)`
		args = append(args, region)
	}
	query += ` ORDER BY created_at DESC, id ASC LIMIT ` + strconv.Itoa(limit)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		var id, name, profileType, city, province, reg, description string
		var tags, interests, methodologies, themes, projectTypes []string
		err := rows.Scan(
			&id, &name, &profileType,
			&city, &province, &reg, &description,
			pq.Array(&tags), pq.Array(&interests), pq.Array(&methodologies),
			pq.Array(&themes), pq.Array(&projectTypes),
		)
		if err != nil {
			return nil, 0, 0, err
		}
		results = append(results, map[string]interface{}{
			"id":            id,
			"name":          name,
			"type":          profileType,
			"city":          city,
			"province":      province,
			"region":        reg,
			"description":   description,
			"tags":          tags,
			"interests":     interests,
			"methodologies": methodologies,
			"themes":        themes,
			"projectTypes":  projectTypes,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return results, len(results), execTime, nil
}
