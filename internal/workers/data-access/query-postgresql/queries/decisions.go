// internal/workers/data-access/query-postgresql/queries/decisions.go
package queries

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"edunet-workers/internal/matching/weights"
)

const defaultHistoryLimit = 100

// UserWeights loads the personalized dimension weights for a user. A user who
// has never triggered a weight adjustment has no row yet; the defaults are
// returned with rowCount 0 so callers can tell the two cases apart.
func UserWeights(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	userID, ok := params["userId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	var content, behavior, interest, geo, network, search float64
	err := db.QueryRowContext(ctx, `
		SELECT content_weight, behavior_weight, interest_weight,
		       geo_weight, network_weight, search_weight
		FROM user_weights
		WHERE user_id = $1`, userID).Scan(
		&content, &behavior, &interest, &geo, &network, &search,
	)
	if err == sql.ErrNoRows {
		execTime := time.Since(start).Milliseconds()
		return toAnyMap(weights.Defaults()), 0, execTime, nil
	}
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"content":  content,
		"behavior": behavior,
		"interest": interest,
		"geo":      geo,
		"network":  network,
		"search":   search,
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}

func DecisionHistory(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	userID, ok := params["userId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	limit := defaultHistoryLimit
	if raw, ok := params["limit"].(int); ok && raw > 0 && raw < defaultHistoryLimit {
		limit = raw
	}

	start := time.Now()

	rows, err := db.QueryContext(ctx, `
		SELECT id, actor_id, target_id, action, predicted_score, created_at
		FROM deck_decisions
		WHERE actor_id = $1
		ORDER BY created_at DESC
		LIMIT `+strconv.Itoa(limit), userID)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		var id, actorID, targetID, action, createdAt string
		var predictedScore int
		err := rows.Scan(&id, &actorID, &targetID, &action, &predictedScore, &createdAt)
		if err != nil {
			return nil, 0, 0, err
		}
		results = append(results, map[string]interface{}{
			"id":             id,
			"actorId":        actorID,
			"targetId":       targetID,
			"action":         action,
			"predictedScore": predictedScore,
			"createdAt":      createdAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return results, len(results), execTime, nil
}

// NetworkOverlap counts the shared social graph between two profiles:
// accounts following both, accounts both follow, and shared project
// collaborators.
func NetworkOverlap(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	userID, ok := params["userId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}
	targetID, ok := params["targetId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	var commonFollowers, commonFollowees, commonCollaborators int
	err := db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM follows a
			   JOIN follows b ON a.follower_id = b.follower_id
			  WHERE a.followee_id = $1 AND b.followee_id = $2),
			(SELECT COUNT(*) FROM follows a
			   JOIN follows b ON a.followee_id = b.followee_id
			  WHERE a.follower_id = $1 AND b.follower_id = $2),
			(SELECT COUNT(*) FROM collaborations a
			   JOIN collaborations b ON a.partner_id = b.partner_id
			  WHERE a.user_id = $1 AND b.user_id = $2)`,
		userID, targetID).Scan(
		&commonFollowers, &commonFollowees, &commonCollaborators,
	)
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"commonFollowers":     commonFollowers,
		"commonFollowees":     commonFollowees,
		"commonCollaborators": commonCollaborators,
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}

func toAnyMap(v weights.Vector) map[string]interface{} {
	out := make(map[string]interface{}, len(v))
	for dim, w := range v {
		out[dim] = w
	}
	return out
}
