package queries

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrMissingIndex     = errors.New("index name is required")
	ErrMissingInstitute = errors.New("institute id is required")
)

// ElasticsearchQuery defines the structure of a query request
type ElasticsearchQuery struct {
	Index       string
	QueryType   string
	Filters     map[string]interface{}
	InstituteID string
	Region      string
	Pagination  struct {
		From int
		Size int
	}
}

// BuildQuery builds an Elasticsearch search request based on query type and filters
func BuildQuery(esClient *elasticsearch.Client, eq ElasticsearchQuery) (*esapi.SearchRequest, error) {
	if eq.Index == "" {
		return nil, ErrMissingIndex
	}

	var queryBody map[string]interface{}

	switch eq.QueryType {
	case "institute_search":
		queryBody = buildInstituteSearchQuery(eq)
	case "similar_institutes":
		if eq.InstituteID == "" {
			return nil, ErrMissingInstitute
		}
		queryBody = buildSimilarInstitutesQuery(eq)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, eq.QueryType)
	}

	body, _ := json.Marshal(queryBody)

	req := esapi.SearchRequest{
		Index:  []string{eq.Index},
		Body:   strings.NewReader(string(body)),
		From:   &eq.Pagination.From,
		Size:   &eq.Pagination.Size,
		Pretty: true,
	}

	return &req, nil
}

// buildInstituteSearchQuery builds the main institute search query dynamically
func buildInstituteSearchQuery(eq ElasticsearchQuery) map[string]interface{} {
	boolQuery := make(map[string]interface{})
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	// Keyword search
	if keywords, ok := eq.Filters["keywords"].(string); ok && keywords != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  keywords,
				"fields": []string{"name^3", "description^2", "tags", "themes"},
				"type":   "best_fields",
			},
		})
	}

	// Region filter
	if region, ok := eq.Filters["region"].(string); ok && region != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"region": strings.ToLower(region)},
		})
	} else if eq.Region != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"region": strings.ToLower(eq.Region)},
		})
	}

	// Province filter
	if province, ok := eq.Filters["province"].(string); ok && province != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"province": strings.ToLower(province)},
		})
	}

	// Institute type filter
	if instituteType, ok := eq.Filters["instituteType"].(string); ok && instituteType != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"type": strings.ToLower(instituteType)},
		})
	}

	// Theme filter: any of the requested themes
	if themes, ok := eq.Filters["themes"].([]interface{}); ok && len(themes) > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"terms": map[string]interface{}{"themes": themes},
		})
	}

	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{
			"match_all": map[string]interface{}{},
		})
	}

	boolQuery["must"] = mustClauses
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
	}
}

// buildSimilarInstitutesQuery finds institutes resembling the given one by
// tag/theme/description overlap, excluding the institute itself.
func buildSimilarInstitutesQuery(eq ElasticsearchQuery) map[string]interface{} {
	boolQuery := map[string]interface{}{
		"must": []interface{}{
			map[string]interface{}{
				"more_like_this": map[string]interface{}{
					"fields": []string{"tags", "themes", "description"},
					"like": []interface{}{
						map[string]interface{}{
							"_index": eq.Index,
							"_id":    eq.InstituteID,
						},
					},
					"min_term_freq": 1,
					"min_doc_freq":  1,
				},
			},
		},
		"must_not": []interface{}{
			map[string]interface{}{
				"term": map[string]interface{}{"id": eq.InstituteID},
			},
		},
	}

	if eq.Region != "" {
		boolQuery["filter"] = []interface{}{
			map[string]interface{}{
				"term": map[string]interface{}{"region": strings.ToLower(eq.Region)},
			},
		}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
	}
}
