package extract

import (
	"encoding/json"

	"hxcodewarrior/ctripcrawler/internal/fetch"
	"hxcodewarrior/ctripcrawler/logger"
)

// SearchExtractor normalizes search-endpoint responses. The search response
// keeps its list under a top-level "data" key.
type SearchExtractor struct {
	log *logger.Logger
}

// NewSearchExtractor creates a search extractor
func NewSearchExtractor() *SearchExtractor {
	return &SearchExtractor{log: logger.ForTarget("extract")}
}

// Extract returns the attraction summaries in a search response
func (e *SearchExtractor) Extract(payload fetch.RawPayload) []SummaryRecord {
	if payload.Kind != fetch.KindJSON {
		return nil
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(payload.Body, &decoded); err != nil {
		e.log.Warn().Err(err).Msg("Search payload is not a JSON object")
		return nil
	}

	items, ok := asList(decoded["data"])
	if !ok {
		return nil
	}

	records := make([]SummaryRecord, 0, len(items))
	for _, item := range items {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		records = append(records, SummaryRecord{
			ID:           stringField(entry, "id", "poiId"),
			Name:         stringField(entry, "poiName", "name"),
			CommentCount: intField(entry, "commentCount"),
			CommentScore: stringField(entry, "commentScore"),
			District:     stringField(entry, "districtName"),
			SightLevel:   stringField(entry, "sightLevelStr"),
			HeatScore:    stringField(entry, "heatScore"),
			DetailURL:    stringField(entry, "detailUrl"),
		})
	}
	return records
}

// ResolveSightID returns the first search hit's id, or "" when the response
// carries no results
func (e *SearchExtractor) ResolveSightID(payload fetch.RawPayload) string {
	records := e.Extract(payload)
	if len(records) == 0 {
		return ""
	}
	return records[0].ID
}
