package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/portfolio-comments-api/internal/models"
)

// ErrInvalidFormat is returned when an import body matches none of the accepted shapes
var ErrInvalidFormat = errors.New("invalid import format")

// DecodeImportBody normalises an import request body into buckets.
//
// Accepted shapes:
//   - [{page, comments}, ...]
//   - {pages: [...]} or {imports: [...]}
//   - {page, comments} (items is accepted as an alias of comments)
//   - {"page.html": [...], "other.html": [...]}
//
// The second return value reports a "preview": true flag in the body.
// Buckets without a page or a comment array are skipped, as are non-object items.
func DecodeImportBody(raw []byte) ([]models.ImportBucket, bool, error) {
	var body interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}

	switch b := body.(type) {
	case []interface{}:
		return decodeBuckets(b), false, nil
	case map[string]interface{}:
		preview, _ := b["preview"].(bool)
		if list, ok := b["pages"].([]interface{}); ok {
			return decodeBuckets(list), preview, nil
		}
		if list, ok := b["imports"].([]interface{}); ok {
			return decodeBuckets(list), preview, nil
		}
		if _, ok := b["page"]; ok && bucketComments(b) != nil {
			return decodeBuckets([]interface{}{b}), preview, nil
		}
		if buckets, ok := decodePageMap(b); ok {
			return buckets, preview, nil
		}
	}

	return nil, false, ErrInvalidFormat
}

// decodePageMap handles {"page.html": [...]}; every key other than preview must hold an array
func decodePageMap(body map[string]interface{}) ([]models.ImportBucket, bool) {
	var buckets []models.ImportBucket
	for page, value := range body {
		if page == "preview" {
			continue
		}
		list, ok := value.([]interface{})
		if !ok {
			return nil, false
		}
		buckets = append(buckets, models.ImportBucket{Page: page, Comments: decodeItems(list)})
	}
	if len(buckets) == 0 {
		return nil, false
	}
	// map iteration order is random
	sort.Slice(buckets, func(i, j int) bool { return buckets[i].Page < buckets[j].Page })
	return buckets, true
}

func decodeBuckets(list []interface{}) []models.ImportBucket {
	buckets := make([]models.ImportBucket, 0, len(list))
	for _, entry := range list {
		obj, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		page, _ := obj["page"].(string)
		comments := bucketComments(obj)
		if page == "" || comments == nil {
			continue
		}
		buckets = append(buckets, models.ImportBucket{Page: page, Comments: decodeItems(comments)})
	}
	return buckets
}

func bucketComments(obj map[string]interface{}) []interface{} {
	if list, ok := obj["comments"].([]interface{}); ok {
		return list
	}
	if list, ok := obj["items"].([]interface{}); ok {
		return list
	}
	return nil
}

func decodeItems(list []interface{}) []models.ImportItem {
	items := make([]models.ImportItem, 0, len(list))
	for _, entry := range list {
		obj, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		items = append(items, models.ImportItem{
			ID:    stringify(obj["id"]),
			Name:  stringify(obj["name"]),
			Email: stringify(obj["email"]),
			Text:  stringify(obj["text"]),
			Time:  stringify(obj["time"]),
		})
	}
	return items
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64, bool:
		return fmt.Sprint(t)
	default:
		data, _ := json.Marshal(t)
		return string(data)
	}
}
