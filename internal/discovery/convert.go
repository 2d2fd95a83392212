package discovery

import (
	"github.com/tidwall/gjson"
)

const resultsPath = "data.response"

// convertResults extracts the result list from a raw engine document. A
// document without the result list yields zero results; a document that is
// not JSON at all is an engine error.
func convertResults(raw string) ([]TableResult, error) {
	if !gjson.Valid(raw) {
		return nil, &EngineError{Op: "parse", Err: errUnparseable}
	}

	results := []TableResult{}
	list := gjson.Get(raw, resultsPath)
	if !list.IsArray() {
		return results, nil
	}
	list.ForEach(func(_, rec gjson.Result) bool {
		// non-object entries carry nothing we can map
		if rec.IsObject() {
			results = append(results, convertRecord(rec))
		}
		return true
	})
	return results, nil
}

func convertRecord(rec gjson.Result) TableResult {
	t := TableResult{
		TableID:    "unknown",
		TableName:  "Unknown Table",
		Schema:     []map[string]any{},
		SampleData: []map[string]any{},
		Metadata:   map[string]any{},
	}

	if v := rec.Get("table_id"); present(v) {
		t.TableID = v.String()
	}
	if v := rec.Get("table_name"); present(v) {
		t.TableName = v.String()
	}
	if v := rec.Get("description"); v.Type == gjson.String {
		s := v.String()
		t.Description = &s
	}
	if v := rec.Get("relevance_score"); v.Type == gjson.Number {
		f := v.Float()
		t.RelevanceScore = &f
	}
	if v := rec.Get("row_count"); v.Type == gjson.Number {
		n := v.Int()
		t.RowCount = &n
	}
	if v := rec.Get("column_count"); v.Type == gjson.Number {
		n := v.Int()
		t.ColumnCount = &n
	}
	t.Schema = objects(rec.Get("schema"))
	t.SampleData = objects(rec.Get("sample_data"))
	if v := rec.Get("metadata"); v.IsObject() {
		if m, ok := v.Value().(map[string]any); ok {
			t.Metadata = m
		}
	}
	return t
}

func present(v gjson.Result) bool {
	return v.Exists() && v.Type != gjson.Null
}

func objects(v gjson.Result) []map[string]any {
	out := []map[string]any{}
	if !v.IsArray() {
		return out
	}
	v.ForEach(func(_, item gjson.Result) bool {
		if m, ok := item.Value().(map[string]any); ok {
			out = append(out, m)
		}
		return true
	})
	return out
}
