package toolclient

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

func orUnknown(v gjson.Result) string {
	if !v.Exists() || v.Type == gjson.Null {
		return "Unknown"
	}
	return v.String()
}

func orDefault(v gjson.Result, def string) string {
	if !v.Exists() || v.Type == gjson.Null || v.String() == "" {
		return def
	}
	return v.String()
}

// FormatError renders a failed call the way every tool reports it.
func FormatError(prefix string, err error) string {
	if prefix == "" {
		return fmt.Sprintf("❌ Error: %v", err)
	}
	return fmt.Sprintf("❌ Error %s: %v", prefix, err)
}

func FormatSearchResults(raw []byte, query string) string {
	doc := gjson.ParseBytes(raw)
	results := doc.Get("results").Array()
	if len(results) == 0 {
		return fmt.Sprintf("❌ No relevant tables found for query: '%s'", query)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🎯 **Found %d relevant table(s)** (Search time: %.0fms)\n", len(results), doc.Get("search_time_ms").Float())
	fmt.Fprintf(&b, "📝 Query: *%s*\n\n", query)

	for i, t := range results {
		fmt.Fprintf(&b, "**%d. %s**\n", i+1, orDefault(t.Get("table_name"), "Unknown Table"))
		fmt.Fprintf(&b, "   📊 Relevance: %.2f | Rows: %s | Columns: %s\n",
			t.Get("relevance_score").Float(), orUnknown(t.Get("row_count")), orUnknown(t.Get("column_count")))
		fmt.Fprintf(&b, "   📄 %s\n", orDefault(t.Get("description"), "No description available"))

		schema := t.Get("schema").Array()
		if len(schema) > 0 {
			names := make([]string, 0, 5)
			for _, col := range schema[:min(5, len(schema))] {
				names = append(names, orDefault(col.Get("name"), "unknown"))
			}
			fmt.Fprintf(&b, "   🏗️ Key columns: %s", strings.Join(names, ", "))
			if len(schema) > 5 {
				fmt.Fprintf(&b, " (+%d more)", len(schema)-5)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if sid := doc.Get("session_id").String(); sid != "" {
		fmt.Fprintf(&b, "🔗 Session ID: `%s` (use for follow-up queries)\n", sid)
	}
	return b.String()
}

func FormatTableDetails(raw []byte) string {
	doc := gjson.ParseBytes(raw)

	var b strings.Builder
	fmt.Fprintf(&b, "📋 **Table Details: %s**\n\n", orDefault(doc.Get("table_name"), "Unknown"))
	fmt.Fprintf(&b, "📄 **Description:** %s\n", orDefault(doc.Get("description"), "No description"))
	fmt.Fprintf(&b, "📊 **Size:** %s rows × %s columns\n\n", orUnknown(doc.Get("row_count")), orUnknown(doc.Get("column_count")))

	if schema := doc.Get("schema").Array(); len(schema) > 0 {
		b.WriteString("🏗️ **Schema:**\n")
		for _, col := range schema {
			fmt.Fprintf(&b, "   • **%s** (%s)", orDefault(col.Get("name"), "unknown"), orDefault(col.Get("type"), "unknown"))
			if d := col.Get("description").String(); d != "" {
				fmt.Fprintf(&b, ": %s", d)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	rows := doc.Get("sample_data").Array()
	if len(rows) > 0 {
		// column order follows the first row as sent
		var headers []string
		rows[0].ForEach(func(k, _ gjson.Result) bool {
			headers = append(headers, k.String())
			return true
		})
		header := strings.Join(headers, " | ")

		b.WriteString("📝 **Sample Data:**\n```\n")
		b.WriteString(header + "\n")
		b.WriteString(strings.Repeat("-", len(header)) + "\n")
		for _, row := range rows[:min(3, len(rows))] {
			vals := make([]string, 0, len(headers))
			for _, h := range headers {
				vals = append(vals, row.Get(gjson.Escape(h)).String())
			}
			b.WriteString(strings.Join(vals, " | ") + "\n")
		}
		if len(rows) > 3 {
			fmt.Fprintf(&b, "... (%d more rows)\n", len(rows)-3)
		}
		b.WriteString("```\n")
	}
	return b.String()
}

func FormatHistory(raw []byte) string {
	doc := gjson.ParseBytes(raw)
	sid := doc.Get("session_id").String()
	queries := doc.Get("queries").Array()
	if len(queries) == 0 {
		return fmt.Sprintf("📭 No queries recorded for session `%s`", sid)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🕘 **Session `%s`** (%d queries)\n\n", sid, len(queries))
	for i, q := range queries {
		s := q.Get("response_summary")
		fmt.Fprintf(&b, "%d. *%s* → %d result(s) in %.0fms\n",
			i+1, q.Get("query").String(), s.Get("results_count").Int(), s.Get("search_time_ms").Float())
		var names []string
		for _, n := range s.Get("table_names").Array() {
			names = append(names, n.String())
		}
		if len(names) > 0 {
			fmt.Fprintf(&b, "   Tables: %s\n", strings.Join(names, ", "))
		}
	}
	return b.String()
}

func FormatIndexes(raw []byte) string {
	doc := gjson.ParseBytes(raw)
	def := doc.Get("default_index").String()

	var b strings.Builder
	b.WriteString("🗂️ **Available Indexes:**\n\n")
	for _, ix := range doc.Get("indexes").Array() {
		name := ix.Get("name").String()
		fmt.Fprintf(&b, "• **%s** (%d tables)", name, ix.Get("table_count").Int())
		if name == def {
			b.WriteString(" ← default")
		}
		b.WriteString("\n")
	}
	return b.String()
}

var suggestions = []string{
	"Find datasets about traffic patterns",
	"Show me crime data with location information",
	"What weather datasets are available?",
	"Find sales or revenue data",
	"Show me demographic or population data",
	"Find datasets about public transportation",
	"What environmental or pollution data exists?",
	"Show me education or school-related datasets",
}

// QuerySuggestions returns a fixed list of example queries. context is
// accepted for future tailoring and currently unused.
func QuerySuggestions(context string) string {
	_ = context
	var b strings.Builder
	b.WriteString("🔍 **Query Suggestions:**\n\n")
	for i, s := range suggestions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	b.WriteString("\n💡 **Tips:**\n")
	b.WriteString("- Be specific about the type of data you need\n")
	b.WriteString("- Mention location, time period, or domain if relevant\n")
	b.WriteString("- Ask follow-up questions to refine your search\n")
	return b.String()
}
