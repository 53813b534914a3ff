package publisher

import (
	"fmt"
	"html"
	"strings"
	"time"
)

const feedFileName = "feed.atom.xml"

// buildAtomFeed emits the collection as an Atom feed, newest modification
// first. Drafts never appear.
func buildAtomFeed(site SiteMetadata, docs []RenderedDocument, generatedAt time.Time) string {
	base := baseURLWithFallback(site.BaseURL)
	feedID := base + "/" + feedFileName
	title := strings.TrimSpace(site.Title)
	if title == "" {
		title = base
	}

	items := make([]RenderedDocument, 0, len(docs))
	for _, doc := range docs {
		if doc.Draft {
			continue
		}
		items = append(items, doc)
	}

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom">` + "\n")
	builder.WriteString(fmt.Sprintf("  <id>%s</id>\n", escapeXML(feedID)))
	builder.WriteString(fmt.Sprintf("  <title>%s</title>\n", escapeXML(title)))
	if desc := strings.TrimSpace(site.Description); desc != "" {
		builder.WriteString(fmt.Sprintf("  <subtitle>%s</subtitle>\n", escapeXML(desc)))
	}
	builder.WriteString(fmt.Sprintf("  <updated>%s</updated>\n", generatedAt.UTC().Format(time.RFC3339)))
	builder.WriteString(fmt.Sprintf(`  <link rel="alternate" href="%s" />`+"\n", escapeXML(base)))
	builder.WriteString(fmt.Sprintf(`  <link rel="self" href="%s" />`+"\n", escapeXML(feedID)))
	for _, item := range items {
		updated := item.Modified
		if updated.IsZero() {
			updated = generatedAt
		}
		entryTitle := strings.TrimSpace(item.Title)
		if entryTitle == "" {
			entryTitle = item.Identifier
		}
		link := absoluteURL(site.BaseURL, item.Route)
		builder.WriteString("  <entry>\n")
		builder.WriteString(fmt.Sprintf("    <id>%s</id>\n", escapeXML(link)))
		builder.WriteString(fmt.Sprintf("    <title>%s</title>\n", escapeXML(entryTitle)))
		builder.WriteString(fmt.Sprintf(`    <link href="%s" />`+"\n", escapeXML(link)))
		builder.WriteString(fmt.Sprintf("    <updated>%s</updated>\n", updated.UTC().Format(time.RFC3339)))
		builder.WriteString("  </entry>\n")
	}
	builder.WriteString(`</feed>` + "\n")
	return builder.String()
}

func baseURLWithFallback(base string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(base), "/")
	if trimmed == "" {
		return "http://localhost"
	}
	return trimmed
}

func absoluteURL(base, route string) string {
	targetBase := baseURLWithFallback(base)
	normalized := strings.TrimSpace(route)
	if normalized == "" {
		return targetBase
	}
	if !strings.HasPrefix(normalized, "/") {
		normalized = "/" + normalized
	}
	return targetBase + normalized
}

func escapeXML(value string) string {
	return html.EscapeString(value)
}
