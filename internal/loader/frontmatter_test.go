package loader

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseFrontMatterFields(t *testing.T) {
	source := []byte(`---
title: Getting Started
permalink: /getting-started
order: 10
published: true
author: docs-team
category: guides
---
# Welcome

Body text.
`)

	fm, body, err := ParseFrontMatter("getting-started.md", source)
	if err != nil {
		t.Fatalf("ParseFrontMatter returned error: %v", err)
	}

	if fm.Title != "Getting Started" {
		t.Errorf("Title = %q, want %q", fm.Title, "Getting Started")
	}
	if fm.Permalink != "/getting-started" {
		t.Errorf("Permalink = %q, want %q", fm.Permalink, "/getting-started")
	}
	if fm.Order != "10" {
		t.Errorf("Order = %q, want %q (ordering keys stay strings)", fm.Order, "10")
	}
	if !fm.Published {
		t.Error("Published = false, want true")
	}
	if got := fm.Custom["category"]; got != "guides" {
		t.Errorf("Custom[category] = %v, want guides", got)
	}
	if got := fm.Raw["published"]; got != true {
		t.Errorf("Raw[published] = %v, want true", got)
	}
	if !strings.Contains(string(body), "# Welcome") {
		t.Errorf("body missing markdown content: %q", body)
	}
	if strings.Contains(string(body), "---") {
		t.Errorf("body still contains front matter delimiters: %q", body)
	}
}

func TestParseFrontMatterPublishedDefaultsFalse(t *testing.T) {
	source := []byte("---\ntitle: Draft\npermalink: /draft\n---\nbody\n")

	fm, _, err := ParseFrontMatter("draft.md", source)
	if err != nil {
		t.Fatalf("ParseFrontMatter returned error: %v", err)
	}
	if fm.Published {
		t.Error("Published should default to false when omitted")
	}
	if got := fm.Raw["published"]; got != false {
		t.Errorf("Raw[published] = %v, want false", got)
	}
}

func TestParseFrontMatterMissingHeader(t *testing.T) {
	_, _, err := ParseFrontMatter("plain.md", []byte("# Just markdown\n"))
	if err == nil {
		t.Fatal("expected error for document without front matter")
	}
	if !errors.Is(err, ErrMalformedDocument) {
		t.Errorf("error %v should wrap ErrMalformedDocument", err)
	}

	var malformedErr *MalformedDocumentError
	if !errors.As(err, &malformedErr) {
		t.Fatalf("error %v should be a MalformedDocumentError", err)
	}
	if malformedErr.Path != "plain.md" {
		t.Errorf("Path = %q, want plain.md", malformedErr.Path)
	}
}

func TestParseFrontMatterInvalidYAML(t *testing.T) {
	source := []byte("---\ntitle: [unclosed\n---\nbody\n")

	_, _, err := ParseFrontMatter("broken.md", source)
	if !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("error %v should wrap ErrMalformedDocument", err)
	}
}

func TestParseFrontMatterUnterminatedHeader(t *testing.T) {
	source := []byte("---\ntitle: No closing delimiter\n")

	_, _, err := ParseFrontMatter("unterminated.md", source)
	if !errors.Is(err, ErrMalformedDocument) {
		t.Fatalf("error %v should wrap ErrMalformedDocument", err)
	}
}

func TestBuildDocumentCarriesMetadata(t *testing.T) {
	modified := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	source := []byte("---\ntitle: Doc\npermalink: /doc\npublished: true\n---\ncontent\n")

	doc, err := BuildDocument("doc.md", source, modified)
	if err != nil {
		t.Fatalf("BuildDocument returned error: %v", err)
	}
	if doc.FilePath != "doc.md" {
		t.Errorf("FilePath = %q, want doc.md", doc.FilePath)
	}
	if !doc.LastModified.Equal(modified) {
		t.Errorf("LastModified = %v, want %v", doc.LastModified, modified)
	}
	if len(doc.BodyHTML) != 0 {
		t.Error("BodyHTML should be empty until the publisher renders")
	}
}
