package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	// ErrSchemaInvalid marks a front-matter schema that cannot be compiled.
	ErrSchemaInvalid = errors.New("front matter schema invalid")
	// ErrMetadataValidation marks document metadata rejected by the schema.
	ErrMetadataValidation = errors.New("front matter validation failed")
)

// Issue captures a single validation failure with its JSON location.
type Issue struct {
	Location string
	Message  string
}

// MetadataError surfaces validation issues with schema-aware context so a
// failed run can name the exact offending field.
type MetadataError struct {
	Path   string
	Issues []Issue
	Cause  error
}

func (e *MetadataError) Error() string {
	prefix := strings.TrimSpace(e.Path)
	if prefix != "" {
		prefix += ": "
	}
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return prefix + e.Cause.Error()
		}
		return prefix + ErrMetadataValidation.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := strings.TrimSpace(issue.Location)
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		if issue.Message == "" {
			parts = append(parts, location)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return prefix + strings.Join(parts, "; ")
}

func (e *MetadataError) Unwrap() error {
	return ErrMetadataValidation
}

// CollectIssues extracts validation issues from an error.
func CollectIssues(err error) []Issue {
	if err == nil {
		return nil
	}
	var metadataErr *MetadataError
	if errors.As(err, &metadataErr) && metadataErr != nil {
		return metadataErr.Issues
	}
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) && validationErr != nil {
		return collectValidationIssues(validationErr)
	}
	return []Issue{{Message: err.Error()}}
}

// Schema is a compiled front-matter schema, reused for every document in a
// run. A nil Schema validates everything.
type Schema struct {
	compiled *jsonschema.Schema
}

// CompileSchema compiles the configured schema once, up front, so any schema
// error surfaces before documents are checked. An empty schema yields nil.
func CompileSchema(schema map[string]any) (*Schema, error) {
	if len(schema) == 0 {
		return nil, nil
	}
	compiled, err := compileSchema(schema)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return &Schema{compiled: compiled}, nil
}

// ValidateMetadata checks a document's raw front-matter map against the
// schema. Opaque custom fields participate, so repositories can constrain
// fields this pipeline otherwise passes through uninterpreted.
func (s *Schema) ValidateMetadata(path string, metadata map[string]any) error {
	if s == nil || s.compiled == nil {
		return nil
	}
	if metadata == nil {
		metadata = map[string]any{}
	}
	if err := s.compiled.Validate(metadata); err != nil {
		return &MetadataError{
			Path:   path,
			Issues: CollectIssues(err),
			Cause:  err,
		}
	}
	return nil
}

func compileSchema(schema map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("frontmatter.json", bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile("frontmatter.json")
}

func collectValidationIssues(err *jsonschema.ValidationError) []Issue {
	if err == nil {
		return nil
	}
	issues := []Issue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
