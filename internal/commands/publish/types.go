package publishcmd

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-sitegen/internal/publisher"
)

const (
	buildSiteMessageType = "sitegen.publish.build"
	diffSiteMessageType  = "sitegen.publish.diff"
	cleanSiteMessageType = "sitegen.publish.clean"
)

// ResultCallback receives build results produced by publisher operations. The
// callback is optional and is invoked synchronously from the handler when a
// BuildResult is available.
type ResultCallback func(ResultEnvelope)

// ResultEnvelope captures the outcome of a publish command execution.
type ResultEnvelope struct {
	Result   *publisher.BuildResult
	Metadata map[string]any
}

// BuildSiteCommand executes a publisher build, optionally restricted to the
// named document identifiers.
type BuildSiteCommand struct {
	Identifiers    []string       `json:"identifiers,omitempty"`
	Force          bool           `json:"force,omitempty"`
	DryRun         bool           `json:"dry_run,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (BuildSiteCommand) Type() string { return buildSiteMessageType }

// Validate ensures identifiers are well-formed.
func (m BuildSiteCommand) Validate() error {
	errs := validation.Errors{}
	for _, id := range m.Identifiers {
		if strings.TrimSpace(id) == "" {
			errs["identifiers"] = validation.NewError("sitegen.publish.build.identifier_invalid", "identifiers must not contain empty values")
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// DiffSiteCommand performs a dry-run build to surface differences without
// writing artifacts.
type DiffSiteCommand struct {
	Identifiers    []string       `json:"identifiers,omitempty"`
	Force          bool           `json:"force,omitempty"`
	ResultCallback ResultCallback `json:"-"`
}

// Type implements command.Message.
func (DiffSiteCommand) Type() string { return diffSiteMessageType }

// Validate ensures identifiers are well-formed.
func (m DiffSiteCommand) Validate() error {
	errs := validation.Errors{}
	for _, id := range m.Identifiers {
		if strings.TrimSpace(id) == "" {
			errs["identifiers"] = validation.NewError("sitegen.publish.diff.identifier_invalid", "identifiers must not contain empty values")
			break
		}
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// CleanSiteCommand clears publisher artifacts from the configured storage backend.
type CleanSiteCommand struct{}

// Type implements command.Message.
func (CleanSiteCommand) Type() string { return cleanSiteMessageType }

// Validate satisfies command.Message; there are no payload constraints.
func (CleanSiteCommand) Validate() error { return nil }

// FeatureGates exposes runtime switches used to guard handler execution.
type FeatureGates struct {
	PublisherEnabled func() bool
}

func (g FeatureGates) publisherEnabled() bool {
	if g.PublisherEnabled == nil {
		return false
	}
	return g.PublisherEnabled()
}

func normalizeIdentifiers(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := map[string]struct{}{}
	for _, id := range values {
		trimmed := strings.Trim(strings.TrimSpace(id), "/")
		if trimmed == "" {
			continue
		}
		key := strings.ToLower(trimmed)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
