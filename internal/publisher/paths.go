package publisher

import (
	"path"
	"strings"
)

const draftsPrefix = "drafts"

// buildOutputPath maps an identifier to its artifact location. Published
// documents land at <identifier>/index.html so their route stays the
// permalink; drafts are parked under an unlinked prefix.
func buildOutputPath(identifier string, draft bool) string {
	clean := strings.Trim(strings.TrimSpace(identifier), "/")
	if clean == "" {
		return "index.html"
	}
	if draft {
		return path.Join(draftsPrefix, clean, "index.html")
	}
	return path.Join(clean, "index.html")
}

// routeFor is the public route corresponding to an identifier.
func routeFor(identifier string, draft bool) string {
	clean := strings.Trim(strings.TrimSpace(identifier), "/")
	if clean == "" {
		return "/"
	}
	if draft {
		return "/" + draftsPrefix + "/" + clean + "/"
	}
	return "/" + clean + "/"
}

func joinOutputPath(base string, rel string) string {
	if strings.TrimSpace(base) == "" {
		return strings.TrimLeft(rel, "/")
	}
	return path.Join(strings.Trim(base, "/"), rel)
}
