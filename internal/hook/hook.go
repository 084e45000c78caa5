// Package hook defines the immutable route table mapping URL paths to
// configured hook definitions. The table is built once at startup and
// shared read-only by every request; there is no mutation API.
package hook

import (
	"fmt"
	"sort"
)

// Type discriminates the two hook flavors. Every hook sharing a URL path
// must have the same type.
type Type string

const (
	// TypeGitHub hooks filter on a GitHub event payload (repo + event) and
	// hand data to the command via environment variables.
	TypeGitHub Type = "github"

	// TypeRook hooks accept any verified body and pass it, shell-lexed,
	// as the command's argument vector.
	TypeRook Type = "rook"
)

// SupportedEvents is the set of GitHub event types the server recognizes.
// Events outside this set never match, signature or not.
var SupportedEvents = map[string]bool{
	"push":   true,
	"deploy": true,
}

// Hook is one configured rule: a URL path bound to a secret and a command,
// plus repo/event filters for github hooks. Secret is loaded once from the
// referenced file at startup and must never be logged.
type Hook struct {
	Type    Type
	URL     string
	Secret  []byte
	Command string

	// GitHub hooks only.
	Repo   string
	Events map[string]bool
}

// Matches reports whether a github hook accepts the given event and repo.
// Rook hooks match unconditionally.
func (h *Hook) Matches(event, repo string) bool {
	if h.Type != TypeGitHub {
		return true
	}
	return h.Events[event] && h.Repo == repo
}

// Table maps URL paths to their hooks in config order. Insertion order is
// preserved per path; it fixes evaluation order only, spawns run
// concurrently.
type Table struct {
	routes map[string][]*Hook
}

// BuildTable groups hooks by URL path and freezes the result. It fails if a
// path mixes hook types, or if any hook is missing its command or secret.
func BuildTable(hooks []*Hook) (*Table, error) {
	routes := make(map[string][]*Hook)
	for _, h := range hooks {
		if h.URL == "" {
			return nil, fmt.Errorf("hook has empty url")
		}
		if h.Command == "" {
			return nil, fmt.Errorf("hook %q: command_path is empty", h.URL)
		}
		if len(h.Secret) == 0 {
			return nil, fmt.Errorf("hook %q: secret is empty", h.URL)
		}
		if existing := routes[h.URL]; len(existing) > 0 && existing[0].Type != h.Type {
			return nil, fmt.Errorf("hook path type conflict: %q", h.URL)
		}
		routes[h.URL] = append(routes[h.URL], h)
	}
	return &Table{routes: routes}, nil
}

// Route returns the hooks registered at path, if any.
func (t *Table) Route(path string) ([]*Hook, bool) {
	hooks, ok := t.routes[path]
	return hooks, ok
}

// Paths returns every registered path, sorted.
func (t *Table) Paths() []string {
	paths := make([]string, 0, len(t.routes))
	for p := range t.routes {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of registered paths.
func (t *Table) Len() int {
	return len(t.routes)
}
