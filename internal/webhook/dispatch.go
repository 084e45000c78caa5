package webhook

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/kballard/go-shellquote"

	"github.com/rookhook/rook/internal/hook"
	"github.com/rookhook/rook/internal/journal"
	"github.com/rookhook/rook/internal/launch"
)

// maxBodyBytes bounds request bodies. 2 MiB is enough for anyone.
const maxBodyBytes = 1 << 21

const (
	githubEventHeader     = "X-GitHub-Event"
	githubSignatureHeader = "X-Hub-Signature-256"
	rookSignatureHeader   = "X-Rook-Signature-256"
)

// githubPayload is the subset of a GitHub push/deploy payload the matcher
// and the spawned script care about.
type githubPayload struct {
	Ref        string `json:"ref"`
	After      string `json:"after"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
}

// handleHook runs the dispatch state machine for one request. Responses
// never carry bodies.
func (s *Server) handleHook(w http.ResponseWriter, r *http.Request) {
	hooks, ok := s.table.Route(r.URL.Path)
	if !ok || len(hooks) == 0 {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	var status int
	switch hooks[0].Type {
	case hook.TypeGitHub:
		status = s.dispatchGitHub(r, hooks, body)
	case hook.TypeRook:
		status = s.dispatchRook(r, hooks, body)
	default:
		status = http.StatusInternalServerError
	}

	w.WriteHeader(status)
}

// readBody buffers the request body under the size limit, responding 400 on
// oversize or read failure.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	limited := io.LimitReader(r.Body, maxBodyBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return nil, false
	}
	if len(body) > maxBodyBytes {
		w.WriteHeader(http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

// dispatchGitHub filters github hooks by event and repo, verifies each
// match with its own secret, and spawns the survivors with the payload in
// environment variables.
func (s *Server) dispatchGitHub(r *http.Request, hooks []*hook.Hook, body []byte) int {
	event := r.Header.Get(githubEventHeader)
	if !hook.SupportedEvents[event] {
		s.logger.Debug("unhandled event type", "path", r.URL.Path, "event", event)
		return http.StatusBadRequest
	}

	var payload githubPayload
	if err := json.Unmarshal(body, &payload); err != nil || payload.Repository.FullName == "" {
		return http.StatusBadRequest
	}
	repo := payload.Repository.FullName

	signature := r.Header.Get(githubSignatureHeader)

	matched := 0
	var verified []*hook.Hook
	for _, h := range hooks {
		if !h.Matches(event, repo) {
			continue
		}
		matched++
		if !verifySignature(h.Secret, body, signature) {
			continue
		}
		verified = append(verified, h)
	}

	if matched == 0 {
		s.logger.Debug("no hooks for repo", "path", r.URL.Path, "event", event)
		return http.StatusBadRequest
	}
	if len(verified) == 0 {
		s.logger.Warn("signature mismatch", "path", r.URL.Path)
		return http.StatusBadRequest
	}

	// https://security.stackexchange.com/a/14009
	env := []string{
		"GITHUB_EVENT=" + event,
		"GITHUB_REPO=" + repo,
		"GITHUB_COMMIT=" + payload.After,
		"GITHUB_REF=" + payload.Ref,
	}

	started := s.spawnAll(verified, nil, env, event, repo)
	s.logger.Info("github dispatch",
		"path", r.URL.Path, "event", event,
		"matched", matched, "verified", len(verified), "started", started)

	if started == 0 {
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

// dispatchRook verifies every hook at the path against its own secret and
// spawns the survivors with the shell-lexed body as arguments.
func (s *Server) dispatchRook(r *http.Request, hooks []*hook.Hook, body []byte) int {
	if !utf8.Valid(body) {
		return http.StatusBadRequest
	}
	args, err := shellquote.Split(strings.TrimSpace(string(body)))
	if err != nil {
		return http.StatusBadRequest
	}

	signature := r.Header.Get(rookSignatureHeader)

	var verified []*hook.Hook
	for _, h := range hooks {
		if !verifySignature(h.Secret, body, signature) {
			continue
		}
		verified = append(verified, h)
	}

	if len(verified) == 0 {
		s.logger.Warn("signature mismatch", "path", r.URL.Path)
		return http.StatusBadRequest
	}

	started := s.spawnAll(verified, args, nil, "", "")
	s.logger.Info("rook dispatch",
		"path", r.URL.Path, "args", len(args),
		"verified", len(verified), "started", started)

	if started == 0 {
		return http.StatusInternalServerError
	}
	return http.StatusOK
}

// spawnAll launches all verified hooks concurrently and returns how many
// launch attempts succeeded. It waits for initiation only, never for the
// commands to finish. Launch uses a fresh Spec per hook, fully built before
// the goroutine starts.
func (s *Server) spawnAll(hooks []*hook.Hook, args, env []string, event, repo string) int {
	var wg sync.WaitGroup
	var started int64

	for _, h := range hooks {
		wg.Add(1)
		go func(h *hook.Hook) {
			defer wg.Done()
			err := s.launcher.Start(launch.Spec{
				Command: h.Command,
				Args:    args,
				Env:     env,
			})
			if err != nil {
				s.logger.Error("hook spawn failed", "path", h.URL, "command", h.Command, "error", err)
			} else {
				atomic.AddInt64(&started, 1)
			}
			s.record(h, event, repo, err)
		}(h)
	}

	wg.Wait()
	return int(started)
}

// record writes one journal entry per spawn attempt. The request context is
// deliberately not used: an initiated dispatch is recorded even if the
// client has gone away. Journal errors never reach the caller.
func (s *Server) record(h *hook.Hook, event, repo string, spawnErr error) {
	if s.journal == nil {
		return
	}

	entry := journal.Entry{
		URL:      h.URL,
		HookType: string(h.Type),
		Event:    event,
		Repo:     repo,
		Command:  h.Command,
		Outcome:  journal.OutcomeStarted,
	}
	if spawnErr != nil {
		entry.Outcome = journal.OutcomeFailed
		entry.Error = spawnErr.Error()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := s.journal.Record(ctx, entry); err != nil {
		s.logger.Warn("journal record failed", "path", h.URL, "error", err)
	}
}
