// Package webhook implements the HTTP dispatch engine: signed POST requests
// are verified with HMAC-SHA256, matched against the route table, and each
// match fires a detached local script.
//
// # Security Model
//
// - HMAC-SHA256 signatures verified with crypto/subtle (constant-time comparison)
// - Secrets are per hook; each candidate hook is verified independently
// - Body size limits enforced to prevent DoS
// - Error responses carry empty bodies: callers learn nothing about which
//   hooks exist, which signatures failed, or why a spawn failed
// - Request logging excludes bodies, headers, and secrets
//
// # Request Flow
//
//  1. HTTP POST arrives at a configured path (unknown path: 404)
//  2. Body read under the 2 MiB limit (oversize: 400)
//  3. github hooks: X-GitHub-Event must be push or deploy, body parsed as
//     a GitHub payload, hooks filtered by repo + event
//     rook hooks: body shell-lexed into an argument vector
//  4. Each matched hook's signature checked against its own secret;
//     failures are silently dropped
//  5. Verified hooks spawn concurrently as detached processes; the
//     response waits only for launch attempts, never completion
//
// # Responses
//
// - 200 OK: at least one hook script was started
// - 400 Bad Request: malformed body/event, no hook matched, or none verified
// - 404 Not Found: unknown path
// - 500 Internal Server Error: hooks verified but no process could start
//
// All bodies are empty.
package webhook
