package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(context.Background(), filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	id1, err := j.Record(ctx, Entry{
		URL:      "/hooks/gh",
		HookType: "github",
		Event:    "push",
		Repo:     "org/a",
		Command:  "/usr/local/bin/deploy.sh",
		Outcome:  OutcomeStarted,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id1)

	id2, err := j.Record(ctx, Entry{
		URL:       "/build",
		HookType:  "rook",
		Command:   "/usr/local/bin/build.sh",
		Outcome:   OutcomeFailed,
		Error:     "start /usr/local/bin/build.sh: permission denied",
		CreatedAt: time.Now().UTC().Add(time.Second),
	})
	require.NoError(t, err)
	require.NotEqual(t, id1, id2)

	entries, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first
	assert.Equal(t, id2, entries[0].ID)
	assert.Equal(t, OutcomeFailed, entries[0].Outcome)
	assert.Contains(t, entries[0].Error, "permission denied")

	assert.Equal(t, id1, entries[1].ID)
	assert.Equal(t, "push", entries[1].Event)
	assert.Equal(t, "org/a", entries[1].Repo)
	assert.Equal(t, OutcomeStarted, entries[1].Outcome)
	assert.False(t, entries[1].CreatedAt.IsZero())
}

func TestRecent_Limit(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		_, err := j.Record(ctx, Entry{
			URL:       "/build",
			HookType:  "rook",
			Command:   "/bin/true",
			Outcome:   OutcomeStarted,
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		})
		require.NoError(t, err)
	}

	entries, err := j.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestRecord_Validation(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	_, err := j.Record(ctx, Entry{Command: "/bin/true", Outcome: OutcomeStarted})
	assert.Error(t, err, "missing url")

	_, err = j.Record(ctx, Entry{URL: "/b", Outcome: OutcomeStarted})
	assert.Error(t, err, "missing command")

	_, err = j.Record(ctx, Entry{URL: "/b", Command: "/bin/true", Outcome: Outcome("bogus")})
	assert.Error(t, err, "invalid outcome")
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := Open(context.Background(), "")
	assert.Error(t, err)
}
