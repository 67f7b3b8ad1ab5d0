// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestAddAndRecent(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Add(Record{
		Command:  "translate",
		Input:    "Bonjour",
		Response: "Hello",
		Model:    "gpt-4o-mini",
		Elapsed:  1500 * time.Millisecond,
	}))
	require.NoError(t, db.Add(Record{
		Command:   "summarize",
		Input:     "long text",
		Response:  "short",
		Model:     "gpt-4o-mini",
		Elapsed:   2 * time.Second,
		Truncated: true,
	}))

	records, err := db.Recent(10)
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Newest first.
	assert.Equal(t, "summarize", records[0].Command)
	assert.True(t, records[0].Truncated)
	assert.Equal(t, 2*time.Second, records[0].Elapsed)

	assert.Equal(t, "translate", records[1].Command)
	assert.Equal(t, "Hello", records[1].Response)
	assert.False(t, records[1].Truncated)
	assert.False(t, records[1].CreatedAt.IsZero())
}

func TestRecentLimit(t *testing.T) {
	db := openTestDB(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, db.Add(Record{Command: "ask", Input: "q", Response: "a", Model: "m"}))
	}

	records, err := db.Recent(3)
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestRecentEmpty(t *testing.T) {
	db := openTestDB(t)

	records, err := db.Recent(0)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestClear(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Add(Record{Command: "ask", Input: "q", Response: "a", Model: "m"}))
	require.NoError(t, db.Clear())

	records, err := db.Recent(0)
	require.NoError(t, err)
	assert.Empty(t, records)
}
