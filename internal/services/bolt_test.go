package services_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/forexbot/forexbot/internal/services"
	"github.com/stretchr/testify/require"
)

func newTestBoltDB(t *testing.T) services.BoltDB {
	t.Helper()

	db, err := services.NewBoltDB(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestBoltDBAssistantID(t *testing.T) {
	ctx := context.Background()
	db := newTestBoltDB(t)

	id, err := db.AssistantID(ctx, "ForexBot/gpt-4o-mini")
	require.NoError(t, err)
	require.Empty(t, id)

	require.NoError(t, db.SetAssistantID(ctx, "ForexBot/gpt-4o-mini", "asst_1"))
	require.NoError(t, db.SetAssistantID(ctx, "ForexBot/gpt-4o", "asst_2"))

	id, err = db.AssistantID(ctx, "ForexBot/gpt-4o-mini")
	require.NoError(t, err)
	require.Equal(t, "asst_1", id)

	require.NoError(t, db.SetAssistantID(ctx, "ForexBot/gpt-4o-mini", "asst_3"))
	id, err = db.AssistantID(ctx, "ForexBot/gpt-4o-mini")
	require.NoError(t, err)
	require.Equal(t, "asst_3", id)
}

func TestBoltDBSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.db")

	db, err := services.NewBoltDB(path)
	require.NoError(t, err)
	require.NoError(t, db.SetAssistantID(ctx, "k", "asst_persisted"))
	require.NoError(t, db.Close())

	db, err = services.NewBoltDB(path)
	require.NoError(t, err)
	defer db.Close()

	id, err := db.AssistantID(ctx, "k")
	require.NoError(t, err)
	require.Equal(t, "asst_persisted", id)
}
