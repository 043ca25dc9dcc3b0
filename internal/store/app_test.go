package store

import (
	"context"
	"testing"

	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"esports-platform/models"
)

// The server builds the store before app.Start bootstraps the data db.
func TestNew_CreatedBeforeBootstrap(t *testing.T) {
	app := core.NewBaseApp(core.BaseAppConfig{DataDir: t.TempDir()})
	st := New(app)

	require.NoError(t, app.Bootstrap())
	t.Cleanup(func() { app.ResetBootstrapState() })
	require.NoError(t, CreateSchema(app.DB()))

	require.NotPanics(t, func() {
		assert.NoError(t, st.Ping())
	})

	ctx := context.Background()
	event := seedEvent(t, st, intPtr(2), models.EventPublished)

	found, err := st.FindEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.Title, found.Title)

	counts, err := st.CountEventsByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[string(models.EventPublished)])
}

func TestNew_TransactionsUseAppDB(t *testing.T) {
	app, err := tests.NewTestApp()
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)
	require.NoError(t, CreateSchema(app.DB()))

	st := New(app)
	ctx := context.Background()
	event := seedEvent(t, st, intPtr(2), models.EventPublished)

	err = st.RunInTx(func(tx *Store) error {
		ok, err := tx.ReserveSlot(ctx, event.ID)
		require.True(t, ok)
		return err
	})
	require.NoError(t, err)

	found, err := st.FindEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, found.CurrentTeams)

	events, err := st.ListEventsByStatus(ctx, models.EventPublished)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}
