package expansion

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"collection-engine/core/database"
	"collection-engine/core/snapshot"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func setupSQLite(t *testing.T) *gorm.DB {
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)
	return db
}

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to open mock sql db: %v", err)
	}
	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn:                      db,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open gorm db: %v", err)
	}
	return gormDB, mock
}

func TestStore_SaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupSQLite(t), nil)
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.CheckSchema())

	err := store.Save(ctx, "c1", map[string]snapshot.ExpansionState{
		"today": snapshot.Collapsed,
		"later": snapshot.Expanded,
		"flat":  snapshot.NotExpandable,
	})
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "c2", map[string]snapshot.ExpansionState{"x": snapshot.Collapsed}))

	got, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, map[string]snapshot.ExpansionState{
		"today": snapshot.Collapsed,
		"later": snapshot.Expanded,
	}, got)

	// Save replaces rather than merges.
	require.NoError(t, store.Save(ctx, "c1", map[string]snapshot.ExpansionState{"later": snapshot.Collapsed}))
	got, err = store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, map[string]snapshot.ExpansionState{"later": snapshot.Collapsed}, got)

	require.NoError(t, store.Delete(ctx, "c1"))
	got, err = store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = store.Load(ctx, "c2")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestStore_LoadSkipsInvalidRows(t *testing.T) {
	ctx := context.Background()
	db := setupSQLite(t)
	store := NewStore(db, nil)
	require.NoError(t, store.Migrate(ctx))

	require.NoError(t, db.Create(&[]Record{
		{CollectionID: "c1", SectionKey: "a", State: "collapsed"},
		{CollectionID: "c1", SectionKey: "b", State: "none"},
		{CollectionID: "c1", SectionKey: "c", State: "sideways"},
	}).Error)

	got, err := store.Load(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, map[string]snapshot.ExpansionState{"a": snapshot.Collapsed}, got)
}

func TestStore_Seed(t *testing.T) {
	ctx := context.Background()
	store := NewStore(setupSQLite(t), nil)
	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Save(ctx, "c1", map[string]snapshot.ExpansionState{"a": snapshot.Collapsed}))

	prev, err := Seed(ctx, store, "c1")
	require.NoError(t, err)

	next, err := snapshot.Build([]snapshot.Input[string, any]{{Key: "a"}, {Key: "b"}}, nil, prev)
	require.NoError(t, err)
	assert.Equal(t, snapshot.Collapsed, next.Sections()[0].Expansion)
	assert.Equal(t, snapshot.Expanded, next.Sections()[1].Expansion)
}

func TestStore_CheckSchema(t *testing.T) {
	t.Run("MissingColumn", func(t *testing.T) {
		db := setupSQLite(t)
		require.NoError(t, db.Exec("CREATE TABLE collection_expansions (collection_id TEXT, section_key TEXT, state TEXT)").Error)

		err := NewStore(db, nil).CheckSchema()
		assert.ErrorContains(t, err, "updated_at")
	})

	t.Run("MySQL", func(t *testing.T) {
		db, mock := setupMockDB(t)
		rows := sqlmock.NewRows([]string{"Field", "Type", "Null", "Key", "Default", "Extra"}).
			AddRow("collection_id", "varchar(64)", "NO", "PRI", nil, "").
			AddRow("section_key", "varchar(191)", "NO", "PRI", nil, "")
		mock.ExpectQuery("SHOW COLUMNS FROM `collection_expansions`").WillReturnRows(rows)

		err := NewStore(db, nil).CheckSchema()
		assert.ErrorContains(t, err, "state, updated_at")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStore_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("Load", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `collection_expansions` WHERE collection_id = ?")).
			WithArgs("c1").
			WillReturnError(errors.New("connection reset"))

		_, err := NewStore(db, nil).Load(ctx, "c1")
		assert.ErrorContains(t, err, "connection reset")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Save", func(t *testing.T) {
		db, mock := setupMockDB(t)
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM `collection_expansions`")).
			WillReturnError(errors.New("lock wait timeout"))
		mock.ExpectRollback()

		err := NewStore(db, nil).Save(ctx, "c1", map[string]snapshot.ExpansionState{"a": snapshot.Collapsed})
		assert.ErrorContains(t, err, "lock wait timeout")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
