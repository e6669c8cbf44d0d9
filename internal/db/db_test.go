package db

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sujalbistaa/yatube/internal/models"
)

func TestOpenSQLiteAndMigrate(t *testing.T) {
	url := "sqlite://" + filepath.Join(t.TempDir(), "yatube.db")

	db, err := Open(Options{URL: url}, nil)
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	for _, m := range models.All() {
		assert.True(t, db.Migrator().HasTable(m), "missing table for %T", m)
	}
	assert.True(t, db.Migrator().HasIndex(&models.Follow{}, "idx_follow_user_author"))
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	_, err := Open(Options{URL: "mysql://localhost/yatube"}, nil)
	assert.Error(t, err)
}

func TestSQLiteForeignKeysPragma(t *testing.T) {
	d, err := dialectorFor("sqlite://file.db?cache=shared", nil)
	require.NoError(t, err)
	require.IsType(t, &sqlite.Dialector{}, d)
	assert.Equal(t, "file.db?cache=shared&_pragma=foreign_keys(1)", d.(*sqlite.Dialector).DSN)
}
