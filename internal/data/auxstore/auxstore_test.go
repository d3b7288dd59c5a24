package auxstore

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "timscompare/internal/core/errors"
	"timscompare/internal/data/locator"
)

func writeDB(t *testing.T, path string, stmts ...string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	db, err := sql.Open(driverName, fileURI(path))
	require.NoError(t, err)
	defer db.Close()
	for _, stmt := range stmts {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
}

const diaSchema = `CREATE TABLE DiaWindowsSpecification (
  Id INTEGER, Type INTEGER, CycleId INTEGER,
  OneOverK0Start REAL, OneOverK0End REAL, IsolationMz REAL, IsolationWidth REAL)`

func TestReadDiaWindows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diaSettings.diasqlite")
	writeDB(t, path,
		diaSchema,
		`INSERT INTO DiaWindowsSpecification VALUES (1, 0, 0, NULL, NULL, NULL, NULL)`,
		`INSERT INTO DiaWindowsSpecification VALUES (2, 1, 1, 0.85, 1.0, 412.5, 25)`,
		`INSERT INTO DiaWindowsSpecification VALUES (3, 1, 2, 1.0, 1.3, 612.5, 25)`,
	)

	rows, err := ReadDiaWindows(context.Background(), path, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, 0, rows[0].Type)
	assert.Zero(t, rows[0].OneOverK0Start)
	assert.Equal(t, 2, rows[2].CycleID)
	assert.InDelta(t, 612.5, rows[2].IsolationMz, 1e-9)
	assert.InDelta(t, 1.3, rows[2].OneOverK0End, 1e-9)
}

func TestReadDiaWindows_MissingTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diaSettings.diasqlite")
	writeDB(t, path, `CREATE TABLE Other (x INTEGER)`)

	_, err := ReadDiaWindows(context.Background(), path, 0)
	assert.Error(t, err)
}

func TestReadDiagonalTemplate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "synchroSettings.syncsqlite")
	writeDB(t, path,
		`CREATE TABLE Template (slope REAL, origin REAL, width_mz REAL, isolation_mz REAL,
		  number_of_slices INTEGER, insert_ms_scan INTEGER, name TEXT, comment TEXT)`,
		`INSERT INTO Template VALUES (0.001, 0.3, 400, 25, 4, 1, 'default', NULL)`,
		`INSERT INTO Template VALUES (0.002, 0.1, 200, 10, 2, 0, 'second', NULL)`,
	)

	tpl, err := ReadDiagonalTemplate(context.Background(), path, 0)
	require.NoError(t, err)
	require.NotNil(t, tpl.Slope)
	assert.InDelta(t, 0.001, *tpl.Slope, 1e-12)
	require.NotNil(t, tpl.WidthMz)
	assert.InDelta(t, 400, *tpl.WidthMz, 1e-9)
	assert.Equal(t, 4, tpl.NumberOfSlices)
	assert.Equal(t, 1, tpl.InsertMSScans)
	assert.Equal(t, map[string]string{"name": "default"}, tpl.Extra)
}

func TestReadDiagonalTemplate_NullsAndEmpty(t *testing.T) {
	dir := t.TempDir()
	withNulls := filepath.Join(dir, "a.syncsqlite")
	writeDB(t, withNulls,
		`CREATE TABLE Template (slope REAL, origin REAL, width_mz REAL, number_of_slices INTEGER)`,
		`INSERT INTO Template VALUES (NULL, 0.3, 400, NULL)`,
	)
	tpl, err := ReadDiagonalTemplate(context.Background(), withNulls, 0)
	require.NoError(t, err)
	assert.Nil(t, tpl.Slope)
	assert.Nil(t, tpl.IsolationMz)
	assert.Zero(t, tpl.NumberOfSlices)

	empty := filepath.Join(dir, "b.syncsqlite")
	writeDB(t, empty, `CREATE TABLE Template (slope REAL)`)
	_, err = ReadDiagonalTemplate(context.Background(), empty, 0)
	assert.ErrorIs(t, err, ErrEmptyTemplate)
}

func TestSource_LocatesAndCaches(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "nested", "DIASETTINGS.diasqlite")
	writeDB(t, path,
		diaSchema,
		`INSERT INTO DiaWindowsSpecification VALUES (1, 1, 1, 0.8, 1.2, 500, 20)`,
	)

	src := NewSource(root, locator.New(), Options{})
	rows, err := src.DiaWindows(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	require.NoError(t, os.Remove(path))
	again, err := src.DiaWindows(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rows, again)
}

func TestSource_MissingStore(t *testing.T) {
	src := Factory(Options{})(t.TempDir(), locator.New())

	_, err := src.DiagonalTemplate(context.Background())
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotFound))

	_, err = src.DiaWindows(context.Background())
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeNotFound))
}

func TestSource_CorruptStore(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "diasettings.diasqlite")
	require.NoError(t, os.WriteFile(path, []byte("not a database at all, just text"), 0o644))

	_, err := NewSource(root, locator.New(), Options{}).DiaWindows(context.Background())
	require.Error(t, err)
	assert.True(t, domainerrors.IsCode(err, domainerrors.CodeParsing))
}

func TestReadDiaWindows_SpecialCharactersInPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run?1#a%2b", "diaSettings.diasqlite")
	writeDB(t, path,
		diaSchema,
		`INSERT INTO DiaWindowsSpecification VALUES (1, 1, 1, 0.85, 1.0, 412.5, 25)`,
	)

	rows, err := ReadDiaWindows(context.Background(), path, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 412.5, rows[0].IsolationMz, 1e-9)

	_, err = os.Stat(filepath.Join(filepath.Dir(filepath.Dir(path)), "run"))
	assert.True(t, os.IsNotExist(err), "no truncated store may be created")
}

func TestFileURI(t *testing.T) {
	assert.Equal(t, "file:/data/run%3F1%23a%252b/x.diasqlite", fileURI("/data/run?1#a%2b/x.diasqlite"))
	assert.Equal(t, "file:rel/x.diasqlite", fileURI("rel/x.diasqlite"))
}
