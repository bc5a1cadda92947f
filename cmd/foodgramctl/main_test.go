package main

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func testEnv(t *testing.T) (*env, *gorm.DB) {
	t.Helper()
	db := testhelpers.SetupTestDB(t)
	return &env{
		loadConfig: func() (*config.Config, error) { return config.Default(), nil },
		openDB:     func(*config.Config) (*gorm.DB, error) { return db, nil },
		openSQL: func(*config.Config) (*sql.DB, error) {
			t.Fatal("unexpected sql connection")
			return nil, nil
		},
	}, db
}

func execute(t *testing.T, e *env, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand(e)
	out := new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeJSON(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadIngredients(t *testing.T) {
	e, db := testEnv(t)
	path := writeJSON(t, `[
		{"name": "flour", "measurement_unit": "g"},
		{"name": "milk", "measurement_unit": "ml"}
	]`)

	out, err := execute(t, e, "load-ingredients", path)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 of 2 ingredients")

	// Re-running skips names already present.
	out, err = execute(t, e, "load-ingredients", path)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 0 of 2 ingredients")

	var count int64
	require.NoError(t, db.Model(&models.Ingredient{}).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

func TestLoadIngredientsRejectsInvalidRecords(t *testing.T) {
	e, _ := testEnv(t)

	_, err := execute(t, e, "load-ingredients", writeJSON(t, `[{"name": "salt"}]`))
	assert.ErrorContains(t, err, "record 0")

	_, err = execute(t, e, "load-ingredients", writeJSON(t, `{"name": "salt"}`))
	assert.Error(t, err)

	_, err = execute(t, e, "load-ingredients", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestLoadTags(t *testing.T) {
	e, db := testEnv(t)

	out, err := execute(t, e, "load-tags", writeJSON(t, `[
		{"name": "Breakfast", "color": "#E26C2D", "slug": "breakfast"},
		{"name": "Dinner", "color": "#49B64E", "slug": "dinner"}
	]`))
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 of 2 tags")

	var tag models.Tag
	require.NoError(t, db.Where("slug = ?", "dinner").First(&tag).Error)
	assert.Equal(t, "#49B64E", tag.Color)
}

func TestLoadTagsValidation(t *testing.T) {
	e, _ := testEnv(t)

	for name, payload := range map[string]string{
		"bad color": `[{"name": "Lunch", "color": "orange", "slug": "lunch"}]`,
		"bad slug":  `[{"name": "Lunch", "color": "#FFFFFF", "slug": "lunch time"}]`,
		"no name":   `[{"color": "#FFFFFF", "slug": "lunch"}]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := execute(t, e, "load-tags", writeJSON(t, payload))
			assert.Error(t, err)
		})
	}
}

func TestCreateSuperuser(t *testing.T) {
	e, db := testEnv(t)

	out, err := execute(t, e, "create-superuser",
		"--email", "root@example.com", "--username", "root", "--password", "long-enough-pass", "--recipes-admin")
	require.NoError(t, err)
	assert.Contains(t, out, "created superuser root")

	var user models.User
	require.NoError(t, db.Preload("Groups").Where("email = ?", "root@example.com").First(&user).Error)
	assert.True(t, user.IsSuperuser)
	assert.True(t, user.IsRecipeAdmin())
	assert.Equal(t, "root", user.FirstName)

	_, err = execute(t, e, "create-superuser",
		"--email", "root@example.com", "--username", "root2", "--password", "long-enough-pass")
	assert.Error(t, err)
}

func TestCreateSuperuserValidation(t *testing.T) {
	e, _ := testEnv(t)

	_, err := execute(t, e, "create-superuser", "--email", "root@example.com", "--username", "root")
	assert.ErrorContains(t, err, "password")

	_, err = execute(t, e, "create-superuser",
		"--email", "not-an-email", "--username", "root", "--password", "long-enough-pass")
	assert.Error(t, err)

	_, err = execute(t, e, "create-superuser",
		"--email", "root@example.com", "--username", "bad name", "--password", "long-enough-pass")
	assert.Error(t, err)
}

func TestMigrateDown(t *testing.T) {
	e, _ := testEnv(t)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	e.openSQL = func(*config.Config) (*sql.DB, error) { return db, nil }

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT name FROM schema_migrations").WillReturnRows(sqlmock.NewRows([]string{"name"}))

	out, err := execute(t, e, "migrate", "down", "--dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "nothing to roll back")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrateUpNoFiles(t *testing.T) {
	e, _ := testEnv(t)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	e.openSQL = func(*config.Config) (*sql.DB, error) { return db, nil }

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS schema_migrations").WillReturnResult(sqlmock.NewResult(0, 0))

	out, err := execute(t, e, "migrate", "up", "--dir", t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, out, "schema is up to date")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRootCommandLayout(t *testing.T) {
	root := newRootCommand(defaultEnv())
	for _, path := range [][]string{
		{"migrate", "up"}, {"migrate", "down"}, {"load-ingredients"}, {"load-tags"}, {"create-superuser"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
