package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/demoapp/config"
)

var dbVars = []string{"DB_HOST", "DB_NAME", "DB_CHARSET", "DB_USER", "DB_PASSWORD"}

// clearDBEnv blanks every DB_* variable; an empty value counts as unset.
func clearDBEnv(t *testing.T) {
	t.Helper()
	for _, key := range dbVars {
		t.Setenv(key, "")
	}
	t.Setenv("APP_ROOT", "")
}

func load(t *testing.T) config.Params {
	t.Helper()
	dir := t.TempDir()
	p, err := config.Load(config.Options{EnvFile: filepath.Join(dir, "missing.env"), Root: dir})
	require.NoError(t, err)
	return p
}

func TestLoad_Defaults(t *testing.T) {
	clearDBEnv(t)

	p := load(t)

	assert.Equal(t, "mysql:host=localhost;dbname=yii3_demo;charset=utf8mb4", p.DB.DSN)
	assert.Equal(t, "root", p.DB.Username)
	assert.Equal(t, "", p.DB.Password)
}

func TestLoad_PartialOverride(t *testing.T) {
	clearDBEnv(t)
	t.Setenv("DB_HOST", "db")
	t.Setenv("DB_NAME", "app_test")

	p := load(t)

	assert.Equal(t, "mysql:host=db;dbname=app_test;charset=utf8mb4", p.DB.DSN)
	assert.Equal(t, "root", p.DB.Username)
}

func TestLoad_EveryCombination(t *testing.T) {
	type field struct {
		key, value, fallback string
	}
	fields := []field{
		{"DB_HOST", "h.example", "localhost"},
		{"DB_NAME", "shop", "yii3_demo"},
		{"DB_CHARSET", "latin1", "utf8mb4"},
	}

	for mask := 0; mask < 1<<len(fields); mask++ {
		clearDBEnv(t)
		want := make([]string, len(fields))
		for i, f := range fields {
			want[i] = f.fallback
			if mask&(1<<i) != 0 {
				t.Setenv(f.key, f.value)
				want[i] = f.value
			}
		}

		p := load(t)
		assert.Equal(t, config.DSN(want[0], want[1], want[2]), p.DB.DSN, "mask %03b", mask)
	}
}

func TestLoad_CredentialsFromEnv(t *testing.T) {
	clearDBEnv(t)
	t.Setenv("DB_USER", "app")
	t.Setenv("DB_PASSWORD", "s3cret")

	p := load(t)

	assert.Equal(t, "app", p.DB.Username)
	assert.Equal(t, "s3cret", p.DB.Password)
	assert.Equal(t, "******", p.Redacted().DB.Password)
	assert.Equal(t, "s3cret", p.DB.Password, "Redacted must not touch the original")
}

func TestLoad_NoEscaping(t *testing.T) {
	clearDBEnv(t)
	t.Setenv("DB_HOST", "evil;dbname=other")

	p := load(t)

	assert.Equal(t, "mysql:host=evil;dbname=other;dbname=yii3_demo;charset=utf8mb4", p.DB.DSN)
}

func TestLoad_EnvFile(t *testing.T) {
	clearDBEnv(t)
	t.Setenv("DB_NAME", "from_env")

	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("DB_HOST=filehost\nDB_NAME=from_file\n"), 0o644))

	p, err := config.Load(config.Options{EnvFile: envFile, Root: dir})
	require.NoError(t, err)

	assert.Equal(t, "mysql:host=filehost;dbname=from_env;charset=utf8mb4", p.DB.DSN)
}

func TestLoad_RootFromEnv(t *testing.T) {
	clearDBEnv(t)
	root := t.TempDir()
	t.Setenv("APP_ROOT", root)

	p, err := config.Load(config.Options{EnvFile: filepath.Join(root, "none.env")})
	require.NoError(t, err)

	assert.Equal(t, root, p.Root())
	assert.Equal(t, filepath.Join(root, "vendor"), p.Aliases[config.AliasVendor])
}

func TestParams_Alias(t *testing.T) {
	clearDBEnv(t)
	p := load(t)

	got, err := p.Alias("@vendor/yiisoft/rbac-db")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(p.Root(), "vendor", "yiisoft", "rbac-db"), got)

	got, err = p.Alias("@root")
	require.NoError(t, err)
	assert.Equal(t, p.Root(), got)

	got, err = p.Alias("relative/path")
	require.NoError(t, err)
	assert.Equal(t, "relative/path", got)

	_, err = p.Alias("@nope/x")
	assert.Error(t, err)
}
