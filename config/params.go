// Package config resolves the application parameters from the process
// environment (and an optional .env file) into an immutable Params value.
//
// Params is built once at startup and passed explicitly to whatever needs
// it; nothing in this package keeps mutable global state.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	defaultDBHost     = "localhost"
	defaultDBName     = "yii3_demo"
	defaultDBCharset  = "utf8mb4"
	defaultDBUser     = "root"
	defaultDBPassword = ""

	// dsnTemplate is filled verbatim: host, dbname and charset are not
	// escaped, so a value containing ';' or '=' ends up in the DSN as is.
	dsnTemplate = "mysql:host=%s;dbname=%s;charset=%s"
)

// Alias names available in Params.Aliases.
const (
	AliasRoot    = "@root"
	AliasVendor  = "@vendor"
	AliasRuntime = "@runtime"
)

// DBParams holds the settings for the database driver.
type DBParams struct {
	DSN      string
	Username string
	Password string
}

// Params is the resolved parameter table.
type Params struct {
	Aliases map[string]string
	DB      DBParams
}

// Options controls where Load looks for its inputs.
type Options struct {
	// EnvFile is merged below the process environment. A missing file is
	// not an error. Empty means ".env".
	EnvFile string
	// Root overrides the application root. Empty means APP_ROOT, then the
	// working directory.
	Root string
}

// Load resolves Params from the process environment and the optional
// .env file.
func Load(opts Options) (Params, error) {
	v := viper.New()
	// Process environment wins over the file; empty variables count as unset.
	v.AutomaticEnv()

	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := mergeEnvFile(v, envFile); err != nil {
		return Params{}, err
	}

	root := opts.Root
	if root == "" {
		root = v.GetString("app_root")
	}
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Params{}, fmt.Errorf("config: working directory: %w", err)
		}
		root = wd
	}

	return Params{
		Aliases: aliases(root),
		DB: DBParams{
			DSN: DSN(
				get(v, "db_host", defaultDBHost),
				get(v, "db_name", defaultDBName),
				get(v, "db_charset", defaultDBCharset),
			),
			Username: get(v, "db_user", defaultDBUser),
			Password: get(v, "db_password", defaultDBPassword),
		},
	}, nil
}

// DSN fills the mysql DSN template.
func DSN(host, dbname, charset string) string {
	return fmt.Sprintf(dsnTemplate, host, dbname, charset)
}

// Alias expands a path that starts with a known alias, e.g.
// "@vendor/yiisoft/rbac-db". Paths without a leading alias are returned
// unchanged; an unknown alias is an error.
func (p Params) Alias(path string) (string, error) {
	if !strings.HasPrefix(path, "@") {
		return path, nil
	}

	name, rest, _ := strings.Cut(path, "/")
	base, ok := p.Aliases[name]
	if !ok {
		return "", fmt.Errorf("config: unknown alias %q", name)
	}
	if rest == "" {
		return base, nil
	}
	return filepath.Join(base, filepath.FromSlash(rest)), nil
}

// Root returns the application root.
func (p Params) Root() string { return p.Aliases[AliasRoot] }

// Redacted returns a copy safe to log.
func (p Params) Redacted() Params {
	out := p
	out.Aliases = make(map[string]string, len(p.Aliases))
	for k, v := range p.Aliases {
		out.Aliases[k] = v
	}
	if out.DB.Password != "" {
		out.DB.Password = "******"
	}
	return out
}

func aliases(root string) map[string]string {
	return map[string]string{
		AliasRoot:    root,
		AliasVendor:  filepath.Join(root, "vendor"),
		AliasRuntime: filepath.Join(root, "runtime"),
	}
}

func mergeEnvFile(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("config: stat %s: %w", path, err)
	}

	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	return nil
}

// get treats an empty value the same as an unset one.
func get(v *viper.Viper, key, fallback string) string {
	if value := v.GetString(key); value != "" {
		return value
	}
	return fallback
}
