package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	p := writeYAML(t, `
app:
  env: production
jwt:
  secret: s3cret
db:
  driver: postgres
  dsn: "host=db"
`)
	t.Setenv("APP_SEARCH_MAX_LIMIT", "80")

	c := Load(p)

	assert.True(t, c.App.IsProduction())
	assert.Equal(t, 8080, c.App.HTTP.Port)
	assert.Equal(t, "postgres", c.DB.Driver)
	assert.Equal(t, "session", c.Auth.CookieName)
	assert.Equal(t, "/auth/signin", c.Auth.SignInPath)
	assert.Equal(t, 20, c.Search.DefaultLimit)
	assert.Equal(t, 80, c.Search.MaxLimit)
	assert.Equal(t, 60, c.Auth.ResetTokenTTLMin)
}

func TestValidate(t *testing.T) {
	ok := Config{
		JWT:    JWT{Secret: "x"},
		DB:     DB{Driver: "sqlite"},
		Search: Search{DefaultLimit: 20, MaxLimit: 50},
	}
	assert.NoError(t, ok.Validate())

	noSecret := ok
	noSecret.JWT.Secret = "  "
	assert.Error(t, noSecret.Validate())

	badDriver := ok
	badDriver.DB.Driver = "oracle"
	assert.Error(t, badDriver.Validate())

	badLimits := ok
	badLimits.Search.MaxLimit = 5
	assert.Error(t, badLimits.Validate())
}
