package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "agendo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("JWT_SECRET", "s3cret")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", c.Port)
	assert.Equal(t, "50051", c.GRPCPort)
	assert.Equal(t, 15*time.Minute, c.BookingMargin)
	assert.Equal(t, 10, c.PlatformFeePercent)
	assert.Equal(t, "America/Sao_Paulo", c.Location().String())
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWTSecret")
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := writeFile(t, `
jwt_secret: from-file
port: "9000"
booking_margin: 30m
platform_fee_percent: 12
cors_origins: ["https://agendo.app"]
log:
  level: debug
`)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PORT", "9100")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "from-file", c.JWTSecret)
	assert.Equal(t, "9100", c.Port, "env wins over file")
	assert.Equal(t, 30*time.Minute, c.BookingMargin)
	assert.Equal(t, 12, c.PlatformFeePercent)
	assert.Equal(t, []string{"https://agendo.app"}, c.CORSOrigins)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, path, c.Path)
}

func TestLoadEnvParsing(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("JWT_SECRET", "x")
	t.Setenv("BOOKING_MARGIN", "5m")
	t.Setenv("CORS_ORIGINS", " https://a.com , ,https://b.com")
	t.Setenv("MIN_WITHDRAWAL_CENTS", "2500")

	c, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, c.BookingMargin)
	assert.Equal(t, []string{"https://a.com", "https://b.com"}, c.CORSOrigins)
	assert.Equal(t, int64(2500), c.MinWithdrawalCents)

	t.Setenv("BOOKING_MARGIN", "soon")
	_, err = Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"fee above 100", func(c *Config) { c.PlatformFeePercent = 101 }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"bad timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }},
		{"port not numeric", func(c *Config) { c.Port = "http" }},
		{"stripe key without webhook secret", func(c *Config) { c.Stripe.SecretKey = "sk_test" }},
		{"whatsapp token without phone id", func(c *Config) { c.WhatsApp.Token = "tok" }},
		{"no workers", func(c *Config) { c.NotifyWorkers = 0 }},
		{"no cors origins", func(c *Config) { c.CORSOrigins = []string{} }},
		{"blank cors origin", func(c *Config) { c.CORSOrigins = []string{""} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := defaults()
			c.JWTSecret = "x"
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

func TestLoadRejectsEmptyCORSList(t *testing.T) {
	path := writeFile(t, `
jwt_secret: from-file
cors_origins: []
`)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("CORS_ORIGINS", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CORSOrigins")
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
