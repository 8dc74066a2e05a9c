package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/errors"
	"github.com/input-output-hk/catalyst-forge-libs/aws/s3publish/s3types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	return p
}

func validConfig() *Config {
	cfg := &Config{
		Bucket:  "docs",
		Region:  "us-east-1",
		Files:   []string{"dist/**"},
		Backend: "aws",
	}
	cfg.Log.Format = "text"
	return cfg
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(LoadOptions{SearchDir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, ".", cfg.WorkDir)
	assert.Equal(t, "aws", cfg.Backend)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.False(t, cfg.Sync)
	assert.Empty(t, cfg.Files)
}

func TestLoad_FileEnvAndOverrides(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".s3publish.yaml", `
bucket: from-file
region: eu-central-1
files:
  - dist/**
sync: true
params_ext: .s3params
timeout: 30s
log:
  level: debug
`)
	t.Setenv("S3PUBLISH_REGION", "ap-south-1")
	t.Setenv("S3PUBLISH_LOG_FORMAT", "json")

	cfg, err := Load(LoadOptions{
		SearchDir: dir,
		Overrides: map[string]any{"bucket": "from-flag"},
	})
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.Bucket)
	assert.Equal(t, "ap-south-1", cfg.Region)
	assert.Equal(t, []string{"dist/**"}, cfg.Files)
	assert.True(t, cfg.Sync)
	assert.Equal(t, ".s3params", cfg.ParamsExt)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvList(t *testing.T) {
	t.Setenv("S3PUBLISH_FILES", "dist/**,docs/*.html")

	cfg, err := Load(LoadOptions{SearchDir: t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, []string{"dist/**", "docs/*.html"}, cfg.Files)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "S3PUBLISH_BUCKET=from-dotenv\n")
	t.Setenv("S3PUBLISH_BUCKET", "")
	require.NoError(t, os.Unsetenv("S3PUBLISH_BUCKET"))

	cfg, err := Load(LoadOptions{SearchDir: dir, DotEnv: envFile})
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Bucket)

	_, err = Load(LoadOptions{SearchDir: dir, DotEnv: filepath.Join(dir, "missing.env")})
	assert.NoError(t, err)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	_, err := Load(LoadOptions{File: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "no bucket", mutate: func(c *Config) { c.Bucket = " " }, wantErr: true},
		{name: "no files", mutate: func(c *Config) { c.Files = nil }, wantErr: true},
		{name: "bad params ext", mutate: func(c *Config) { c.ParamsExt = "meta" }, wantErr: true},
		{name: "minio without endpoint", mutate: func(c *Config) { c.Backend = "minio" }, wantErr: true},
		{name: "minio with endpoint", mutate: func(c *Config) {
			c.Backend = "minio"
			c.Endpoint = "localhost:9000"
		}},
		{name: "unknown backend", mutate: func(c *Config) { c.Backend = "gcs" }, wantErr: true},
		{name: "bad proxy", mutate: func(c *Config) { c.Proxy = "not a url" }, wantErr: true},
		{name: "good proxy", mutate: func(c *Config) { c.Proxy = "http://proxy.internal:3128" }},
		{name: "negative timeout", mutate: func(c *Config) { c.Timeout = -time.Second }, wantErr: true},
		{name: "negative retries", mutate: func(c *Config) { c.MaxRetries = -1 }, wantErr: true},
		{name: "half key pair", mutate: func(c *Config) { c.AccessKeyID = "AKIA" }, wantErr: true},
		{name: "secret and keys", mutate: func(c *Config) {
			c.AccessKeyID = "AKIA"
			c.SecretAccessKey = "s"
			c.CredentialsSecret = "publish/creds"
		}, wantErr: true},
		{name: "bad log format", mutate: func(c *Config) { c.Log.Format = "xml" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsInvalidInput(err))
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestTranslator(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "dist/a.html", cfg.Translator()("dist/a.html"))

	cfg.StripPrefix = "dist/"
	cfg.Prefix = "v2/"
	assert.Equal(t, "v2/a.html", cfg.Translator()("dist/a.html"))
	assert.Equal(t, "v2/other/b.css", cfg.Translator()("other/b.css"))
}

func TestPublishConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Sync = true
	cfg.Index = "dist/index.html"
	cfg.StripPrefix = "dist/"

	pc := cfg.PublishConfig("abc123")

	assert.Equal(t, "docs", pc.Bucket)
	assert.Equal(t, "abc123", pc.Revision)
	assert.True(t, pc.Sync)
	assert.Equal(t, "dist/index.html", pc.PathToIndex)
	assert.Equal(t, "index.html", pc.Translate(pc.PathToIndex))
	assert.IsType(t, s3types.PathTranslator(nil), pc.PathTranslation)
}
