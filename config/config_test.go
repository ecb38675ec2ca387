package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadDefaults 测试默认配置
func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 5002, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:5002", cfg.Server.Addr())
	assert.Equal(t, "tha+eng", cfg.OCR.Languages)
	assert.Equal(t, 300, cfg.OCR.DPI)
	assert.Equal(t, 20*time.Second, cfg.Web.NavigationTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Web.ScrollInterval)
	assert.Equal(t, 1200*time.Millisecond, cfg.Web.ScrollSettle)
	assert.Equal(t, 500, cfg.Web.FallbackThreshold)
	assert.Equal(t, 1, cfg.Web.URLConcurrency)
	assert.Equal(t, 10, cfg.Web.MaxBodyMB)
	assert.Equal(t, 1200, cfg.Chunk.Size)
	assert.Equal(t, 200, cfg.Chunk.Overlap)
	assert.Equal(t, []string{"\n\n", "\n", " ", ""}, cfg.Chunk.Separators)
}

// TestLoadEnvOverride 测试环境变量覆盖
func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TESS_LANGS", "eng")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("WEB_FALLBACK_THRESHOLD", "0")
	t.Setenv("WEB_NAVIGATION_TIMEOUT", "5s")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "eng", cfg.OCR.Languages)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 0, cfg.Web.FallbackThreshold)
	assert.Equal(t, 5*time.Second, cfg.Web.NavigationTimeout)
}

// TestLoadFile 测试从YAML文件加载
func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 7000
ocr:
  dpi: 200
chunk:
  size: 800
  overlap: 100
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, 200, cfg.OCR.DPI)
	assert.Equal(t, 800, cfg.Chunk.Size)
	assert.Equal(t, 100, cfg.Chunk.Overlap)
	// 未指定的字段使用默认值
	assert.Equal(t, "tha+eng", cfg.OCR.Languages)
}

// TestLoadMissingFile 测试配置文件不存在时报错且不创建文件
func TestLoadMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	_, err := Load(path)
	require.Error(t, err)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "不应写入默认配置文件")
}

// TestValidate 测试配置校验
func TestValidate(t *testing.T) {
	base, err := Load("")
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"overlap not smaller than size", func(c *Config) { c.Chunk.Overlap = c.Chunk.Size }},
		{"zero dpi", func(c *Config) { c.OCR.DPI = 0 }},
		{"zero concurrency", func(c *Config) { c.Web.URLConcurrency = 0 }},
		{"zero navigation timeout", func(c *Config) { c.Web.NavigationTimeout = 0 }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"empty languages", func(c *Config) { c.OCR.Languages = "" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *base
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	t.Run("invalid env aborts load", func(t *testing.T) {
		t.Setenv("CHUNK_OVERLAP", "5000")
		_, err := Load("")
		assert.Error(t, err)
	})
}
