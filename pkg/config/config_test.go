package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dynstr-go/pkg/alloc"
	"dynstr-go/pkg/appdir"
	"dynstr-go/pkg/transform"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, AllocHeap, cfg.Allocator)
	assert.Equal(t, transform.Zstd, cfg.Compression)
	assert.Equal(t, alloc.DefaultChunkSize, cfg.ArenaChunkSize)
	assert.Equal(t, 0, cfg.MemoryLimit)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dynstr.yaml")
	content := []byte("allocator: arena\narena_chunk_size: 4096\nmemory_limit: 1048576\ncompression: gzip\ndebug: true\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, AllocArena, cfg.Allocator)
	assert.Equal(t, 4096, cfg.ArenaChunkSize)
	assert.Equal(t, 1048576, cfg.MemoryLimit)
	assert.Equal(t, transform.Gzip, cfg.Compression)
	assert.True(t, cfg.Debug)
}

func TestLoadConfigEnv(t *testing.T) {
	t.Setenv("DYNSTR_ALLOCATOR", "pool")
	t.Setenv("DYNSTR_POOL_MAX_CLASS", "2048")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, AllocPool, cfg.Allocator)
	assert.Equal(t, 2048, cfg.PoolMaxClass)
}

func TestLoadConfigInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("allocator: slab\n"), 0644))

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, ErrUnknownAllocator)
}

func TestNewAllocator(t *testing.T) {
	for _, kind := range []string{AllocHeap, AllocPool, AllocArena} {
		cfg := DefaultConfig()
		cfg.Allocator = kind

		a, release, err := cfg.NewAllocator(nil)
		require.NoError(t, err, kind)
		buf, err := a.Alloc(10)
		require.NoError(t, err)
		assert.Len(t, buf, 10)
		a.Free(buf)
		release()
	}
}

func TestNewAllocatorWrappers(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MemoryLimit = 16

	reg := prometheus.NewRegistry()
	a, _, err := cfg.NewAllocator(reg)
	require.NoError(t, err)
	assert.IsType(t, &alloc.Instrumented{}, a)

	_, err = a.Alloc(17)
	assert.ErrorIs(t, err, alloc.ErrOutOfMemory)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNewPipeline(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Passphrase = "pw"
	p, err := cfg.NewPipeline()
	require.NoError(t, err)

	enc, err := p.Encode([]byte("data"))
	require.NoError(t, err)
	dec, err := p.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), dec)
}

func TestResolveStorePath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(appdir.EnvOverride, filepath.Join(dir, "home"))

	cfg := DefaultConfig()
	path, err := cfg.ResolveStorePath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "home", DefaultStoreName), path)
	assert.DirExists(t, filepath.Join(dir, "home"))

	cfg.StorePath = "explicit.db"
	path, err = cfg.ResolveStorePath()
	require.NoError(t, err)
	assert.Equal(t, "explicit.db", path)
}

func TestCompressionLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dynstr.yaml")
	require.NoError(t, os.WriteFile(path, []byte("compression: gzip\ncompression_level: 9\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.CompressLevel)

	p, err := cfg.NewPipeline()
	require.NoError(t, err)
	enc, err := p.Encode([]byte("level nine level nine level nine"))
	require.NoError(t, err)
	dec, err := p.Decode(enc)
	require.NoError(t, err)
	assert.Equal(t, "level nine level nine level nine", string(dec))

	cfg.CompressLevel = 42
	assert.Error(t, cfg.Validate())
}
