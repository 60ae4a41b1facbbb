package main

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// run executes the CLI in-process and returns stdout. Exit errors are
// returned instead of terminating the test binary.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &errOut
	app.ExitErrHandler = func(*cli.Context, error) {}

	dir := t.TempDir()
	base := []string{"dynstr",
		"--config", filepath.Join(dir, "none.yaml"),
		"--store", filepath.Join(dir, "strings.db"),
	}
	err := app.Run(append(base, args...))
	return out.String(), err
}

func TestConcat(t *testing.T) {
	out, err := run(t, "concat", "hello", " a longer string")
	require.NoError(t, err)
	assert.Equal(t, "hello a longer string\n", out)
}

func TestConcatWithEveryAllocator(t *testing.T) {
	for _, kind := range []string{"heap", "pool", "arena"} {
		out, err := run(t, "--allocator", kind, "concat", "a", "b", "c")
		require.NoError(t, err, kind)
		assert.Equal(t, "abc\n", out)
	}
}

func TestAt(t *testing.T) {
	out, err := run(t, "at", "henloooo", "0")
	require.NoError(t, err)
	assert.Equal(t, "'h' (0x68)\n", out)

	_, err = run(t, "at", "henloooo", "10000")
	var exit cli.ExitCoder
	require.ErrorAs(t, err, &exit)
	assert.Equal(t, 2, exit.ExitCode())
}

func TestSubstr(t *testing.T) {
	out, err := run(t, "substr", "henloooo", "1", "3")
	require.NoError(t, err)
	assert.Equal(t, "en\n", out)

	out, err = run(t, "substr", "henloooo", "5")
	require.NoError(t, err)
	assert.Equal(t, "ooo\n", out)

	_, err = run(t, "substr", "henloooo", "3", "1")
	assert.Error(t, err)
}

func TestEq(t *testing.T) {
	out, err := run(t, "eq", "same", "same")
	require.NoError(t, err)
	assert.Equal(t, "equal\n", out)

	out, err = run(t, "eq", "same", "other")
	assert.Error(t, err)
	assert.Equal(t, "different\n", out)
}

func TestMemoryLimit(t *testing.T) {
	assert.Panics(t, func() {
		run(t, "--memory-limit", "8", "concat", "this does not fit")
	})
}

func TestSaveLoad(t *testing.T) {
	dir := t.TempDir()
	store := filepath.Join(dir, "s.db")
	cfg := filepath.Join(dir, "none.yaml")

	runIn := func(args ...string) (string, error) {
		var out bytes.Buffer
		app := newApp()
		app.Writer = &out
		app.ErrWriter = &bytes.Buffer{}
		app.ExitErrHandler = func(*cli.Context, error) {}
		err := app.Run(append([]string{"dynstr", "--config", cfg, "--store", store}, args...))
		return out.String(), err
	}

	_, err := runIn("save", "greeting", "hello")
	require.NoError(t, err)

	out, err := runIn("load", "--append", " world", "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", out)

	out, err = runIn("load", "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello world\n", out)

	_, err = runIn("concat", "--save", "joined", "x", "y")
	require.NoError(t, err)

	out, err = runIn("list")
	require.NoError(t, err)
	assert.Equal(t, "greeting\njoined\n", out)

	_, err = runIn("rm", "greeting")
	require.NoError(t, err)
	_, err = runIn("load", "greeting")
	assert.Error(t, err)
}

func TestStoreEventsReachLogDB(t *testing.T) {
	dir := t.TempDir()
	base := []string{"dynstr",
		"--config", filepath.Join(dir, "none.yaml"),
		"--store", filepath.Join(dir, "s.db"),
		"--log-db", filepath.Join(dir, "logs.db"),
	}
	runWith := func(args ...string) string {
		var out bytes.Buffer
		app := newApp()
		app.Writer = &out
		app.ErrWriter = &bytes.Buffer{}
		app.ExitErrHandler = func(*cli.Context, error) {}
		require.NoError(t, app.Run(append(append([]string{}, base...), args...)))
		return out.String()
	}

	runWith("save", "greeting", "hello")
	runWith("rm", "greeting")

	out := runWith("logs", "-n", "10")
	assert.Contains(t, out, `"message":"dynstr: saved"`)
	assert.Contains(t, out, `"name":"greeting"`)
	assert.Contains(t, out, `"message":"dynstr: removed"`)
}

func TestParseTimeSpec(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	ts, err := parseTimeSpec("90m", now)
	require.NoError(t, err)
	assert.Equal(t, now.Add(-90*time.Minute), ts)

	ts, err = parseTimeSpec("2024-04-30", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC), ts)

	zone := time.FixedZone("UTC+2", 2*60*60)
	ts, err = parseTimeSpec("2024-04-30 08:00:00", now.In(zone))
	require.NoError(t, err)
	assert.True(t, ts.Equal(time.Date(2024, 4, 30, 6, 0, 0, 0, time.UTC)))

	ts, err = parseTimeSpec("2024-04-30T08:00:00Z", now.In(zone))
	require.NoError(t, err)
	assert.True(t, ts.Equal(time.Date(2024, 4, 30, 8, 0, 0, 0, time.UTC)))

	_, err = parseTimeSpec("yesterday", now)
	assert.Error(t, err)
}
