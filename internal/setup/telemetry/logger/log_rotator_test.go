package logger_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/openkeyhub/governance/internal/setup/telemetry/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n")
}

func TestLogRotator(t *testing.T) {
	t.Parallel()

	t.Run("keeps the latest lines after rotating", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "main.log")
		w, err := logger.NewLogRotator(path, 3)
		require.NoError(t, err)
		t.Cleanup(func() { _ = w.Close() })

		for i := range 6 {
			_, err := fmt.Fprintf(w, "line %d\n", i)
			require.NoError(t, err)
		}

		assert.Equal(t, []string{"line 3", "line 4", "line 5"}, readLines(t, path))

		_, err = fmt.Fprintln(w, "line 6")
		require.NoError(t, err)
		assert.Equal(t, []string{"line 3", "line 4", "line 5", "line 6"}, readLines(t, path))
	})

	t.Run("multi-line writes", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "main.log")
		w, err := logger.NewLogRotator(path, 2)
		require.NoError(t, err)
		t.Cleanup(func() { _ = w.Close() })

		_, err = w.Write([]byte("a\nb\nc\nd\n"))
		require.NoError(t, err)
		assert.Equal(t, []string{"c", "d"}, readLines(t, path))
	})

	t.Run("rotation disabled", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "main.log")
		w, err := logger.NewLogRotator(path, 0)
		require.NoError(t, err)
		t.Cleanup(func() { _ = w.Close() })

		for i := range 10 {
			_, err := fmt.Fprintf(w, "line %d\n", i)
			require.NoError(t, err)
		}
		require.NoError(t, w.Sync())
		assert.Len(t, readLines(t, path), 10)
	})
}
