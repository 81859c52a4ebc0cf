package envx

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypedLookups(t *testing.T) {
	t.Setenv("ENVX_S", "hello")
	t.Setenv("ENVX_D", "1m30s")
	t.Setenv("ENVX_B", "true")
	t.Setenv("ENVX_I", "7")
	t.Setenv("ENVX_U", "9")
	t.Setenv("ENVX_F", "42.5")

	var (
		s = "default"
		d time.Duration
		b bool
		i int
		u uint32
		f float64
	)
	String("ENVX_S", &s)
	Duration("ENVX_D", &d)
	Bool("ENVX_B", &b)
	Int("ENVX_I", &i)
	Uint32("ENVX_U", &u)
	Float("ENVX_F", &f)

	assert.Equal(t, "hello", s)
	assert.Equal(t, 90*time.Second, d)
	assert.True(t, b)
	assert.Equal(t, 7, i)
	assert.Equal(t, uint32(9), u)
	assert.Equal(t, 42.5, f)
}

func TestUnsetKeepsValue(t *testing.T) {
	s := "keep"
	String("ENVX_DEFINITELY_UNSET", &s)
	assert.Equal(t, "keep", s)
}

func TestInvalidValuesPanic(t *testing.T) {
	t.Setenv("ENVX_BAD", "nope")

	var (
		d time.Duration
		b bool
		i int
	)
	assert.Panics(t, func() { Duration("ENVX_BAD", &d) })
	assert.Panics(t, func() { Bool("ENVX_BAD", &b) })
	assert.Panics(t, func() { Int("ENVX_BAD", &i) })
}

func TestLoadDotenv_FromFlag(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("ENVX_FROM_FILE=loaded\n"), 0o600))
	t.Setenv("ENVX_FROM_FILE", "")
	require.NoError(t, os.Unsetenv("ENVX_FROM_FILE"))

	os.Args = []string{"testbin", "-env", path}
	LoadDotenv()
	t.Cleanup(func() { _ = os.Unsetenv("ENVX_FROM_FILE") })

	assert.Equal(t, "loaded", os.Getenv("ENVX_FROM_FILE"))
}

func TestLoadDotenv_MissingFlagFilePanics(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	os.Args = []string{"testbin", "-env", filepath.Join(t.TempDir(), "absent.env")}
	assert.Panics(t, LoadDotenv)
}
