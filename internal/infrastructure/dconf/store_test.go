package dconf

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dconfsync.dev/cli/internal/core/manifest"
	"dconfsync.dev/cli/internal/core/store"
)

type fakeRunner struct {
	calls     [][]string
	output    []byte
	outputErr error
	runErr    error
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) error {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.runErr
}

func (f *fakeRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.output, f.outputErr
}

func TestNormalizeRoot(t *testing.T) {
	tests := []struct {
		name    string
		root    string
		want    string
		wantErr bool
	}{
		{name: "bare root", root: "/", want: "/"},
		{name: "plain", root: "/org/gnome", want: "/org/gnome"},
		{name: "trailing slash dropped", root: "/org/gnome/", want: "/org/gnome"},
		{name: "duplicate slashes collapsed", root: "/org//gnome", want: "/org/gnome"},
		{name: "relative rejected", root: "org/gnome", wantErr: true},
		{name: "empty rejected", root: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeRoot(tt.root)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadAllParsesDump(t *testing.T) {
	runner := &fakeRunner{output: []byte("[/]\ntop=1\n\n[a/b]\nk='v'\n")}
	st, err := New("/the/root", "", runner)
	require.NoError(t, err)

	snap, err := st.ReadAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, store.Snapshot{"top": "1", "a/b/k": "'v'"}, snap)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"dconf", "dump", "/the/root/"}, runner.calls[0])
}

func TestReadAllAtBareRoot(t *testing.T) {
	runner := &fakeRunner{output: []byte("")}
	st, err := New("/", "", runner)
	require.NoError(t, err)

	snap, err := st.ReadAll(context.Background())
	require.NoError(t, err)

	assert.Empty(t, snap)
	assert.Equal(t, []string{"dconf", "dump", "/"}, runner.calls[0])
}

func TestReadAllWrapsRunnerFailure(t *testing.T) {
	cause := errors.New("no session bus")
	runner := &fakeRunner{outputErr: cause}
	st, err := New("/the/root", "", runner)
	require.NoError(t, err)

	_, err = st.ReadAll(context.Background())

	var readErr *store.ReadError
	require.True(t, errors.As(err, &readErr))
	assert.ErrorIs(t, err, cause)
}

func TestReadAllWrapsMalformedDump(t *testing.T) {
	runner := &fakeRunner{output: []byte("not a keyfile\n")}
	st, err := New("/the/root", "", runner)
	require.NoError(t, err)

	_, err = st.ReadAll(context.Background())

	var readErr *store.ReadError
	require.True(t, errors.As(err, &readErr))
	var parseErr *manifest.ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestWriteJoinsRootAndWrapsFailure(t *testing.T) {
	runner := &fakeRunner{}
	st, err := New("/the/root", "", runner)
	require.NoError(t, err)

	require.NoError(t, st.Write(context.Background(), "a/b/key", "uint32 4"))
	assert.Equal(t, []string{"dconf", "write", "/the/root/a/b/key", "uint32 4"}, runner.calls[0])

	runner.runErr = errors.New("read-only database")
	err = st.Write(context.Background(), "a/b/key", "1")

	var writeErr *store.WriteError
	require.True(t, errors.As(err, &writeErr))
	assert.Equal(t, "a/b/key", writeErr.Path)
	assert.Equal(t, store.Value("1"), writeErr.Value)
}

func TestWriteAtBareRoot(t *testing.T) {
	runner := &fakeRunner{}
	st, err := New("/", "", runner)
	require.NoError(t, err)

	require.NoError(t, st.Write(context.Background(), "key", "1"))
	assert.Equal(t, []string{"dconf", "write", "/key", "1"}, runner.calls[0])
}

func TestDeleteResetsAndWrapsFailure(t *testing.T) {
	runner := &fakeRunner{}
	st, err := New("/the/root", "", runner)
	require.NoError(t, err)

	require.NoError(t, st.Delete(context.Background(), "a/gone"))
	assert.Equal(t, []string{"dconf", "reset", "/the/root/a/gone"}, runner.calls[0])

	runner.runErr = errors.New("read-only database")
	err = st.Delete(context.Background(), "a/gone")

	var deleteErr *store.DeleteError
	require.True(t, errors.As(err, &deleteErr))
	assert.Equal(t, "a/gone", deleteErr.Path)
}

func TestCustomBinary(t *testing.T) {
	runner := &fakeRunner{output: []byte("")}
	st, err := New("/r", "/opt/dconf/bin/dconf", runner)
	require.NoError(t, err)

	_, err = st.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/opt/dconf/bin/dconf", runner.calls[0][0])
}
