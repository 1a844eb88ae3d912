package openapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSource(t *testing.T) {
	src, err := ParseSource("https://example.com/openapi.yaml")
	require.NoError(t, err)
	assert.Equal(t, SourceKindURL, src.Kind())

	src, err = ParseSource("specs/../openapi.yaml")
	require.NoError(t, err)
	assert.Equal(t, SourceKindFile, src.Kind())
	assert.Equal(t, "openapi.yaml", src.Location())

	_, err = ParseSource("  ")
	assert.Error(t, err)

	_, err = SourceFromURL("ftp://example.com/x")
	assert.Error(t, err)
}

func TestLoadSource_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openapi.yaml")
	require.NoError(t, os.WriteFile(path, []byte(loginDocument), 0o600))

	doc, err := LoadSource(context.Background(), SourceFromFile(path))
	require.NoError(t, err)

	_, err = RuleSetFromOperation(doc, "signIn")
	assert.NoError(t, err)
}

func TestLoadSource_FS(t *testing.T) {
	files := fstest.MapFS{"specs/openapi.yaml": &fstest.MapFile{Data: []byte(loginDocument)}}

	_, err := LoadSource(context.Background(), SourceFromFS("specs/openapi.yaml"))
	assert.Error(t, err)

	doc, err := LoadSource(context.Background(), SourceFromFS("specs/openapi.yaml"), WithFileSystem(files))
	require.NoError(t, err)
	_, err = RuleSetFromOperation(doc, "signIn")
	assert.NoError(t, err)
}

func TestLoadSource_URL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(loginDocument))
	}))
	t.Cleanup(server.Close)

	src, err := SourceFromURL(server.URL + "/openapi.yaml")
	require.NoError(t, err)

	_, err = LoadSource(context.Background(), src)
	assert.ErrorIs(t, err, ErrHTTPDisabled)

	doc, err := LoadSource(context.Background(), src, WithHTTPClient(server.Client()))
	require.NoError(t, err)
	_, err = RuleSetFromOperation(doc, "signIn")
	assert.NoError(t, err)
}

func TestFetch_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	src, err := SourceFromURL(server.URL)
	require.NoError(t, err)
	_, err = Fetch(context.Background(), src, WithHTTPFallback(0))
	assert.Error(t, err)
}
