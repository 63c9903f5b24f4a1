package docfile_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/communitykit/smartqa/docfile"
)

func newTestFetcher(t *testing.T) (*docfile.Fetcher, string) {
	t.Helper()
	dir := t.TempDir()
	return docfile.NewFetcher(dir, docfile.NewRegistry(), zap.NewNop()), dir
}

func requireEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries, "transient files must not outlive the fetch")
}

func TestFetchDecodesAndRemovesTransientFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Mozilla/5.0", r.Header.Get("User-Agent"))
		fmt.Fprint(w, "第一行\n第二行\n")
	}))
	defer srv.Close()

	fetcher, dir := newTestFetcher(t)
	content, err := fetcher.Fetch(context.Background(), 7, srv.URL+"/guide.txt", "")

	require.NoError(t, err)
	require.Contains(t, content, "第一行")
	require.Contains(t, content, "第二行")
	requireEmptyDir(t, dir)
}

func TestFetchBlankURL(t *testing.T) {
	fetcher, dir := newTestFetcher(t)

	content, err := fetcher.Fetch(context.Background(), 1, "   ", "")

	require.NoError(t, err)
	require.Empty(t, content)
	requireEmptyDir(t, dir)
}

func TestFetchDeclaredZeroLength(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	fetcher, dir := newTestFetcher(t)
	content, err := fetcher.Fetch(context.Background(), 2, srv.URL+"/empty.txt", "")

	require.NoError(t, err)
	require.Empty(t, content)
	requireEmptyDir(t, dir)
}

func TestFetchHTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	fetcher, dir := newTestFetcher(t)
	content, err := fetcher.Fetch(context.Background(), 3, srv.URL+"/missing.txt", "")

	require.Error(t, err)
	require.Empty(t, content)
	requireEmptyDir(t, dir)
}

func TestFetchDecodeFailureStillRemovesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "this is not a zip archive")
	}))
	defer srv.Close()

	fetcher, dir := newTestFetcher(t)
	content, err := fetcher.Fetch(context.Background(), 4, srv.URL+"/broken.docx", "docx")

	require.Error(t, err)
	require.Empty(t, content)
	requireEmptyDir(t, dir)
}

func TestFetchUsesDeclaredTypeOverExtension(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "%PDF-1.4 pretend")
	}))
	defer srv.Close()

	fetcher, dir := newTestFetcher(t)
	// Declared pdf with a .txt url: the default registry answers pdf with
	// its placeholder note instead of reading the bytes.
	content, err := fetcher.Fetch(context.Background(), 5, srv.URL+"/doc.txt", "pdf")

	require.NoError(t, err)
	require.Equal(t, "（暂不支持PDF文档解析）", content)
	requireEmptyDir(t, dir)
}

func TestTextDecoderCapsAtHundredLines(t *testing.T) {
	var payload strings.Builder
	for i := 0; i < 150; i++ {
		fmt.Fprintf(&payload, "line %d\n", i)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, payload.String())
	}))
	defer srv.Close()

	fetcher, dir := newTestFetcher(t)
	content, err := fetcher.Fetch(context.Background(), 6, srv.URL+"/long.txt", "txt")

	require.NoError(t, err)
	require.Contains(t, content, "line 99")
	require.NotContains(t, content, "line 100")
	requireEmptyDir(t, dir)
}
