package source

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnadela/immoeliza-analysis/internal/storage"
	"github.com/gnadela/immoeliza-analysis/internal/table"
)

func newTestFetcher() *Fetcher {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewFetcher(Options{Timeout: 5 * time.Second, RetryCount: 2, RetryWait: 10 * time.Millisecond}, logger)
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://raw.githubusercontent.com/x/y/main/data.csv"))
	assert.True(t, IsRemote("http://localhost:8080/a.csv"))
	assert.False(t, IsRemote("./src/raw_data.csv"))
	assert.False(t, IsRemote("/tmp/raw.csv"))
	assert.False(t, IsRemote("file:///tmp/raw.csv"))
}

func TestLoad_LocalCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "raw.csv")
	require.NoError(t, os.WriteFile(path, []byte("ID,Price\n1,250000\n"), 0644))

	tbl, err := newTestFetcher().Load(context.Background(), path, "raw_listings")
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, "raw_listings", tbl.Name)
}

func TestLoad_RemoteCSV(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("Postal code,Refnis code\n1000,21004\n1020,21004\n"))
	}))
	defer server.Close()

	tbl, err := newTestFetcher().Load(context.Background(), server.URL+"/Postal_Refnis.csv", "postal_refnis")
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, "21004", tbl.Cell(tbl.Rows[1], "Refnis code"))
}

func TestLoad_RemoteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sectors.xlsx")
	require.NoError(t, storage.WriteXLSX(path, "Sheet1", table.New("s", []string{"CD_REFNIS"}, [][]string{{"21004"}})))
	content, err := os.ReadFile(path)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(content)
	}))
	defer server.Close()

	tbl, err := newTestFetcher().Load(context.Background(), server.URL+"/sectors.xlsx", "sector_data")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"21004"}}, tbl.Rows)
}

func TestLoad_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("a\n1\n"))
	}))
	defer server.Close()

	tbl, err := newTestFetcher().Load(context.Background(), server.URL+"/a.csv", "a")
	require.NoError(t, err)
	assert.Equal(t, 1, tbl.Len())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestLoad_NotFound(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	_, err := newTestFetcher().Load(context.Background(), server.URL+"/missing.csv", "raw_listings")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestLoad_EmptyLocation(t *testing.T) {
	_, err := newTestFetcher().Load(context.Background(), " ", "postal_refnis")

	var structural *table.StructuralError
	require.True(t, errors.As(err, &structural))
	assert.Equal(t, "postal_refnis", structural.Table)
}
