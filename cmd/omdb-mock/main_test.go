package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Clark-Hu/movie-comments-api/internal/details"
)

func TestHandlerServesCatalogueThroughClient(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	srv := httptest.NewServer(newHandler(details.NewFixed(details.SampleIt()), "secret", zap.New(core)))
	t.Cleanup(srv.Close)

	client, err := details.NewOMDbClient(srv.URL+"/", "secret", time.Second, zap.NewNop())
	require.NoError(t, err)

	d, err := client.Details(context.Background(), "it")
	require.NoError(t, err)
	assert.Equal(t, "It", d.Title)
	assert.Equal(t, "True", d.Response)

	_, err = client.Details(context.Background(), "Nothing Here")
	var unavailable *details.UnavailableError
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "Movie not found!", unavailable.Reason)

	lookups := logs.FilterMessage("lookup").All()
	require.Len(t, lookups, 1)
	assert.Equal(t, "it", lookups[0].ContextMap()["title"])
	assert.Equal(t, 1, logs.FilterMessage("lookup missed").Len())
}

func TestHandlerRejectsWrongKey(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := newHandler(details.NewFixed(details.SampleIt()), "secret", zap.New(core))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?t=It&apikey=wrong", nil))

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body failure
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, failure{Response: "False", Error: "Invalid API key!"}, body)
	assert.Equal(t, 1, logs.FilterMessage("rejected api key").Len())
}

func TestLoadEntries(t *testing.T) {
	entries, err := loadEntries("")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "It", entries[0].Title)

	path := filepath.Join(t.TempDir(), "catalogue.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"Title":"Alien","Year":"1979"}]`), 0o644))
	entries, err = loadEntries(path)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Alien", entries[0].Title)

	_, err = loadEntries(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
