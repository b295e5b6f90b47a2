package metadata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestVersion(t *testing.T) {
	tests := []struct {
		name     string
		versions []string
		want     string
	}{
		{"ordered", []string{"1.0.0", "1.2.0", "10.0.1"}, "10.0.1"},
		{"unordered", []string{"63.0.31", "9.0.0", "63.0.4"}, "63.0.31"},
		{"prerelease sorts first", []string{"2.0.0-preview", "1.9.0"}, "2.0.0-preview"},
		{"prerelease below release", []string{"2.0.0", "2.0.0-preview"}, "2.0.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := latestVersion(tt.versions)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLatestVersionErrors(t *testing.T) {
	_, err := latestVersion(nil)
	assert.Error(t, err)

	_, err = latestVersion([]string{"1.0.0", "not-a-version"})
	assert.ErrorContains(t, err, "not-a-version")
}

func TestQueryGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"resources":[{"@id":"https://example.test/flat/","@type":"PackageBaseAddress/3.0.0"}]}`))
	}))
	defer server.Close()

	body, err := queryGet(context.Background(), server.Client(), server.URL+"/index.json")
	require.NoError(t, err)

	index, err := parse[nugetIndex](body)
	require.NoError(t, err)
	require.Len(t, index.Resources, 1)
	assert.Equal(t, "https://example.test/flat/", index.Resources[0].Id)

	_, err = queryGet(context.Background(), server.Client(), server.URL+"/missing")
	assert.ErrorContains(t, err, "404")
}
