package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leofalp/stylegate/core/extract"
	"github.com/leofalp/stylegate/core/wardrobe"
	"github.com/leofalp/stylegate/internal/config"
)

// isolate keeps the user's config files and environment out of the test.
func isolate(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	t.Setenv("HOME", dir)
	for _, key := range []string{"STYLEGATE_LOG_LEVEL", "LOG_LEVEL", "STYLEGATE_REPAIR", "STYLEGATE_LOG_FILE", "STYLEGATE_VISION_BASE_URL", "VISION_BASE_URL"} {
		t.Setenv(key, "")
	}
}

func runCLI(t *testing.T, stdin string, args ...string) (map[string]any, error) {
	t.Helper()
	var stdout bytes.Buffer
	err := run(context.Background(), args, strings.NewReader(stdin), &stdout)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out), stdout.String())
	return out, nil
}

func TestRun_Usage(t *testing.T) {
	isolate(t)

	_, err := runCLI(t, "")
	assert.ErrorIs(t, err, errUsage)

	_, err = runCLI(t, "", "frobnicate")
	assert.ErrorIs(t, err, errUsage)
}

func TestRun_Extract(t *testing.T) {
	isolate(t)

	tests := []struct {
		name       string
		stdin      string
		args       []string
		wantStatus string
		wantReason string
		wantValue  map[string]any
	}{
		{
			name:       "fenced reply",
			stdin:      "Here it is:\n```json\n{\"primaryTerms\":[\"linen shirt\"]}\n```",
			args:       []string{"-fields", "primaryTerms:[]string", "-fallback", `{"primaryTerms":["shirt"]}`},
			wantStatus: "parsed",
			wantValue:  map[string]any{"primaryTerms": []any{"linen shirt"}},
		},
		{
			name:       "optional fields need no fallback",
			stdin:      "no json here",
			args:       []string{"-fields", "notes:string?"},
			wantStatus: "fallback",
			wantReason: "parse-error",
			wantValue:  map[string]any{},
		},
		{
			name:       "missing field falls back",
			stdin:      `{"other":true}`,
			args:       []string{"-fields", "category,colors:[]string?", "-fallback", `{"category":"unknown"}`},
			wantStatus: "fallback",
			wantReason: "shape-mismatch",
			wantValue:  map[string]any{"category": "unknown"},
		},
		{
			name:       "empty input",
			stdin:      "\n",
			args:       []string{"-fields", "category", "-fallback", `{"category":"unknown"}`},
			wantStatus: "fallback",
			wantReason: "empty-response",
			wantValue:  map[string]any{"category": "unknown"},
		},
		{
			name:       "repair",
			stdin:      `{"category": 'top',}`,
			args:       []string{"-fields", "category", "-repair", "-fallback", `{"category":"unknown"}`},
			wantStatus: "parsed",
			wantValue:  map[string]any{"category": "top"},
		},
		{
			name:       "marker",
			stdin:      "progress {\"success\":false}\nDONE:{\"success\":true}",
			args:       []string{"-fields", "success:bool", "-marker", "DONE:", "-fallback", `{"success":false}`},
			wantStatus: "parsed",
			wantValue:  map[string]any{"success": true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := runCLI(t, tt.stdin, append([]string{"extract"}, tt.args...)...)
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, out["status"])
			if tt.wantReason != "" {
				assert.Equal(t, tt.wantReason, out["reason"])
			}
			assert.Equal(t, tt.wantValue, out["value"])
		})
	}
}

func TestRun_ExtractBadFlags(t *testing.T) {
	isolate(t)

	_, err := runCLI(t, "{}", "extract", "-fields", "a:date")
	assert.ErrorContains(t, err, "unknown field kind")

	_, err = runCLI(t, "{}", "extract", "-fallback", "[1]")
	assert.ErrorContains(t, err, "-fallback")

	for _, fallback := range []string{"{}", "null", `{"primaryTerms":"shirt"}`} {
		_, err = runCLI(t, "nope", "extract", "-fields", "primaryTerms:[]string", "-fallback", fallback)
		assert.ErrorContains(t, err, "does not match -fields", "fallback %s", fallback)
	}
}

func TestRun_InvalidConfig(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[wardrobe]\nconcurrency = 0\n"), 0o600))

	_, err := runCLI(t, "", "-config", path, "extract")
	assert.ErrorContains(t, err, "wardrobe.concurrency")
}

func TestParseFields(t *testing.T) {
	fields, err := parseFields("name, colors:[]string?, ,score:number")
	require.NoError(t, err)
	assert.Equal(t, []extract.Field{
		extract.Required("name", extract.KindString),
		extract.Optional("colors", extract.KindStringArray),
		extract.Required("score", extract.KindNumber),
	}, fields)

	fields, err = parseFields("")
	require.NoError(t, err)
	assert.Empty(t, fields)
}

func TestDetectImageType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	assert.Equal(t, "image/png", detectImageType("photo.jpg", png))
	assert.Equal(t, "image/webp", detectImageType("photo.WEBP", []byte("not an image")))
	assert.Equal(t, "image/jpeg", detectImageType("photo", []byte("not an image")))
}

func TestReadImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shirt.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG\r\n\x1a\nrest"), 0o600))

	image, err := readImage(path)
	require.NoError(t, err)
	assert.Equal(t, "image/png", image.MimeType)
	assert.Equal(t, "iVBORw0KGgpyZXN0", image.Data)

	_, err = readImage(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestNewApp_SendsConfiguredHeaders(t *testing.T) {
	isolate(t)

	var gotTitle, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("X-Title")
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":    "chatcmpl-1",
			"model": "gpt-4o-mini",
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": `{"primaryTerms":["linen shirt"]}`},
				"finish_reason": "stop",
			}},
		})
	}))
	defer srv.Close()

	cfg := config.DefaultConfig()
	cfg.Chat.BaseURL = srv.URL
	cfg.Chat.APIKey = "test-key"
	cfg.Chat.Headers = map[string]string{"X-Title": "stylegate"}
	cfg.Gateway.MaxRetries = 0

	a, err := newApp(cfg, slog.Default())
	require.NoError(t, err)

	res, err := a.service.SearchTerms(context.Background(), wardrobe.Item{ID: "s1", Name: "Linen shirt"})
	require.NoError(t, err)
	assert.True(t, res.IsParsed())
	assert.Equal(t, "stylegate", gotTitle)
	assert.Equal(t, "Bearer test-key", gotAuth)
}
