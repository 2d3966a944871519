package extract

import (
	"bytes"
	"log/slog"
	"reflect"
	"strings"
	"sync"
	"testing"
)

type searchTerms struct {
	PrimaryTerms     []string `json:"primaryTerms"`
	AlternativeTerms []string `json:"alternativeTerms,omitempty"`
}

var termsShape = MustShape(
	Required("primaryTerms", KindStringArray),
	Optional("alternativeTerms", KindStringArray),
)

var termsFallback = searchTerms{PrimaryTerms: []string{"clothing"}}

// ========== Base algorithm ==========

// TestExtract_ValidObject verifies that a well-formed object with every
// required key is returned as Parsed, independent of key order.
func TestExtract_ValidObject(t *testing.T) {
	raw := `{"alternativeTerms":["tee"],"primaryTerms":["shirt","top"]}`

	res := termsShape.extractMap(raw)
	if !res.IsParsed() {
		t.Fatalf("expected parsed result, got %s (%s)", res.Outcome(), res.Detail)
	}

	want := map[string]any{
		"primaryTerms":     []any{"shirt", "top"},
		"alternativeTerms": []any{"tee"},
	}
	if !reflect.DeepEqual(res.Value, want) {
		t.Errorf("Value = %#v, want %#v", res.Value, want)
	}
	if res.Reason != ReasonNone {
		t.Errorf("Reason = %q, want empty", res.Reason)
	}
}

// TestExtract_EmptyInput verifies that empty and blank input fall back with
// empty-response and hand back the fallback untouched.
func TestExtract_EmptyInput(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n\t\n"} {
		res := Extract(raw, termsShape, termsFallback)

		if !res.IsFallback() {
			t.Fatalf("Extract(%q) expected fallback", raw)
		}
		if res.Reason != ReasonEmptyResponse {
			t.Errorf("Extract(%q) reason = %q, want %q", raw, res.Reason, ReasonEmptyResponse)
		}
		if !reflect.DeepEqual(res.Value, termsFallback) {
			t.Errorf("Extract(%q) value = %#v, want fallback %#v", raw, res.Value, termsFallback)
		}
	}
}

// TestExtract_FallbackIdentity verifies that the fallback is returned as the
// very same value, not a copy rebuilt by the extractor.
func TestExtract_FallbackIdentity(t *testing.T) {
	fallback := map[string]any{"primaryTerms": []any{"clothing"}}

	res := New().ExtractMap("", termsShape, fallback)

	if reflect.ValueOf(res.Value).Pointer() != reflect.ValueOf(fallback).Pointer() {
		t.Error("expected the fallback map itself to be returned")
	}
}

// TestExtract_Fences covers fenced payloads with and without language tags.
func TestExtract_Fences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]any
	}{
		{
			name: "json fence",
			raw:  "```json\n{\"a\":1}\n```",
			want: map[string]any{"a": float64(1)},
		},
		{
			name: "bare fence",
			raw:  "```\n{\"a\":1}\n```",
			want: map[string]any{"a": float64(1)},
		},
		{
			name: "uppercase tag with prose",
			raw:  "Sure!\n```JSON\n{\"a\":1}\n```\nLet me know.",
			want: map[string]any{"a": float64(1)},
		},
		{
			name: "fence on one line",
			raw:  "```{\"a\":1}```",
			want: map[string]any{"a": float64(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Extract(tt.raw, nil, map[string]any{})
			if !res.IsParsed() {
				t.Fatalf("expected parsed, got %s (%s)", res.Outcome(), res.Detail)
			}
			if !reflect.DeepEqual(res.Value, tt.want) {
				t.Errorf("Value = %#v, want %#v", res.Value, tt.want)
			}
		})
	}
}

// TestExtract_SurroundingProse verifies that commentary before and after the
// object is sliced away.
func TestExtract_SurroundingProse(t *testing.T) {
	raw := `Here is the result: {"primaryTerms":["shirt"]} Thanks!`

	res := Extract(raw, termsShape, termsFallback)
	if !res.IsParsed() {
		t.Fatalf("expected parsed, got %s (%s)", res.Outcome(), res.Detail)
	}

	want := searchTerms{PrimaryTerms: []string{"shirt"}}
	if !reflect.DeepEqual(res.Value, want) {
		t.Errorf("Value = %#v, want %#v", res.Value, want)
	}
}

// TestExtract_ParseErrors covers text that is present but never becomes a
// JSON object.
func TestExtract_ParseErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "trailing comma", raw: `{"primaryTerms":["shirt"],}`},
		{name: "unescaped quote", raw: `{"primaryTerms":["the "best" shirt"]}`},
		{name: "plain prose", raw: "I could not find anything useful."},
		{name: "array instead of object", raw: `["shirt","top"]`},
		{name: "null", raw: "null"},
		{name: "closing before opening", raw: "} nothing here {"},
		{name: "two objects", raw: `{"primaryTerms":["a"]} and {"primaryTerms":["b"]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Extract(tt.raw, termsShape, termsFallback)
			if res.Reason != ReasonParseError {
				t.Fatalf("Reason = %q, want %q (detail: %s)", res.Reason, ReasonParseError, res.Detail)
			}
			if !reflect.DeepEqual(res.Value, termsFallback) {
				t.Errorf("Value = %#v, want fallback", res.Value)
			}
			if res.Detail == "" {
				t.Error("expected a diagnostic detail")
			}
		})
	}
}

// TestExtract_ShapeMismatch covers objects that parse but break the shape.
func TestExtract_ShapeMismatch(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "missing required key", raw: `{"alternativeTerms":["tee"]}`},
		{name: "wrong kind", raw: `{"primaryTerms":"shirt"}`},
		{name: "wrong element kind", raw: `{"primaryTerms":["shirt",3]}`},
		{name: "optional key with wrong kind", raw: `{"primaryTerms":["shirt"],"alternativeTerms":"tee"}`},
		{name: "empty object", raw: `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Extract(tt.raw, termsShape, termsFallback)
			if res.Reason != ReasonShapeMismatch {
				t.Fatalf("Reason = %q, want %q (detail: %s)", res.Reason, ReasonShapeMismatch, res.Detail)
			}
			if !reflect.DeepEqual(res.Value, termsFallback) {
				t.Errorf("Value = %#v, want fallback", res.Value)
			}
		})
	}
}

// TestExtract_DecodeMismatch verifies that an object accepted by the shape
// but not decodable into T still falls back with shape-mismatch.
func TestExtract_DecodeMismatch(t *testing.T) {
	type scored struct {
		Score int `json:"score"`
	}
	shape := MustShape(Required("score", KindNumber))

	res := Extract(`{"score": 4.5}`, shape, scored{Score: 3})
	if res.Reason != ReasonShapeMismatch {
		t.Fatalf("Reason = %q, want %q", res.Reason, ReasonShapeMismatch)
	}
	if res.Value.Score != 3 {
		t.Errorf("Value.Score = %d, want fallback 3", res.Value.Score)
	}
}

// TestExtract_Idempotent verifies that repeated calls agree.
func TestExtract_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"```json\n{\"primaryTerms\":[\"shirt\"]}\n```",
		`{"primaryTerms":["shirt"],}`,
		`{"alternativeTerms":[]}`,
	}

	for _, raw := range inputs {
		first := Extract(raw, termsShape, termsFallback)
		second := Extract(raw, termsShape, termsFallback)
		if !reflect.DeepEqual(first, second) {
			t.Errorf("Extract(%q) not idempotent: %#v vs %#v", raw, first, second)
		}
	}
}

// TestExtract_Concurrent runs many extractions in parallel against a shared
// shape and extractor. Run with -race.
func TestExtract_Concurrent(t *testing.T) {
	extractor := New(WithRepair())
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			raw := `{"primaryTerms":["shirt"]}`
			if i%2 == 1 {
				raw = `{"primaryTerms":["shirt"],}`
			}
			res := ExtractWith(extractor, raw, termsShape, termsFallback)
			if !res.IsParsed() {
				t.Errorf("goroutine %d: expected parsed, got %s", i, res.Outcome())
			}
		}(i)
	}

	wg.Wait()
}

// ========== Options ==========

// TestExtract_WithRepair verifies that repair rescues a malformed span and
// flags the result, while the default extractor still reports parse-error.
func TestExtract_WithRepair(t *testing.T) {
	raw := "```json\n{\"primaryTerms\": [\"shirt\", \"top\",],}\n```"

	strict := Extract(raw, termsShape, termsFallback)
	if strict.Reason != ReasonParseError {
		t.Fatalf("default extractor: Reason = %q, want %q", strict.Reason, ReasonParseError)
	}

	res := ExtractWith(New(WithRepair()), raw, termsShape, termsFallback)
	if !res.IsParsed() {
		t.Fatalf("repairing extractor: expected parsed, got %s (%s)", res.Outcome(), res.Detail)
	}
	if !res.Repaired {
		t.Error("expected Repaired to be set")
	}
	want := []string{"shirt", "top"}
	if !reflect.DeepEqual(res.Value.PrimaryTerms, want) {
		t.Errorf("PrimaryTerms = %v, want %v", res.Value.PrimaryTerms, want)
	}
}

// TestExtract_WithMarker verifies that only the text after the marker counts.
func TestExtract_WithMarker(t *testing.T) {
	type report struct {
		Success bool `json:"success"`
	}
	shape := MustShape(Required("success", KindBoolean))
	raw := "Loading model {cpu}\n==========\nGENERATION_RESULT_JSON:\n{\"success\": true}\n"

	res := ExtractWith(New(WithMarker("GENERATION_RESULT_JSON:")), raw, shape, report{})
	if !res.IsParsed() || !res.Value.Success {
		t.Fatalf("expected parsed success report, got %#v", res)
	}

	empty := ExtractWith(New(WithMarker("GENERATION_RESULT_JSON:")), "noise\nGENERATION_RESULT_JSON:\n", shape, report{})
	if empty.Reason != ReasonEmptyResponse {
		t.Errorf("Reason = %q, want %q", empty.Reason, ReasonEmptyResponse)
	}
}

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingObserver) ObserveExtraction(status Status, reason Reason) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, string(status)+":"+string(reason))
}

// TestExtract_ObserverAndLogger verifies telemetry and debug logging hooks.
func TestExtract_ObserverAndLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	observer := &recordingObserver{}
	extractor := New(WithLogger(logger), WithObserver(observer))

	ExtractWith(extractor, `{"primaryTerms":["shirt"]}`, termsShape, termsFallback)
	ExtractWith(extractor, `not json`, termsShape, termsFallback)

	want := []string{"parsed:", "fallback:parse-error"}
	if !reflect.DeepEqual(observer.outcomes, want) {
		t.Errorf("outcomes = %v, want %v", observer.outcomes, want)
	}

	out := buf.String()
	if !strings.Contains(out, "extraction fell back") || !strings.Contains(out, "reason=parse-error") {
		t.Errorf("expected a fallback debug entry, got %q", out)
	}
	if strings.Count(out, "extraction fell back") != 1 {
		t.Errorf("expected exactly one log entry, got %q", out)
	}
}

// TestExtractor_With verifies that With does not mutate the receiver.
func TestExtractor_With(t *testing.T) {
	base := New()
	repairing := base.With(WithRepair())

	if base.repair {
		t.Error("With must not modify the receiver")
	}
	if !repairing.repair {
		t.Error("expected the copy to have repair enabled")
	}
}

// TestExtractRequest verifies the Request form matches the positional form.
func TestExtractRequest(t *testing.T) {
	req := Request[searchTerms]{
		Raw:      `{"primaryTerms":["coat"]}`,
		Shape:    termsShape,
		Fallback: termsFallback,
	}

	got := ExtractRequest(nil, req)
	want := Extract(req.Raw, req.Shape, req.Fallback)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractRequest = %#v, want %#v", got, want)
	}
}

// extractMap is a small test helper running the default extractor.
func (s *Shape) extractMap(raw string) Result[map[string]any] {
	return New().ExtractMap(raw, s, map[string]any{})
}
