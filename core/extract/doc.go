// Package extract turns free-form model text into typed values. Language
// models wrap JSON in markdown fences, add commentary before and after the
// object, and occasionally emit malformed or incomplete payloads. This package
// strips fences, slices the outermost object span, parses it and validates it
// against a [Shape]. Whatever happens, the caller gets a usable value back:
// either the parsed object or the fallback it supplied.
//
// The main entry point is the generic [Extract] function:
//
//	shape := extract.MustShape(
//	    extract.Required("primaryTerms", extract.KindStringArray),
//	    extract.Optional("alternativeTerms", extract.KindStringArray),
//	)
//
//	res := extract.Extract(raw, shape, SearchTerms{PrimaryTerms: []string{"shirt"}})
//	if res.IsFallback() {
//	    slog.Debug("using fallback terms", "reason", res.Reason)
//	}
//	use(res.Value)
//
// Failures are reported as a [Reason] on the [Result], never as an error:
// [ReasonEmptyResponse], [ReasonParseError] and [ReasonShapeMismatch].
//
// An [Extractor] built with [New] carries optional behaviour (JSON repair,
// output markers, logging, telemetry). It holds no per-call state and is safe
// for concurrent use.
package extract
