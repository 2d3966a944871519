package extract

// Status tells whether a Result carries a parsed value or the caller's fallback.
type Status string

const (
	StatusParsed   Status = "parsed"
	StatusFallback Status = "fallback"
)

// Reason explains why an extraction fell back. It is empty for parsed results.
type Reason string

const (
	ReasonNone Reason = ""

	// ReasonEmptyResponse means no text was received from the upstream model call.
	ReasonEmptyResponse Reason = "empty-response"

	// ReasonParseError means text was present but was not a JSON object after
	// fence stripping and brace slicing.
	ReasonParseError Reason = "parse-error"

	// ReasonShapeMismatch means the text parsed as a JSON object but a required
	// field was missing or a field had the wrong kind.
	ReasonShapeMismatch Reason = "shape-mismatch"
)

// Result is the outcome of one extraction. Value is always usable: it holds
// either the parsed object or the fallback supplied by the caller, unchanged.
type Result[T any] struct {
	Value  T      `json:"value"`
	Status Status `json:"status"`
	Reason Reason `json:"reason,omitempty"`

	// Detail is a human-readable diagnostic for logs. Never branch on it.
	Detail string `json:"detail,omitempty"`

	// Repaired is set when the value was only parseable after JSON repair.
	Repaired bool `json:"repaired,omitempty"`
}

// Parsed builds a successful Result.
func Parsed[T any](value T) Result[T] {
	return Result[T]{Value: value, Status: StatusParsed}
}

// Fallback builds a Result carrying the caller's fallback value.
func Fallback[T any](value T, reason Reason, detail string) Result[T] {
	return Result[T]{
		Value:  value,
		Status: StatusFallback,
		Reason: reason,
		Detail: detail,
	}
}

// IsParsed reports whether the value came from the model text.
func (r Result[T]) IsParsed() bool {
	return r.Status == StatusParsed
}

// IsFallback reports whether the value is the caller's fallback.
func (r Result[T]) IsFallback() bool {
	return r.Status == StatusFallback
}

// Outcome returns "parsed" or the fallback reason. It is meant for metric
// labels and log fields.
func (r Result[T]) Outcome() string {
	if r.Status == StatusParsed {
		return string(StatusParsed)
	}
	return string(r.Reason)
}
