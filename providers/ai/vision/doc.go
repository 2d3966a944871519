// Package vision provides an ai.Provider for locally hosted multimodal models
// that expose an Ollama-style generate endpoint.
//
// The provider sends one non-streaming POST {base}/api/generate request per
// call. Where the response text lives differs between local servers, so it is
// located with a jq expression compiled once at construction:
//
//	p, err := vision.New().WithResponsePath(".choices[0].message.content")
//
// The default expression is ".response". An expression that yields nothing
// produces an empty content, which callers downstream treat as an empty model
// reply rather than a transport failure.
package vision
