// Package wardrobe implements the model-backed operations of the wardrobe
// application: search terms for an item, image analysis, outfit suggestions,
// outfit image prompts and parsing of the image generator's report.
//
// Every operation returns an [extract.Result]. When the model fails or
// replies with something unusable, the result carries the fallback for that
// operation, so callers always have a value to show. Shapes and fallbacks
// live together in shapes.go.
package wardrobe
