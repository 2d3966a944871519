// Package prompt renders the model prompts for the wardrobe operations.
//
// Prompts are text/template files embedded in the binary. Every template sees
// the caller's data as .In and the JSON Schema of the expected reply as
// .Schema, so the model is always told which keys to return. Item
// descriptions are often HTML copied from retailer pages; the markdown
// template function converts them before interpolation.
package prompt
