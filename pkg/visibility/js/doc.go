// Package js evaluates dependency rules as JavaScript expressions using
// github.com/dop251/goja.
//
// The engine is only compiled in with the `js_eval` build tag; without it New
// returns an evaluator that reports ErrUnavailable. Rules see `value`,
// `values` and `extras`, and every snapshot field is also bound as a global,
// so `attendeeType === "speaker"` and `values.attendeeType === "speaker"` are
// equivalent. The result is converted with JavaScript truthiness.
package js
