// Package pattern implements the {{var}} template language used across
// listflow configurations: tokenizing templates, compiling extraction
// regexes, interpolating variables and evaluating boolean conditions.
//
// The package is a leaf: it depends on nothing but the standard library, so
// the compiler and the action runtime can both build on it freely.
package pattern
