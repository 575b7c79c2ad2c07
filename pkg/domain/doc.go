// Package domain contains the core types of the listflow automation engine:
// the action AST produced by the compiler, trigger configurations, work items
// and the error taxonomy shared by the pattern matcher, compiler and runtime.
//
// Types here are plain data. Behavior lives in internal/runtime (execution),
// internal/compiler (parsing) and pkg/pattern (templates).
package domain
