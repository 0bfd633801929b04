// Package errctx implements the Error Context described in spec.md §4.10
// and §7: a per-call (or facade-backed, thread-local-style) exception
// policy plus the accumulator that collects structured, path-tagged
// diagnostics during a mapping call.
package errctx

import (
	"fmt"
	"sync"
)

// Kind is the closed set of error kinds from spec.md §7. Callers match on
// Kind rather than on error message text.
type Kind uint8

const (
	InvalidPath Kind = iota
	UnterminatedExpression
	BadLiteral
	UnknownFilter
	UnknownOperator
	UndefinedSource
	UndefinedTarget
	TypeCoercion
	FanOutExceeded
	HookFailure
)

func (k Kind) String() string {
	switch k {
	case InvalidPath:
		return "InvalidPath"
	case UnterminatedExpression:
		return "UnterminatedExpression"
	case BadLiteral:
		return "BadLiteral"
	case UnknownFilter:
		return "UnknownFilter"
	case UnknownOperator:
		return "UnknownOperator"
	case UndefinedSource:
		return "UndefinedSource"
	case UndefinedTarget:
		return "UndefinedTarget"
	case TypeCoercion:
		return "TypeCoercion"
	case FanOutExceeded:
		return "FanOutExceeded"
	case HookFailure:
		return "HookFailure"
	default:
		return "Unknown"
	}
}

// Error is a single structured diagnostic: kind, human message, the
// source/target path it concerns (if any), and a byte offset into the
// offending expression string (if any), per spec.md §7 "User-visible
// failures carry the source or target path and... byte offset".
type Error struct {
	Kind       Kind
	Message    string
	Path       string
	SourceHint string
	ByteOffset int
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s at %q: %s", e.Kind, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Collected aggregates many Errors into one error value, for callers that
// want a single `error` to check after a collect-mode mapping call.
type Collected struct {
	Errors []*Error
}

func (c *Collected) Error() string {
	if len(c.Errors) == 1 {
		return c.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors, first: %s", len(c.Errors), c.Errors[0].Error())
}

// Policy holds the toggles of spec.md §4.10. The zero Policy is silent:
// exceptions disabled, so every reported error is dropped. Use
// DefaultPolicy for fail-fast reporting.
type Policy struct {
	ExceptionsEnabled      bool
	CollectExceptions      bool
	ThrowOnUndefinedSource bool
	ThrowOnUndefinedTarget bool
}

// DefaultPolicy matches the teacher idiom of a permissive-by-default
// struct: exceptions on, fail-fast (not collecting), strict checks off.
func DefaultPolicy() Policy {
	return Policy{ExceptionsEnabled: true}
}

// Context is the per-call (or per-thread, via Default()) state: the
// active Policy plus the accumulation buffer. A Context is not safe for
// concurrent use from multiple goroutines simultaneously — spec.md §5
// places the Error Context per-thread, never shared.
type Context struct {
	Policy Policy
	errs   []*Error
}

// New creates a Context with the given policy. Its accumulator starts
// empty.
func New(p Policy) *Context {
	return &Context{Policy: p}
}

// Report records err according to the active Policy:
//   - if ExceptionsEnabled is false, err is silently dropped (silent mode);
//   - else if CollectExceptions is true, err is appended to the buffer and
//     reporting returns nil (mapping continues);
//   - else (fail-fast) the first Report call returns err itself so the
//     caller can propagate it immediately.
func (c *Context) Report(err *Error) error {
	if !c.Policy.ExceptionsEnabled {
		return nil
	}
	if c.Policy.CollectExceptions {
		c.errs = append(c.errs, err)
		return nil
	}
	return err
}

// HasErrors reports whether the accumulator holds anything.
func (c *Context) HasErrors() bool { return len(c.errs) > 0 }

// GetErrors returns a copy of the accumulated errors in report order.
func (c *Context) GetErrors() []*Error {
	out := make([]*Error, len(c.errs))
	copy(out, c.errs)
	return out
}

// ClearErrors empties the accumulator without resetting Policy.
func (c *Context) ClearErrors() { c.errs = nil }

// Reset clears the accumulator but keeps Policy intact. The Mapper does
// not call it: every Map/MapCollecting call starts from a new Context, so
// errors never carry over from one call to the next, and there is no
// option to keep them across calls.
func (c *Context) Reset() { c.ClearErrors() }

// --- thread-local-style facade -------------------------------------------
//
// spec.md's design notes (§9) ask for "a thin thread-local facade to
// retain the ergonomic set-once-call-many idiom without true process-
// global mutable state." Go has no thread-local storage; we approximate
// it with a goroutine-scoped token obtained from the caller (typically a
// per-request or per-worker identifier) mapped to its own Context, backed
// by sync.Map so concurrent goroutines each get an isolated Context
// without a global lock on the hot path.

var facade sync.Map // map[any]*Context

// Default returns the facade Context registered for token, creating one
// with DefaultPolicy() on first use. token is any comparable value the
// caller uses to identify its logical "thread" (a goroutine ID substitute
// — e.g. a request ID); mapexpr never invents one on your behalf.
func Default(token any) *Context {
	if c, ok := facade.Load(token); ok {
		return c.(*Context)
	}
	c := New(DefaultPolicy())
	actual, _ := facade.LoadOrStore(token, c)
	return actual.(*Context)
}

// SetPolicy installs p for token's facade Context, creating it if absent.
func SetPolicy(token any, p Policy) {
	Default(token).Policy = p
}

// ClearFacade removes the facade Context registered for token entirely
// (as opposed to ClearErrors, which keeps the Context but empties its
// buffer).
func ClearFacade(token any) {
	facade.Delete(token)
}
