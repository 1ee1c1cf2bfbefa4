// Licensed to LinDB under one or more contributor
// license agreements. See the NOTICE file distributed with
// this work for additional information regarding copyright
// ownership. LinDB licenses this file to you under
// the Apache License, Version 2.0 (the "License"); you may
// not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package action

import "fmt"

// Kind classifies an ExecError for Catch filtering purposes. Catch filters
// on Kind, never on the UserError payload.
type Kind uint8

const (
	// KindUserError is an application-defined failure carrying a code.
	KindUserError Kind = iota
	// KindNonRecoverableFailure signals an infrastructure problem raised by
	// a child action (e.g. a Sync whose notifiers are all gone).
	KindNonRecoverableFailure
	// KindInternal covers runtime bugs: a lost join handle, an exhausted
	// reusable-future/vector pool, and similar conditions the user action
	// tree cannot itself cause.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindUserError:
		return "UserError"
	case KindNonRecoverableFailure:
		return "NonRecoverableFailure"
	case KindInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// ExecError is the error type every Action's future resolves with on
// failure. UserError round-trips its Code unchanged from the leaf Invoke
// that produced it, all the way out to the Program result, unless a Catch
// along the way recovers it.
type ExecError struct {
	Kind Kind
	Code uint64
	// Cause is set for KindInternal errors wrapping a lower-level error
	// (e.g. the JoinError from an aborted task).
	Cause error
}

// UserError constructs a KindUserError with the given application code.
func UserError(code uint64) *ExecError { return &ExecError{Kind: KindUserError, Code: code} }

// NonRecoverable constructs a KindNonRecoverableFailure.
func NonRecoverable() *ExecError { return &ExecError{Kind: KindNonRecoverableFailure} }

// Internal constructs a KindInternal error wrapping cause, which may be nil.
func Internal(cause error) *ExecError { return &ExecError{Kind: KindInternal, Cause: cause} }

func (e *ExecError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case KindUserError:
		return fmt.Sprintf("user error(%d)", e.Code)
	case KindNonRecoverableFailure:
		return "non-recoverable failure"
	case KindInternal:
		if e.Cause != nil {
			return fmt.Sprintf("internal error: %v", e.Cause)
		}
		return "internal error"
	default:
		return "unknown action error"
	}
}

// Unwrap supports errors.Is/errors.As against the wrapped Cause.
func (e *ExecError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Filter is a bitset over Kind values, used by Catch to select which
// errors it observes. It is a design-time error for a Filter to be empty.
type Filter uint8

const (
	FilterUserErrors Filter = 1 << iota
	FilterNonRecoverable
	FilterInternal
)

// AllErrors matches every Kind.
const AllErrors = FilterUserErrors | FilterNonRecoverable | FilterInternal

// Matches reports whether err's Kind is included in f.
func (f Filter) Matches(err *ExecError) bool {
	if err == nil {
		return false
	}
	switch err.Kind {
	case KindUserError:
		return f&FilterUserErrors != 0
	case KindNonRecoverableFailure:
		return f&FilterNonRecoverable != 0
	case KindInternal:
		return f&FilterInternal != 0
	default:
		return false
	}
}

// IsEmpty reports whether the filter matches no Kind at all - attaching a
// Catch handler with an empty Filter is a design-time error.
func (f Filter) IsEmpty() bool { return f == 0 }

// ErrNoFreeFuture is returned by a reusable future pool's Next when every
// slot is in use; the pool never grows at runtime (§4.G, §9).
var ErrNoFreeFuture = fmt.Errorf("action: no free reusable future slot")

// ErrNoSpaceLeft is returned by a reusable vector pool's Next under the
// same fixed-capacity discipline.
var ErrNoSpaceLeft = fmt.Errorf("action: no free reusable vector slot")
