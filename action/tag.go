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

import "hash/fnv"

// Tag is a content-addressed identifier for an entity in a registration
// database (invoke generator, event, condition). Equality is by Hash;
// Trace is an optional human-readable string carried for logging only.
//
// Tags have no ownership and are copied freely - they are small value
// types, not pointers.
type Tag struct {
	hash  uint64
	trace string
}

// NewTag hashes name into a Tag, keeping name as the trace string.
func NewTag(name string) Tag {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return Tag{hash: h.Sum64(), trace: name}
}

// Hash returns the 64-bit content hash identifying this Tag.
func (t Tag) Hash() uint64 { return t.hash }

// Trace returns the tracing string the Tag was built from, or "" for a
// zero-value Tag.
func (t Tag) Trace() string { return t.trace }

// IsZero reports whether t is the zero Tag.
func (t Tag) IsZero() bool { return t.hash == 0 && t.trace == "" }

// Equal compares two Tags by Hash, per the data-model invariant that Tag
// equality never considers the trace string.
func (t Tag) Equal(o Tag) bool { return t.hash == o.hash }

func (t Tag) String() string {
	if t.trace != "" {
		return t.trace
	}
	return "tag#anon"
}
