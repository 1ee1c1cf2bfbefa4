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

package action_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lindb/taskflow/action"
)

func TestTag_EqualityIsHashOnly(t *testing.T) {
	a := action.NewTag("worker.a")
	b := action.NewTag("worker.a")
	c := action.NewTag("worker.b")

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())
	assert.False(t, a.Equal(c))
}

func TestTag_ZeroValue(t *testing.T) {
	var z action.Tag
	assert.True(t, z.IsZero())
	assert.Equal(t, "tag#anon", z.String())
}

func TestTag_TraceStringDoesNotAffectEquality(t *testing.T) {
	a := action.NewTag("same-name")
	b := action.NewTag("same-name")
	assert.Equal(t, a.Trace(), b.Trace())
	assert.True(t, a.Equal(b))
}
