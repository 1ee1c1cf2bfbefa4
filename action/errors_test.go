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
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lindb/taskflow/action"
)

func TestFilter_Matches(t *testing.T) {
	f := action.FilterUserErrors | action.FilterInternal

	assert.True(t, f.Matches(action.UserError(1)))
	assert.False(t, f.Matches(action.NonRecoverable()))
	assert.True(t, f.Matches(action.Internal(nil)))
	assert.False(t, f.Matches(nil))
}

func TestFilter_IsEmpty(t *testing.T) {
	var f action.Filter
	assert.True(t, f.IsEmpty())
	assert.False(t, action.AllErrors.IsEmpty())
}

func TestExecError_UnwrapAndError(t *testing.T) {
	cause := errors.New("boom")
	e := action.Internal(cause)
	assert.ErrorIs(t, e, cause)
	assert.Contains(t, e.Error(), "boom")

	var nilErr *action.ExecError
	assert.Equal(t, "<nil>", nilErr.Error())
	assert.Nil(t, nilErr.Unwrap())
}
