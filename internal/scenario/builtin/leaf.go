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

// Package builtin supplies the concrete scenario groups exercised by the
// scenario CLI: orchestration.sequence, orchestration.concurrency,
// orchestration.trigger_sync, orchestration.dedicated_worker,
// orchestration.shutdown, orchestration.catch and orchestration.graphs, each a direct translation of one
// component-integration-test scenario group into this runtime's own
// Design/Deployment/Program types.
package builtin

import (
	"context"

	"github.com/lindb/taskflow/action"
	"github.com/lindb/taskflow/pkg/logger"
)

var log = logger.GetLogger("scenario", "builtin")

// loggingLeaf is a minimal Invoke action that logs its own name and
// runs an optional caller-supplied function - the Go counterpart of
// JustLogAction/generic_test_sync_func in the original scenario harness.
type loggingLeaf struct {
	action.Base
	label string
	fn    func(ctx context.Context) *action.ExecError
}

func newLoggingLeaf(tag action.Tag, label string, fn func(ctx context.Context) *action.ExecError) *loggingLeaf {
	return &loggingLeaf{
		Base:  action.Base{Tag: tag, Pool: action.NewFuturePool(4)},
		label: label,
		fn:    fn,
	}
}

func (l *loggingLeaf) Name() string { return "Invoke:" + l.label }

func (l *loggingLeaf) TryExecute() (action.Future, error) {
	return l.Acquire(func() action.Future {
		return func(ctx context.Context) *action.ExecError {
			log.Debug("invoke start", logger.String("name", l.label))
			var err *action.ExecError
			if l.fn != nil {
				err = l.fn(ctx)
			}
			log.Debug("invoke end", logger.String("name", l.label))
			return err
		}
	})
}
