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

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// HealthPath is the liveness probe route.
var HealthPath = "/healthz"

// HealthAPI answers liveness probes for a running runtime.Runtime -
// the Go counterpart of the teacher's RequestAPI/ExploreAPI shape
// (a route-registering struct with one handler method per endpoint),
// minus lindb/common/pkg/http's OK/Error response helpers, which are
// not in the pack; HealthAPI writes its own minimal gin.H body instead.
type HealthAPI struct{}

// NewHealthAPI creates a HealthAPI instance.
func NewHealthAPI() *HealthAPI {
	return &HealthAPI{}
}

// Register adds the liveness probe route.
func (a *HealthAPI) Register(route gin.IRoutes) {
	route.GET(HealthPath, a.Healthz)
}

// Healthz reports the process as live. A runtime.Runtime that answers
// this debug server's requests at all has a running event loop, so
// there is no deeper readiness state to probe.
func (a *HealthAPI) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
