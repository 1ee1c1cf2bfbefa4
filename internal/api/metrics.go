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
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsPath is the Prometheus scrape route.
var MetricsPath = "/metrics"

// MetricsAPI exposes a prometheus.Gatherer's collectors over HTTP for
// scraping - the runtime/program/scheduler metrics package's collectors,
// registered against the same prometheus.Registry passed as each
// runtime.EngineConfig's Registerer.
type MetricsAPI struct {
	handler gin.HandlerFunc
}

// NewMetricsAPI creates a MetricsAPI serving gatherer's collectors.
func NewMetricsAPI(gatherer prometheus.Gatherer) *MetricsAPI {
	return &MetricsAPI{handler: gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))}
}

// Register adds the metrics scrape route.
func (a *MetricsAPI) Register(route gin.IRoutes) {
	route.GET(MetricsPath, a.handler)
}
