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

// Package api is the optional debug HTTP surface: a liveness probe and
// a Prometheus scrape endpoint for a running runtime.Runtime, in the
// teacher's Register(gin.IRoutes)-per-resource style.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lindb/taskflow/pkg/logger"
)

var log = logger.GetLogger("runtime", "api")

// Resource registers its routes onto a gin router.
type Resource interface {
	Register(route gin.IRoutes)
}

// Server is a minimal gin-backed HTTP server hosting one or more debug
// Resources. It never touches the runtime.Runtime it describes directly;
// callers wire a HealthAPI/MetricsAPI (or their own Resource) against it.
type Server struct {
	httpSrv *http.Server
	engine  *gin.Engine
}

// NewServer builds a Server listening on addr and registers every
// resource's routes against it.
func NewServer(addr string, resources ...Resource) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	for _, r := range resources {
		r.Register(engine)
	}
	return &Server{
		engine:  engine,
		httpSrv: &http.Server{Addr: addr, Handler: engine},
	}
}

// Start listens and serves until ctx is canceled or Shutdown is called,
// returning any error other than http.ErrServerClosed.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpSrv.Addr)
	if err != nil {
		return fmt.Errorf("api: listening on %s: %w", s.httpSrv.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("debug http server starting", logger.String("addr", ln.Addr().String()))
		errCh <- s.httpSrv.Serve(ln)
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("debug http server stopping")
	return s.httpSrv.Shutdown(ctx)
}

// Addr returns the server's configured listen address.
func (s *Server) Addr() string { return s.httpSrv.Addr }
