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

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/lindb/taskflow/config"
	"github.com/lindb/taskflow/internal/api"
	"github.com/lindb/taskflow/internal/scenario/builtin"
	"github.com/lindb/taskflow/pkg/logger"
	"github.com/lindb/taskflow/runtime"
)

var (
	inputFlag string
	debugAddr string
)

// scenarioInput is the --input document's shape: a "runtime" key
// (required) and an optional scenario-specific "test" key, per §6.
type scenarioInput struct {
	Runtime json.RawMessage `json:"runtime"`
	Test    json.RawMessage `json:"test"`
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "taskflowctl <group.subgroup.scenario>",
		Short:        "run one test scenario against a configured runtime",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         runScenario,
	}
	root.Flags().StringVar(&inputFlag, "input", "", "JSON object with a \"runtime\" key and an optional \"test\" key")
	root.Flags().StringVar(&debugAddr, "debug-addr", "", "optional address to serve /healthz and /metrics on while the scenario runs")
	_ = root.MarkFlagRequired("input")
	return root
}

func runScenario(_ *cobra.Command, args []string) error {
	path := args[0]
	log := logger.GetLogger("taskflowctl", path)

	var in scenarioInput
	if err := json.Unmarshal([]byte(inputFlag), &in); err != nil {
		return fmt.Errorf("taskflowctl: decoding --input: %w", err)
	}
	if len(in.Runtime) == 0 {
		return fmt.Errorf("taskflowctl: --input is missing its \"runtime\" key")
	}

	var rtCfg config.Runtime
	if err := json.Unmarshal(in.Runtime, &rtCfg); err != nil {
		return fmt.Errorf("taskflowctl: decoding runtime configuration: %w", err)
	}
	if err := rtCfg.Validate(); err != nil {
		return fmt.Errorf("taskflowctl: invalid runtime configuration: %w", err)
	}

	s, err := builtin.Root().Find(path)
	if err != nil {
		return fmt.Errorf("taskflowctl: %w", err)
	}

	reg := prometheus.NewRegistry()
	builder := runtime.NewBuilder()
	for _, engineCfg := range rtCfg.EngineConfigs() {
		engineCfg.Registerer = reg
		builder = builder.AddEngine(engineCfg)
	}
	rt, err := builder.Build()
	if err != nil {
		return fmt.Errorf("taskflowctl: building runtime: %w", err)
	}
	defer rt.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if debugAddr != "" {
		debugSrv := api.NewServer(debugAddr, api.NewHealthAPI(), api.NewMetricsAPI(reg))
		debugCtx, stopDebug := context.WithCancel(context.Background())
		defer stopDebug()
		go func() {
			if srvErr := debugSrv.Start(debugCtx); srvErr != nil {
				log.Error("debug http server failed", logger.Error(srvErr))
			}
		}()
	}

	log.Info("running scenario")
	if runErr := s.Run(ctx, rt, in.Test); runErr != nil {
		log.Error("scenario failed", logger.Error(runErr))
		return fmt.Errorf("taskflowctl: scenario %q failed: %w", path, runErr)
	}
	log.Info("scenario succeeded")
	return nil
}
