// Copyright 2025 gorse Project Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gorse-io/hybrid/base/log"
	"github.com/gorse-io/hybrid/cmd/version"
	"github.com/gorse-io/hybrid/config"
	"github.com/gorse-io/hybrid/worker"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var recommendCommand = &cobra.Command{
	Use:   "hybrid-recommend",
	Short: "Compute hybrid recommendations for all users and replace stored recommendations.",
	Run: func(cmd *cobra.Command, args []string) {
		// Show version
		if showVersion, _ := cmd.PersistentFlags().GetBool("version"); showVersion {
			fmt.Println(version.BuildInfo())
			return
		}

		// setup logger
		debug, _ := cmd.PersistentFlags().GetBool("debug")
		log.SetLogger(cmd.PersistentFlags(), debug)
		otel.SetErrorHandler(log.GetErrorHandler())

		// load config
		configPath, _ := cmd.PersistentFlags().GetString("config")
		log.Logger().Info("load config", zap.String("config", configPath))
		conf, err := config.LoadConfig(configPath)
		if err != nil {
			log.Logger().Fatal("failed to load config", zap.Error(err))
		}

		// connect stores
		ctx := context.Background()
		dataClient, err := OpenDataStore(ctx, &conf.Database)
		if err != nil {
			log.Logger().Fatal("failed to connect data store", zap.Error(err),
				zap.String("database", log.RedactDBURL(conf.Database.DataStore)))
		}
		defer dataClient.Close()
		cacheClient, err := OpenCacheStore(&conf.Database)
		if err != nil {
			log.Logger().Fatal("failed to connect cache store", zap.Error(err),
				zap.String("database", log.RedactDBURL(conf.Database.CacheStore)))
		}
		defer cacheClient.Close()
		metaClient, err := OpenMetaStore(&conf.Database)
		if err != nil {
			log.Logger().Fatal("failed to connect meta store", zap.Error(err),
				zap.String("database", conf.Database.MetaStore))
		}
		if metaClient != nil {
			defer metaClient.Close()
		}

		// run pipeline
		dryRun, _ := cmd.PersistentFlags().GetBool("dry-run")
		pipeline := &worker.Pipeline{
			Config:      conf,
			DataClient:  dataClient,
			CacheClient: cacheClient,
			MetaClient:  metaClient,
			DryRun:      dryRun,
		}
		result, err := pipeline.Run(ctx)
		if err != nil {
			log.Logger().Fatal("failed to recommend", zap.Error(err))
		}
		if dryRun {
			if err = PrintRecommendations(os.Stdout, result.Recommendations); err != nil {
				log.Logger().Fatal("failed to print recommendations", zap.Error(err))
			}
		}

		// write metrics
		if metricsFile, _ := cmd.PersistentFlags().GetString("metrics-file"); metricsFile != "" {
			if err = prometheus.WriteToTextfile(metricsFile, prometheus.DefaultGatherer); err != nil {
				log.Logger().Fatal("failed to write metrics", zap.Error(err), zap.String("path", metricsFile))
			}
		}
	},
}

func init() {
	log.AddFlags(recommendCommand.PersistentFlags())
	recommendCommand.PersistentFlags().Bool("debug", false, "use debug log mode")
	recommendCommand.PersistentFlags().BoolP("version", "v", false, "hybrid-recommend version")
	recommendCommand.PersistentFlags().StringP("config", "c", "", "configuration file path")
	recommendCommand.PersistentFlags().Bool("dry-run", false, "compute recommendations and print them without writing")
	recommendCommand.PersistentFlags().String("metrics-file", "", "path of the file to write metrics to after the run")
}

func main() {
	if err := recommendCommand.Execute(); err != nil {
		log.Logger().Fatal("failed to execute", zap.Error(err))
	}
}
