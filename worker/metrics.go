// Copyright 2021 gorse Project Authors
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

package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	LabelStep = "step"
)

var (
	InteractionsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hybrid",
		Subsystem: "worker",
		Name:      "interactions_total",
	})
	UsersTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hybrid",
		Subsystem: "worker",
		Name:      "users_total",
	})
	ItemsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hybrid",
		Subsystem: "worker",
		Name:      "items_total",
	})
	RecommendationsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hybrid",
		Subsystem: "worker",
		Name:      "recommendations_total",
	})
	CollaborativeFilteringRank = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hybrid",
		Subsystem: "worker",
		Name:      "collaborative_filtering_rank",
	})
	RecommendStepSecondsVec = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "hybrid",
		Subsystem: "worker",
		Name:      "recommend_step_seconds",
	}, []string{LabelStep})
	RecommendTotalSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "hybrid",
		Subsystem: "worker",
		Name:      "recommend_total_seconds",
	})
)
