// Copyright 2026 Foreman Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes Prometheus counters and histograms for
// workflow runs, worker steps, and provider calls.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	workflowRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foreman_workflow_runs_total",
			Help: "Total workflow runs by task kind and outcome status",
		},
		[]string{"kind", "status"},
	)

	workflowDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foreman_workflow_duration_seconds",
			Help:    "Workflow run duration by task kind",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
		[]string{"kind"},
	)

	workerSteps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foreman_worker_steps_total",
			Help: "Total worker step executions by worker and outcome status",
		},
		[]string{"worker", "status"},
	)

	providerRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "foreman_provider_retries_total",
			Help: "Total provider retry attempts by provider",
		},
		[]string{"provider"},
	)

	classifierFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "foreman_classifier_fallbacks_total",
			Help: "Total intent classifications that fell back to free-form handling",
		},
	)

	loopIterations = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "foreman_loop_iterations",
			Help:    "Critique iterations per loop workflow run",
			Buckets: []float64{1, 2, 3, 4, 5, 8, 13},
		},
		[]string{"workflow"},
	)
)

// RecordWorkflowRun records one completed workflow run.
func RecordWorkflowRun(kind, status string, duration time.Duration) {
	workflowRuns.WithLabelValues(kind, status).Inc()
	workflowDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordWorkerStep records one worker step execution.
func RecordWorkerStep(worker, status string) {
	workerSteps.WithLabelValues(worker, status).Inc()
}

// RecordProviderRetry increments the retry counter for a provider.
func RecordProviderRetry(provider string) {
	providerRetries.WithLabelValues(provider).Inc()
}

// RecordClassifierFallback counts a low-confidence classification that
// was routed to the free-form workflow.
func RecordClassifierFallback() {
	classifierFallbacks.Inc()
}

// RecordLoopIterations records how many critique rounds a loop run took.
func RecordLoopIterations(workflow string, iterations int) {
	loopIterations.WithLabelValues(workflow).Observe(float64(iterations))
}
