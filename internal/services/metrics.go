package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeSuccess   = "success"
	outcomeError     = "error"
	outcomeExhausted = "exhausted"
	outcomeCanceled  = "canceled"
)

var (
	modelCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vericv",
			Name:      "model_calls_total",
			Help:      "Calls to the generation endpoint by call kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	modelAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vericv",
			Name:      "model_attempts_total",
			Help:      "Individual HTTP attempts against the generation endpoint, retries included",
		},
		[]string{"kind"},
	)

	normalizerResultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vericv",
			Name:      "normalizer_results_total",
			Help:      "Model outputs seen by the normalizer by target, parse kind and repair stage",
		},
		[]string{"target", "kind", "stage"},
	)

	droppedQuestionsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "vericv",
			Name:      "normalizer_dropped_questions_total",
			Help:      "Generated questions rejected by shape validation",
		},
	)

	fallbackActivationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vericv",
			Name:      "fallback_activations_total",
			Help:      "Match requests answered by the heuristic matcher, by reason",
		},
		[]string{"reason"},
	)

	ocrDocumentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vericv",
			Name:      "ocr_documents_total",
			Help:      "Documents sent to optical character recognition by provider",
		},
		[]string{"provider"},
	)
)

func observeParse(target string, r ParseResult) {
	stage := string(r.Stage)
	if stage == "" {
		stage = "none"
	}
	normalizerResultsTotal.WithLabelValues(target, r.Kind.String(), stage).Inc()
}
