// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package ranker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	wordsSet     prometheus.Counter
	wordsRemoved prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		wordsSet: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "wordbank_ranker_words_set_total",
			Help: "wordbank_ranker_words_set_total counts calls to Set, one per counted word occurrence.",
		}),
		wordsRemoved: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "wordbank_ranker_words_removed_total",
			Help: "wordbank_ranker_words_removed_total counts calls to Remove that found a matching word.",
		}),
	}
}
