// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package ttl

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	registered prometheus.Counter
	expired    prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		registered: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "wordbank_ttl_registered_total",
			Help: "wordbank_ttl_registered_total counts calls to Register.",
		}),
		expired: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "wordbank_ttl_expired_total",
			Help: "wordbank_ttl_expired_total counts entries actually expired (found and deleted).",
		}),
	}
}
