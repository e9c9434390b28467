// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/stretchr/testify/require"

	"github.com/wordbank/wordbank/ranker"
	"github.com/wordbank/wordbank/store"
)

// BenchmarkStoreInsert uses a manual StartTimer/StopTimer around the
// operation under test, the same shape as a raft log append
// benchmark, and records each operation's latency into an
// HdrHistogram for percentile reporting.
func BenchmarkStoreInsert(b *testing.B) {
	thresholds := []int{0, 64}
	names := []string{"threshold=0", "threshold=64kb"}

	for i, threshold := range thresholds {
		b.Run(names[i], func(b *testing.B) {
			dir, err := os.MkdirTemp("", "wordbank-bench-*")
			require.NoError(b, err)
			defer os.RemoveAll(dir)

			inst, err := store.Open(dir, threshold)
			require.NoError(b, err)
			defer inst.Close()

			hist := hdrhistogram.New(1, 10_000_000, 3)

			b.ResetTimer()
			for n := 0; n < b.N; n++ {
				e := store.Entry{
					ID:                 store.NewID(),
					PostProcessingText: "benchmark entry text",
					Lang:               "en",
				}

				b.StartTimer()
				start := time.Now()
				err := inst.Insert(e)
				elapsed := time.Since(start).Microseconds()
				b.StopTimer()

				require.NoError(b, err)
				_ = hist.RecordValue(int64(elapsed))
			}

			b.ReportMetric(hist.Mean(), "mean-us/op")
			b.ReportMetric(float64(hist.ValueAtQuantile(99)), "p99-us/op")
		})
	}
}

// BenchmarkRankerSetAndRank measures the ranker's write and top-K read
// paths independently, the way an append benchmark and a read
// benchmark are kept separate for a log store.
func BenchmarkRankerSetAndRank(b *testing.B) {
	b.Run("Set", func(b *testing.B) {
		rk := ranker.New(nil)
		words := benchWords(1000)

		b.ResetTimer()
		for n := 0; n < b.N; n++ {
			rk.Set(words[n%len(words)])
		}
	})

	b.Run("Rank", func(b *testing.B) {
		rk := ranker.New(nil)
		for _, w := range benchWords(1000) {
			rk.Set(w)
		}

		b.ResetTimer()
		for n := 0; n < b.N; n++ {
			_ = rk.Rank(10)
		}
	})
}

func benchWords(n int) []string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("word%d", i%37)
	}
	return words
}

