// Package metrics exposes Prometheus collectors for the pipeline.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	pagesFetchedTotal *prometheus.CounterVec
	booksTotal        *prometheus.CounterVec
	authorsTotal      *prometheus.CounterVec
	postsTotal        *prometheus.CounterVec
	gatedBooksTotal   prometheus.Counter

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		pagesFetchedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookspointer_pages_fetched_total",
				Help: "Total number of content pages fetched, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		booksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookspointer_books_total",
				Help: "Total number of books processed, labeled by terminal state.",
			},
			[]string{"state"},
		)

		authorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookspointer_authors_total",
				Help: "Total number of authors reconciled, labeled by action.",
			},
			[]string{"action"},
		)

		postsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookspointer_posts_total",
				Help: "Total number of publisher post attempts, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		gatedBooksTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "bookspointer_gated_books_total",
				Help: "Total number of books skipped because content is behind a login wall.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObservePageFetch increments the page fetch counter for the given outcome.
func ObservePageFetch(outcome string) {
	if pagesFetchedTotal != nil {
		pagesFetchedTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveBook increments the book counter for the given terminal state.
func ObserveBook(state string) {
	if booksTotal != nil {
		booksTotal.WithLabelValues(state).Inc()
	}
}

// ObserveAuthor increments the author counter for the given action.
func ObserveAuthor(action string) {
	if authorsTotal != nil {
		authorsTotal.WithLabelValues(action).Inc()
	}
}

// ObservePost increments the publisher post counter for the given outcome.
func ObservePost(outcome string) {
	if postsTotal != nil {
		postsTotal.WithLabelValues(outcome).Inc()
	}
}

// ObserveGatedBook increments the login-wall skip counter.
func ObserveGatedBook() {
	if gatedBooksTotal != nil {
		gatedBooksTotal.Inc()
	}
}
