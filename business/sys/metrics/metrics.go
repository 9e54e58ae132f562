// Package metrics constructs the Prometheus collectors for the node. The
// state package reports block and transaction verdicts through it and the
// web middleware reports request counts.
package metrics

import (
	"runtime"
	"time"

	"github.com/btpc/blockchain/foundation/blockchain/consensus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "btpc"

// Metrics holds the set of collectors the node maintains.
type Metrics struct {
	requests   prometheus.Counter
	errors     prometheus.Counter
	panics     prometheus.Counter
	goroutines prometheus.GaugeFunc

	blocksAccepted  prometheus.Counter
	blocksRejected  *prometheus.CounterVec
	height          prometheus.Gauge
	blockTxs        prometheus.Histogram
	blockValidation prometheus.Histogram

	txAdmitted  prometheus.Counter
	txRejected  *prometheus.CounterVec
	mempoolSize prometheus.Gauge
}

// New registers the collectors with the provided registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := Metrics{
		requests: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "Number of API requests handled.",
		}),
		errors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "errors_total",
			Help: "Number of API requests that returned an error.",
		}),
		panics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "panics_total",
			Help: "Number of API requests that panicked.",
		}),
		goroutines: factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace, Name: "goroutines",
			Help: "Number of running goroutines.",
		}, func() float64 { return float64(runtime.NumGoroutine()) }),

		blocksAccepted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "chain", Name: "blocks_accepted_total",
			Help: "Number of blocks validated and applied.",
		}),
		blocksRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "chain", Name: "blocks_rejected_total",
			Help: "Number of blocks rejected by error kind.",
		}, []string{"kind"}),
		height: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "chain", Name: "height",
			Help: "Height of the chain tip.",
		}),
		blockTxs: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "chain", Name: "block_transactions",
			Help:    "Transactions per accepted block.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		blockValidation: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "chain", Name: "block_validation_seconds",
			Help:    "Time spent validating and applying a block.",
			Buckets: prometheus.DefBuckets,
		}),

		txAdmitted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "mempool", Name: "tx_admitted_total",
			Help: "Number of transactions admitted to the mempool.",
		}),
		txRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "mempool", Name: "tx_rejected_total",
			Help: "Number of transactions rejected by error kind.",
		}, []string{"kind"}),
		mempoolSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "mempool", Name: "size",
			Help: "Number of transactions waiting in the mempool.",
		}),
	}

	return &m
}

// =============================================================================

// AddRequests increments the request count.
func (m *Metrics) AddRequests() {
	m.requests.Inc()
}

// AddErrors increments the error count.
func (m *Metrics) AddErrors() {
	m.errors.Inc()
}

// AddPanics increments the panic count.
func (m *Metrics) AddPanics() {
	m.panics.Inc()
}

// =============================================================================

// BlockAccepted records a block applied at the specified height.
func (m *Metrics) BlockAccepted(height uint64, txs int, took time.Duration) {
	m.blocksAccepted.Inc()
	m.height.Set(float64(height))
	m.blockTxs.Observe(float64(txs))
	m.blockValidation.Observe(took.Seconds())
}

// BlockRejected records a block verdict other than acceptance.
func (m *Metrics) BlockRejected(reason error) {
	_, kind := consensus.Kind(reason)
	m.blocksRejected.WithLabelValues(kind).Inc()
}

// TxAdmitted records a transaction entering the mempool.
func (m *Metrics) TxAdmitted(mempoolSize int) {
	m.txAdmitted.Inc()
	m.mempoolSize.Set(float64(mempoolSize))
}

// TxRejected records a transaction refused by the mempool.
func (m *Metrics) TxRejected(reason error) {
	_, kind := consensus.Kind(reason)
	m.txRejected.WithLabelValues(kind).Inc()
}

// MempoolSize records the mempool length after blocks remove mined
// transactions.
func (m *Metrics) MempoolSize(n int) {
	m.mempoolSize.Set(float64(n))
}
