package bolt

import (
	"github.com/prometheus/client_golang/prometheus"
	bolt "go.etcd.io/bbolt"
)

var _ prometheus.Collector = (*KVStore)(nil)

var (
	kvWritesDesc = prometheus.NewDesc(
		"boltdb_writes_total",
		"Total number of boltdb writes",
		nil, nil)

	kvReadsDesc = prometheus.NewDesc(
		"boltdb_reads_total",
		"Total number of boltdb reads",
		nil, nil)

	kvKeysDesc = prometheus.NewDesc(
		"boltdb_keys_total",
		"Number of keys in each boltdb bucket",
		[]string{"bucket"}, nil)
)

// Describe returns all descriptions of the collector.
func (s *KVStore) Describe(ch chan<- *prometheus.Desc) {
	ch <- kvWritesDesc
	ch <- kvReadsDesc
	ch <- kvKeysDesc
}

// Collect returns the current state of all metrics of the collector.
// Nothing is reported while the store is closed.
func (s *KVStore) Collect(ch chan<- prometheus.Metric) {
	db, err := s.bolt()
	if err != nil {
		return
	}

	stats := db.Stats()
	ch <- prometheus.MustNewConstMetric(
		kvReadsDesc,
		prometheus.CounterValue,
		float64(stats.TxN),
	)

	ch <- prometheus.MustNewConstMetric(
		kvWritesDesc,
		prometheus.CounterValue,
		float64(stats.TxStats.Write),
	)

	_ = db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			ch <- prometheus.MustNewConstMetric(
				kvKeysDesc,
				prometheus.GaugeValue,
				float64(b.Stats().KeyN),
				string(name),
			)
			return nil
		})
	})
}
