// Package promtest finds metrics in gathered or scraped prometheus output.
// It is meant for tests only.
package promtest

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// FromHTTPResponse decodes every metric family in a /metrics response,
// using the response headers to pick the exposition format. The body is
// always closed.
func FromHTTPResponse(r *http.Response) ([]*dto.MetricFamily, error) {
	defer r.Body.Close()

	dec := expfmt.NewDecoder(r.Body, expfmt.ResponseFormat(r.Header))

	var mfs []*dto.MetricFamily
	for {
		mf := &dto.MetricFamily{}
		err := dec.Decode(mf)
		if errors.Is(err, io.EOF) {
			return mfs, nil
		}
		if err != nil {
			return nil, err
		}
		mfs = append(mfs, mf)
	}
}

// MustGather gathers g, failing tb on error.
func MustGather(tb testing.TB, g prometheus.Gatherer) []*dto.MetricFamily {
	tb.Helper()

	mfs, err := g.Gather()
	if err != nil {
		tb.Fatalf("gathering metrics: %v", err)
	}
	return mfs
}

// FindMetric returns the metric of family name whose label set is exactly
// labels, or nil.
func FindMetric(mfs []*dto.MetricFamily, name string, labels map[string]string) *dto.Metric {
	_, m := find(mfs, name, labels)
	return m
}

// MustFindMetric is FindMetric that fails tb, listing what was available,
// when nothing matches.
func MustFindMetric(tb testing.TB, mfs []*dto.MetricFamily, name string, labels map[string]string) *dto.Metric {
	tb.Helper()

	fam, m := find(mfs, name, labels)
	switch {
	case fam == nil:
		names := make([]string, 0, len(mfs))
		for _, mf := range mfs {
			names = append(names, mf.GetName())
		}
		sort.Strings(names)
		tb.Fatalf("no metric family %q; have:\n\t%s", name, strings.Join(names, "\n\t"))
	case m == nil:
		sets := make([]string, 0, len(fam.Metric))
		for _, m := range fam.Metric {
			sets = append(sets, labelString(m))
		}
		tb.Fatalf("metric family %q has no series with labels %v; have:\n\t%s", name, labels, strings.Join(sets, "\n\t"))
	}
	return m
}

// MustCounterValue returns the value of the matching counter.
func MustCounterValue(tb testing.TB, mfs []*dto.MetricFamily, name string, labels map[string]string) float64 {
	tb.Helper()
	return MustFindMetric(tb, mfs, name, labels).GetCounter().GetValue()
}

// MustHistogramCount returns the sample count of the matching histogram.
func MustHistogramCount(tb testing.TB, mfs []*dto.MetricFamily, name string, labels map[string]string) uint64 {
	tb.Helper()
	return MustFindMetric(tb, mfs, name, labels).GetHistogram().GetSampleCount()
}

func find(mfs []*dto.MetricFamily, name string, labels map[string]string) (*dto.MetricFamily, *dto.Metric) {
	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.Metric {
			if labelsEqual(m, labels) {
				return mf, m
			}
		}
		return mf, nil
	}
	return nil, nil
}

func labelsEqual(m *dto.Metric, labels map[string]string) bool {
	if len(m.Label) != len(labels) {
		return false
	}
	for _, l := range m.Label {
		if v, ok := labels[l.GetName()]; !ok || v != l.GetValue() {
			return false
		}
	}
	return true
}

func labelString(m *dto.Metric) string {
	pairs := make([]string, len(m.Label))
	for i, l := range m.Label {
		pairs[i] = fmt.Sprintf("%s=%q", l.GetName(), l.GetValue())
	}
	return "{" + strings.Join(pairs, ", ") + "}"
}
