package metrics

import (
	"fmt"
	"io"
	"sort"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// WriteText renders the registry in the Prometheus text exposition format,
// one family per metric, sorted by name.
func (r *Registry) WriteText(w io.Writer) error {
	snap := r.Snapshot()

	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if _, err := expfmt.MetricFamilyToText(w, family(name, snap[name])); err != nil {
			return fmt.Errorf("metrics: encode %q: %w", name, err)
		}
	}
	return nil
}

func family(name string, value int64) *dto.MetricFamily {
	v := float64(value)

	mf := &dto.MetricFamily{Name: &name}
	if gauges[MetricKey(name)] {
		mf.Type = dto.MetricType_GAUGE.Enum()
		mf.Metric = []*dto.Metric{{Gauge: &dto.Gauge{Value: &v}}}
		return mf
	}

	mf.Type = dto.MetricType_COUNTER.Enum()
	mf.Metric = []*dto.Metric{{Counter: &dto.Counter{Value: &v}}}
	return mf
}
