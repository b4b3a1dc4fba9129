package health

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/prometheus/common/expfmt"
)

const metricsNamespace = "goprofile"

// Recorder exports health reports as Prometheus metrics on its own
// registry.
type Recorder struct {
	reg        *prometheus.Registry
	confidence *prometheus.GaugeVec
	items      *prometheus.GaugeVec
	status     *prometheus.GaugeVec
	reports    *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		reg: reg,
		confidence: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "section_confidence",
			Help:      "Average extraction confidence of the last run per section",
		}, []string{"section", "extractor"}),
		items: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "section_items",
			Help:      "Items extracted in the last run per section",
		}, []string{"section"}),
		status: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "section_status",
			Help:      "1 for the current health status of a section, 0 otherwise",
		}, []string{"section", "status"}),
		reports: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "section_reports_total",
			Help:      "Health reports produced per section and status",
		}, []string{"section", "status"}),
	}
}

// Registry exposes the recorder's registry for gathering or serving.
func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

// Observe records one report.
func (r *Recorder) Observe(rep Report) {
	r.confidence.DeletePartialMatch(prometheus.Labels{"section": rep.Section})
	r.confidence.WithLabelValues(rep.Section, rep.TextExtractorUsed).Set(rep.Confidence)
	r.items.WithLabelValues(rep.Section).Set(float64(rep.ItemCount))
	for _, s := range []Status{Healthy, Degraded, Broken} {
		v := 0.0
		if s == rep.Status {
			v = 1
		}
		r.status.WithLabelValues(rep.Section, string(s)).Set(v)
	}
	r.reports.WithLabelValues(rep.Section, string(rep.Status)).Inc()
}

// WriteTextfile writes the current metrics in the text exposition format,
// suitable for the node exporter textfile collector. The file is replaced
// atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if path == "" {
		return errors.New("metrics file path is empty")
	}
	families, err := r.reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create metrics file: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			f.Close()
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Push sends the current metrics to a Pushgateway under job.
func (r *Recorder) Push(ctx context.Context, gatewayURL, job string) error {
	if gatewayURL == "" {
		return errors.New("pushgateway url is empty")
	}
	if err := push.New(gatewayURL, job).Gatherer(r.reg).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}
