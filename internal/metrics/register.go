package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/docrag/internal/version"
)

const namespace = "docrag"

// buildInfo is a constant 1 labelled with the running build.
var buildInfo = prometheus.NewGaugeFunc(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "build_info",
		Help:      "Build metadata of the running docrag binary.",
		ConstLabels: prometheus.Labels{
			"version": version.Version,
			"commit":  version.Commit,
		},
	},
	func() float64 { return 1 },
)

var buildGroup = newGroup(buildInfo)

// group registers its collectors with the default registry on first use only,
// so tests and main can both call the Register functions.
type group struct {
	once       sync.Once
	collectors []prometheus.Collector
}

func newGroup(cs ...prometheus.Collector) *group {
	return &group{collectors: cs}
}

func (g *group) register() {
	g.once.Do(func() { prometheus.MustRegister(g.collectors...) })
}

// RegisterAll registers every docrag metric group.
func RegisterAll() {
	buildGroup.register()
	RegisterHTTPMetrics()
	RegisterEmbeddingMetrics()
	RegisterLLMMetrics()
	RegisterQueryMetrics()
}
