package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu         sync.Mutex
	registered bool
	collectors []prometheus.Collector
)

// register queues collectors from each file's init.
func register(cs ...prometheus.Collector) {
	mu.Lock()
	defer mu.Unlock()
	collectors = append(collectors, cs...)
}

// MustRegister adds the queued collectors to the default registry.
// Later calls are no-ops so tests and subcommands can call it freely.
func MustRegister() {
	MustRegisterTo(prometheus.DefaultRegisterer)
}

func MustRegisterTo(r prometheus.Registerer) {
	mu.Lock()
	defer mu.Unlock()
	if registered {
		return
	}
	r.MustRegister(collectors...)
	registered = true
}
