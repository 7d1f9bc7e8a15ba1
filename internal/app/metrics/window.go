// Package metrics lleva la tasa de errores de las interacciones en ventanas de 5 minutos.
package metrics

import (
	"sort"
	"sync"
	"time"
)

const (
	WindowSize = 5 * time.Minute
	// buckets más viejos que esto se descartan
	retention = 15 * time.Minute
	// cada cuántas muestras se limpia
	cleanupEvery = 50
	// muestras mínimas antes de evaluar el umbral
	MinSamples = 10
	topN       = 5
)

type bucket struct {
	requests int
	errors   int
}

// Counter es una entrada de los rankings de errores.
type Counter struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Metrics es la foto que muestran /metrics y el endpoint HTTP.
type Metrics struct {
	ErrorRate        float64   `json:"errorRate"`
	TotalRequests    int       `json:"totalRequests"`
	TotalErrors      int       `json:"totalErrors"`
	WindowMinutes    int       `json:"windowMinutes"`
	TopErrorCommands []Counter `json:"topErrorCommands"`
	TopErrorTypes    []Counter `json:"topErrorTypes"`
}

type Window struct {
	mu              sync.Mutex
	buckets         map[int64]*bucket
	errorsByCommand map[string]int
	errorsByType    map[string]int
	now             func() time.Time
}

func NewWindow() *Window {
	return &Window{
		buckets:         map[int64]*bucket{},
		errorsByCommand: map[string]int{},
		errorsByType:    map[string]int{},
		now:             time.Now,
	}
}

func (w *Window) key(t time.Time) int64 { return t.UnixMilli() / WindowSize.Milliseconds() }

// Record suma una muestra al bucket actual.
func (w *Window) Record(isError bool, command, errType string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	k := w.key(w.now())
	b := w.buckets[k]
	if b == nil {
		b = &bucket{}
		w.buckets[k] = b
	}
	b.requests++
	if isError {
		b.errors++
		if command == "" {
			command = "unknown"
		}
		if errType == "" {
			errType = "unknown"
		}
		w.errorsByCommand[command]++
		w.errorsByType[errType]++
	}
	if b.requests%cleanupEvery == 0 {
		w.cleanupLocked(k)
	}
}

func (w *Window) cleanupLocked(current int64) {
	oldest := current - int64(retention/WindowSize)
	for k := range w.buckets {
		if k < oldest {
			delete(w.buckets, k)
		}
	}
}

func (w *Window) current() bucket {
	if b := w.buckets[w.key(w.now())]; b != nil {
		return *b
	}
	return bucket{}
}

// ErrorRate es el porcentaje (0-100) de errores del bucket actual.
func (w *Window) ErrorRate() float64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return rate(w.current())
}

func rate(b bucket) float64 {
	if b.requests == 0 {
		return 0
	}
	return float64(b.errors) / float64(b.requests) * 100
}

func (w *Window) RequestCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current().requests
}

func (w *Window) ErrorCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current().errors
}

// CheckErrorThreshold es true cuando hay muestras suficientes y la tasa supera el umbral.
func (w *Window) CheckErrorThreshold(threshold float64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	b := w.current()
	if b.requests < MinSamples {
		return false
	}
	return rate(b) > threshold
}

func (w *Window) Snapshot() Metrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	b := w.current()
	return Metrics{
		ErrorRate:        rate(b),
		TotalRequests:    b.requests,
		TotalErrors:      b.errors,
		WindowMinutes:    int(WindowSize / time.Minute),
		TopErrorCommands: top(w.errorsByCommand),
		TopErrorTypes:    top(w.errorsByType),
	}
}

func top(m map[string]int) []Counter {
	out := make([]Counter, 0, len(m))
	for k, v := range m {
		out = append(out, Counter{Name: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

func (w *Window) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buckets = map[int64]*bucket{}
	w.errorsByCommand = map[string]int{}
	w.errorsByType = map[string]int{}
}
