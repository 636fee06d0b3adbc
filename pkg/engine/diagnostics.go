package engine

import "github.com/raykavin/signalrun/pkg/simulator"

// Diagnostics explains where bars, candidates and signals were dropped
type Diagnostics struct {
	Bars                int            `json:"bars"`
	Evaluated           int            `json:"evaluated"`
	Candidates          int            `json:"candidates"`
	PersistenceRejected int            `json:"persistence_rejected"`
	FilterRejected      map[string]int `json:"filter_rejected"`
	ContextDefaults     int            `json:"context_defaults"`
	Signals             int            `json:"signals"`

	Simulation simulator.Diagnostics `json:"simulation"`
}

func newDiagnostics() *Diagnostics {
	return &Diagnostics{FilterRejected: make(map[string]int)}
}

// Add merges the counters of another run
func (d *Diagnostics) Add(other Diagnostics) {
	d.Bars += other.Bars
	d.Evaluated += other.Evaluated
	d.Candidates += other.Candidates
	d.PersistenceRejected += other.PersistenceRejected
	d.ContextDefaults += other.ContextDefaults
	d.Signals += other.Signals
	d.Simulation.Add(other.Simulation)

	if d.FilterRejected == nil {
		d.FilterRejected = make(map[string]int)
	}
	for name, count := range other.FilterRejected {
		d.FilterRejected[name] += count
	}
}
