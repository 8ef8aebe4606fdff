package diag

import "sync"

// Sink accumulates Diagnostics for one compilation unit. Each phase holds
// a reference to the same Sink and never terminates on a recoverable
// error — it reports and continues (spec.md §7).
type Sink struct {
	mu   sync.Mutex
	diag []Diagnostic
}

// NewSink creates an empty diagnostic sink.
func NewSink() *Sink {
	return &Sink{}
}

// Report appends a Diagnostic.
func (s *Sink) Report(d Diagnostic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diag = append(s.diag, d)
}

// All returns every Diagnostic reported so far, in report order.
func (s *Sink) All() []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Diagnostic, len(s.diag))
	copy(out, s.diag)
	return out
}

// Warnings returns only Warning-severity Diagnostics.
func (s *Sink) Warnings() []Diagnostic {
	return s.filter(Warning)
}

// Errors returns only Error-severity Diagnostics.
func (s *Sink) Errors() []Diagnostic {
	return s.filter(Error)
}

func (s *Sink) filter(sev Severity) []Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Diagnostic
	for _, d := range s.diag {
		if d.Severity == sev {
			out = append(out, d)
		}
	}
	return out
}

// HasErrors reports whether any Error-severity Diagnostic was recorded.
func (s *Sink) HasErrors() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.diag {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Promote turns every currently-recorded warning with a promotable code
// (duplicate definitions, missing variables) into an error. Called when
// the compiler runs in --strict mode (spec.md §7).
func (s *Sink) Promote() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.diag {
		d := &s.diag[i]
		if d.Severity != Warning {
			continue
		}
		if d.Code == CodeDuplicateDef || d.Code == CodeMissingVar {
			d.Severity = Error
		}
	}
}
