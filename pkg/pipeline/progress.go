package pipeline

import (
	"fmt"
	"io"
	"sync"

	"github.com/beetlebugorg/shpdump/internal/feature"
)

// Progress observes a run. Calls for different feature-types may arrive
// concurrently when Options.Parallel is set.
type Progress interface {
	// TypeStarted is called once the schema of a feature-type is known.
	TypeStarted(typeName string, schema *feature.Schema)
	// Feature is called for every feature read, kept or not. n counts from 1.
	Feature(typeName string, n int, f feature.Feature)
	// TypeFinished reports the number of features read.
	TypeFinished(typeName string, count int)
}

const (
	echoFeatures  = 2
	echoMaxValue  = 100
	progressEvery = 100
)

// ConsoleProgress prints the first features of each type in full and a dot
// for every hundredth one after that.
type ConsoleProgress struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleProgress returns a Progress writing to w.
func NewConsoleProgress(w io.Writer) *ConsoleProgress {
	return &ConsoleProgress{w: w}
}

func (p *ConsoleProgress) TypeStarted(typeName string, schema *feature.Schema) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "\nType: %s\n", typeName)
	for _, f := range schema.Fields {
		fmt.Fprintf(p.w, "Attribute: %s\n", f.Name)
	}
}

func (p *ConsoleProgress) Feature(typeName string, n int, f feature.Feature) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case n <= echoFeatures:
		fmt.Fprintf(p.w, "\n%s\n", f.ID())
		for i, field := range f.Schema().Fields {
			fmt.Fprintf(p.w, "%s=%s\n", field.Name, clip(f.Value(i).String()))
		}
	case n%progressEvery == 0:
		fmt.Fprint(p.w, ".")
	}
}

func (p *ConsoleProgress) TypeFinished(typeName string, count int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if count > progressEvery {
		fmt.Fprintln(p.w)
	}
	fmt.Fprintf(p.w, "\nFeature count: %d\n", count)
}

func clip(s string) string {
	r := []rune(s)
	if len(r) <= echoMaxValue {
		return s
	}
	return string(r[:echoMaxValue]) + "..."
}
