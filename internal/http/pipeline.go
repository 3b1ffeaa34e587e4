package httpx

import "net/http"

// HandlerFunc is an http handler that reports failure by returning an error.
// Errors travel back through the stages to the ErrorBoundary.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Stage is one named step of the request pipeline.
type Stage struct {
	Name string
	Wrap func(next HandlerFunc) HandlerFunc
}

// Pipeline is an ordered list of stages. The first stage sees the request first.
type Pipeline struct {
	stages []Stage
}

// NewPipeline builds a pipeline from stages in execution order.
func NewPipeline(stages ...Stage) *Pipeline {
	return &Pipeline{stages: append([]Stage(nil), stages...)}
}

// Names returns the stage names in execution order.
func (p *Pipeline) Names() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Then wraps h with every stage so that stages run in order before h.
func (p *Pipeline) Then(h HandlerFunc) HandlerFunc {
	for i := len(p.stages) - 1; i >= 0; i-- {
		h = p.stages[i].Wrap(h)
	}
	return h
}
