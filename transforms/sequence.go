package transforms

// Transform is one pipeline stage. It must consume its
// input lazily and preserve the order of the jobs it
// yields.
type Transform func(cfg Config, jobs Jobs) Jobs

// Sequence composes transforms in insertion order.
type Sequence struct {
	stages []Transform
}

// Default returns the standard pipeline: image resolution
// followed by environment injection.
func Default() *Sequence {
	return new(Sequence).Add(ResolveImages, InjectEnv)
}

// Add appends stages to the sequence and returns it for
// chaining.
func (sq *Sequence) Add(tr ...Transform) *Sequence {
	sq.stages = append(sq.stages, tr...)

	return sq
}

// Len returns the number of stages.
func (sq *Sequence) Len() int {
	return len(sq.stages)
}

// Apply chains every stage over jobs. Nothing is pulled
// until the returned sequence is iterated.
func (sq *Sequence) Apply(cfg Config, jobs Jobs) Jobs {
	for _, tr := range sq.stages {
		jobs = tr(cfg, jobs)
	}

	return jobs
}
