package model

// Job asks the worker pool to evaluate one source.
type Job struct {
	ID     string // uuid assigned at submission
	Index  int    // position of Source in the request
	Source string // file path, or "-" for stdin
}
