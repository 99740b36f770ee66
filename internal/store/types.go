package store

import "time"

// Document statuses.
const (
	StatusEvaluated    = "evaluated"
	StatusNotEvaluated = "not_evaluated"
)

type Document struct {
	ID          int64
	Path        string
	Hash        string
	Status      string
	Reason      string
	EvaluatedAt time.Time
}

type Import struct {
	ID         int64
	DocumentID int64
	FqName     string
	Line       int
	Col        int
}

type Failure struct {
	ID         int64
	DocumentID int64
	Kind       string
	Construct  string
	Line       int
	Col        int
	Text       string
}

type ResolutionError struct {
	ID         int64
	DocumentID int64
	Reason     string
	Detail     string
	Line       int
	Col        int
}

// Assignment is the traced result of one assigned property slot.
type Assignment struct {
	ID         int64
	DocumentID int64
	Slot       string
	Property   string
	Assigned   bool
	Value      string
	ValueType  string
}

type Addition struct {
	ID           int64
	DocumentID   int64
	Container    string
	Function     string
	InvocationID int64
	Line         int
	Col          int
}

// Evaluation bundles the rows written for one document.
type Evaluation struct {
	Document    Document
	Imports     []Import
	Failures    []Failure
	Errors      []ResolutionError
	Assignments []Assignment
	Additions   []Addition
}
