package main

// CLIResult is the top-level JSON envelope for all commands.
type CLIResult struct {
	Command string `json:"command"`
	Results any    `json:"results"`
	Error   string `json:"error,omitempty"`
}

// CLIEvaluation is the outcome for one script.
type CLIEvaluation struct {
	File        string          `json:"file"`
	Status      string          `json:"status"`
	Reason      string          `json:"reason,omitempty"`
	Skipped     bool            `json:"skipped,omitempty"`
	Value       any             `json:"value,omitempty"`
	Document    any             `json:"document,omitempty"`
	Diagnostics []CLIDiagnostic `json:"diagnostics,omitempty"`
}

// CLIDiagnostic is one located problem.
type CLIDiagnostic struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// CLIClass is a JSON-friendly data class.
type CLIClass struct {
	Name       string        `json:"name"`
	Supertypes []string      `json:"supertypes,omitempty"`
	Properties []CLIProperty `json:"properties,omitempty"`
	Functions  []CLIFunction `json:"functions,omitempty"`
}

// CLIProperty is a JSON-friendly data property.
type CLIProperty struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	ReadOnly   bool   `json:"read_only,omitempty"`
	HasDefault bool   `json:"has_default,omitempty"`
}

// CLIFunction is a JSON-friendly schema function.
type CLIFunction struct {
	Signature string `json:"signature"`
	Semantics string `json:"semantics"`
}

// CLISchema is the output of the schema command.
type CLISchema struct {
	TopLevel    string        `json:"top_level"`
	Fingerprint string        `json:"fingerprint"`
	Classes     []CLIClass    `json:"classes"`
	Functions   []CLIFunction `json:"functions,omitempty"`
	Externals   []string      `json:"externals,omitempty"`
}

// CLIError is one stored script problem.
type CLIError struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Col    int    `json:"col"`
	Reason string `json:"reason"`
	Detail string `json:"detail,omitempty"`
}

// CLIAssignment is one stored traced assignment.
type CLIAssignment struct {
	File      string `json:"file"`
	Slot      string `json:"slot"`
	Assigned  bool   `json:"assigned"`
	Value     string `json:"value,omitempty"`
	ValueType string `json:"value_type,omitempty"`
}
