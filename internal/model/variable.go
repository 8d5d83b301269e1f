package model

import "fmt"

// Kind of decision variable.
type VarKind int

const (
	Binary VarKind = iota
	Integer
)

// A named decision variable with inclusive bounds. Binary variables
// always carry bounds [0, 1].
type Variable struct {
	Name  string
	Kind  VarKind
	Lower float64
	Upper float64
}

// Canonical name for an edge variable: travel on arc (i, j).
func EdgeVarName(i, j int) string { return fmt.Sprintf("x_%d_%d", i, j) }

// Canonical name for an ordering auxiliary variable at location i.
func OrderVarName(i int) string { return fmt.Sprintf("u_%d", i) }

// Canonical name for a step variable: vehicle k at location i on step s.
func StepVarName(k, i, s int) string { return fmt.Sprintf("x_%d_%d_%d", k, i, s) }
