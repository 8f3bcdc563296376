// Package orchestrator wires the requirements → schema → {tests, mock API}
// pipeline and keeps generated projects in an optional store. Every
// collaborator is injectable; New fills the gaps with the built-in parser,
// generators and html renderer so a single constructor call is enough.
package orchestrator
