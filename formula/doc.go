// Package formula defines the temporal-logic formula AST consumed by the checker.
//
// The AST is a closed sum type: every node implements the unexported isFormula
// marker, so the set of node kinds is fixed and consumers can switch over it
// exhaustively. Parsing a surface syntax into this AST is left to callers.
//
// # Node kinds
//
//   - Constants and atoms: True, False, Proposition, Reference, Location
//   - Boolean connectives: Not, And, Or, Implies, Equals
//   - Temporal operators: Next, Future, Globally, Until (existential or universal,
//     future or past time flow, optional direction restriction)
//   - Hybrid and first-order binders: Bind, At, AtState, Exists, Forall
//
// Every formula has a canonical textual key (Key) used to memoize evaluation of
// structurally identical sub-formulas. Normalize removes derived connectives and
// domain restrictions; Substitute resolves a bound state variable to a concrete state.
package formula
