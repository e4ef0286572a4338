// Package compiler provides a C-subset lexer, parser, and code generator
// that targets VHDL entity/architecture pairs.
//
// Pipeline: C source → Lex → Parse → (Prune) → Generate → VHDL text
//
// Each C function becomes one entity with clk/reset inputs, one input port
// per parameter and a result output, plus an architecture holding a single
// clocked process. Structs become records.
package compiler
