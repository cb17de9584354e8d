// Package bytecode is the instruction format that drives the associative
// variable subsystem.
//
// A Chunk holds code, a pool of string constants and the names of the
// variables the code addresses by slot. Chunks travel either in the compact
// binary "UDSB" layout (Serialize/Deserialize) or as canonical CBOR
// (MarshalChunk/UnmarshalChunk); Load accepts both.
//
// # Instructions
//
// Operands produce values:
//
//	STR <const>     string literal
//	INT <i32>       integer literal
//	NUM <const>     numeric literal, kept as decimal text in the pool
//	ARRAY <n>       array of the n operands that follow
//	LEN <operand>   element count of a hash or array, length of a string
//	VAR <slot> ...  copy of a variable, optionally followed by a chain
//
// A variable reference is VAR followed by any mix of
//
//	FIELD STR <const>   nested field: a.b
//	KEY <operand>       keyed access: a(key)
//
// Statements consume references and operands:
//
//	LET <reference> <operand>
//	PRINT <operand>
//	CLEAR <reference>
//	ERASE <reference>
//
// Field chains are resolved by variant.ResolveLimit reading straight from a
// Cursor, which implements variant.Cursor.
//
// Assemble turns a mnemonic listing into a chunk, which is how the CLI and
// the tests build programs without a source compiler.
package bytecode
