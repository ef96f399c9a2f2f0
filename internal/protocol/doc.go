// Package protocol owns the PRT-7 line grammar.
//
// Ownership boundary:
// - control markers (start "I", end "FIN")
// - frame grammar ("L,<byte>" and "M,[-]<digits>")
// - parse errors
//
// Line framing (terminators, empty lines) lives in protocol/line. Applying a
// frame to cipher state lives in decoder.
package protocol
