// Package trace reads, writes, generates and replays allocator traces.
//
// A trace is the line-oriented format used by classic malloc test drivers:
//
//	<suggested heap size>
//	<number of ids>
//	<number of ops>
//	<weight>
//	a <id> <bytes>    allocate <bytes> and bind the result to <id>
//	r <id> <bytes>    resize the block bound to <id>
//	f <id>            free the block bound to <id>
//
// Replay runs a trace against an alloc.Allocator while checking that live
// payloads never overlap and that their contents survive every operation.
package trace
