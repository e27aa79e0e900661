// Package dispatch provides single-writer executors.
//
// A collection instance is owned by exactly one executor. Every mutation of
// its state runs as a function posted to that executor, so no two mutations
// ever overlap. Work that may block, like loading the next page or computing
// a large diff, runs on its own goroutine and posts its result back.
//
// Queue is a goroutine-backed FIFO executor. ExecutorFunc adapts any other
// event loop, such as a terminal program's message pump.
package dispatch
