// Package session provides units of work over a Bun database. A Factory
// forks independent sessions; each session reads through its transaction
// when one is active, stages writes and executes them on Flush.
package session
