/*
Package runtime implements the pure transition core: the guard condition evaluator,
the transition selector and the executor that turns a selected transition into an
ordered list of intents.

Nothing in this package holds mutable shared state or performs I/O. Every function
takes its inputs explicitly and is safe to call concurrently.
*/
package runtime
