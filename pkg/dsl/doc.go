/*
Package dsl provides a fluent builder for constructing state machine contracts in Go code.

It is an alternative to YAML or JSON contract documents, useful for tests and for
contracts generated at runtime. Build validates the result with the same rules used
for loaded documents.

Example usage:

	b := dsl.New("orders").Persist()

	b.State("pending").Exit("log_exit")
	b.State("processing").Entry("reserve_stock")
	b.State("done").Terminal()

	b.Transition("start").From("pending").To("processing").On("go").
		When("has_amount", "amount greater_than 0")
	b.Transition("finish").From("processing").To("done").On("go")
	b.Transition("cancel").Any().To("done").On("cancel").Priority(10)

	contract, err := b.Build()
*/
package dsl
