/*
Package omnibase is a contract-driven finite state machine engine.

A contract declares states, transitions, guard conditions and actions as data.
The engine computes one transition per call and returns the side effects the
host should perform as intents. It never performs them itself.

# Concept

The core is a pure function: given a contract, a snapshot and a trigger it
returns a TransitionResult and a new snapshot. Guard failures are data
(Success=false with a failure class). Contract or programming bugs are raised
as *domain.ConfigurationError and must be propagated unmodified.

Two entrypoints sit on top of that core:

  - Executor is stateless and safe for concurrent use. Keep snapshots in a
    ports.StateStore and run one Executor for every entity (see pkg/service).
  - Node is a stateful facade for one entity. It builds the execution context
    from an Input envelope, tracks the current state and always returns the
    same seven summary keys. A Node has single-thread affinity.

# Usage

	contract := dsl.New("orders").
		State("pending").Exit("audit").
		State("processing").Entry("notify").
		State("done").Terminal().
		Transition("start").From("pending").To("processing").On("go").
		Transition("finish").From("processing").To("done").On("finish").
		MustBuild()

	node, err := omnibase.New(contract)
	if err != nil {
		log.Fatal(err)
	}

	out, err := node.Process(ctx, omnibase.Input{
		Metadata: domain.Map{"trigger": domain.String("go")},
	})
	if err != nil {
		log.Fatal(err)
	}
	for _, intent := range out.Intents {
		log.Println(intent.Type, intent.Target)
	}
*/
package omnibase
