/*
Package domain contains the core data model of the transition engine.

It defines the state machine contract, the execution snapshot, transition results,
intents and the error taxonomy. The package is pure data with no I/O and no
dependencies outside the standard library.

# Key Entities

  - Contract: states, transitions, guard conditions and actions of one machine.
  - Snapshot: current state name, read-only context and opaque history.
  - TransitionResult: outcome of one executor call, including failure classification.
  - Intent: a data-only declaration of a side effect for an external executor.
  - Value: the tagged union used for context and payload values.
*/
package domain
