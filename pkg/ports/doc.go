/*
Package ports defines the driven ports (interfaces) for the engine.

These interfaces decouple the transition core from external implementations,
allowing hosts to plug in storage backends, contract sources and intent transports.

# Key Interfaces

  - StatelessExecutor: the pure transition function (implemented by omnibase.Executor).
  - StateStore: persists entity snapshots (memory, file, redis, sqlite).
  - ContractLoader: resolves contracts by name (memory, file directory).
  - IntentDispatcher: delivers intents to the effect executor (NATS, logging).
  - DistributedLocker: serializes access to one entity across replicas.
*/
package ports
