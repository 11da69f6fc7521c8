// Package service runs contract transitions for many entities.
//
// Snapshots live in a ports.StateStore behind a session.Manager, contracts come
// from a ports.ContractLoader and intents leave through a ports.IntentDispatcher.
// The executor itself is stateless, so one Service serves every entity.
package service
