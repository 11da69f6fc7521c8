/*
Package session serializes access to entity snapshots.

It wraps a ports.StateStore with per-entity locks so that read-modify-write
cycles (load, execute, save) never interleave for the same entity, and can
add a ports.DistributedLocker to extend that guarantee across replicas.
*/
package session
