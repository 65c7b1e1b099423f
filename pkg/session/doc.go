/*
Package session implements session management and persistence orchestration.

It serializes access to a session's history across goroutines and, with a
DistributedLocker, across replicas. The live history.Store of each session,
including its uncommitted writes, is cached in-process while the committed
entries are persisted through a ports.SessionStore.
*/
package session
