/*
Package ports defines the driven ports (interfaces) of the onboarding engine.

These interfaces decouple the orchestration logic from external implementations,
allowing the engine to work with either backend, various storage backends and
host-provided collaborators.

# Key Interfaces

  - Backend: the remote onboarding operations (live gateway or mock).
  - SessionStore: persists the committed history of a session.
  - OutcomeLedger: remembers terminal submission outcomes across sessions.
  - DistributedLocker: serializes access to a session across replicas.
  - TokenSource, SessionNotifier, AnalyticsEmitter, DiagnosticsReporter: host collaborators.
*/
package ports
