/*
Package domain contains the core domain models of the onboarding orchestrator.

It defines the entities exchanged with the onboarding backend, the outcome
taxonomy every backend response is normalized into, and the persisted history
document the Session State Store keeps per workflow instance. This package is
kept pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - User: the authenticated representative, supplied by the host.
  - LegalEntity / Business: the candidates returned by the retrieval step.
  - OnboardingStatus: the confirmed registrations shown after a submission.
  - Error: the structured failure carrying a Kind from the taxonomy.
  - Step / StepState / View: the state machine vocabulary.
  - History: the committed slot snapshots persisted for a session.
*/
package domain
