// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The orchestrator runs the taxonomy pipeline: sampling, summarizing,
// discovering and revising categories, review, then labeling with the
// fast model and an optional embedding classifier. Model access goes
// through driven.ModelProvider so services never import a provider SDK.
package services
