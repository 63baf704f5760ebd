// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - LLMService: Text generation for taxonomy, summary and label prompts
//   - PromptStore: Prompt templates
//   - ConfigStore: Application configuration
//   - RunStore: Persistence of completed runs
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EmbeddingService: Vector embeddings. Without it the secondary
//     classifier is disabled and every document is labeled by the LLM.
//   - SourceLoader, TaxonomyLoader, Exporter: file I/O used by the CLI.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
