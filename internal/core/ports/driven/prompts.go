package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	// This is useful when prompts may have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// Templates use text/template syntax; the fields available to each
// are listed below.
const (
	// PromptTaxonomy proposes or revises a category table.
	// Fields: UseCase, Feedback, MaxNumClusters, ClusterNameLength,
	// ClusterDescriptionLength, ExplanationLength, Data.
	PromptTaxonomy = "taxonomy"

	// PromptSummarise summarises one document.
	// Fields: Content.
	PromptSummarise = "summarise"

	// PromptLabel assigns one category to a document.
	// Fields: Content, Taxonomy.
	PromptLabel = "label"

	// PromptTaxonomySystem is the system prompt for taxonomy generation.
	// Fields: UseCase.
	PromptTaxonomySystem = "taxonomy_system"
)

// PromptNames returns every well-known prompt name.
func PromptNames() []string {
	return []string{PromptTaxonomy, PromptTaxonomySystem, PromptSummarise, PromptLabel}
}
