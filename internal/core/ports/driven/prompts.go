package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed defaults in the
// binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Implementations fall back to a built-in default when the prompt
	// has not been customised on disk.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next
	// access. Useful when prompts have been edited on disk.
	Reload()
}

// Well-known prompt names used throughout the application.
// These constants define the contract between prompt consumers and providers.
const (
	// PromptClassify decides whether a question is about the company.
	// The template expects placeholders for company name, company
	// description, formatted history, and the question.
	PromptClassify = "classify"

	// PromptCompanyAnswer answers company questions from retrieved
	// context. The template expects placeholders for company name,
	// formatted history, context block, and the question.
	PromptCompanyAnswer = "company_answer"

	// PromptGeneralAnswer handles free-form conversation. The
	// template expects placeholders for formatted history and the
	// question.
	PromptGeneralAnswer = "general_answer"
)
