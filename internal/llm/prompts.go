package llm

// Content types accepted for summarization.
const (
	ContentCode          = "code"
	ContentResearch      = "research"
	ContentDocumentation = "documentation"
)

const (
	promptCode          = "You are a code summarisation tool. Understand the given code and output the detailed summary of the code."
	promptResearch      = "You are a research article summarisation tool. Go through the research article given to you and give a detailed summary. Make sure your summary covers motivation, methodology, experiment results and future improvements."
	promptDocumentation = "You are a summarisation tool. You will be given a piece of text that you should summarize, make sure to cover as much content as you can. Be as technical as you can be."

	// DetectLanguagePrompt restricts the classifier to a fixed label set.
	DetectLanguagePrompt = "You are an expert programmer. You will be given a piece of code by the user. Determine which of the following programming languages the code is written in: Python, Java, CPlusPlus, other. Your output should only be one of [Python, Java, CPlusPlus, Other]."

	// JSONInstruction closes the summarization prompt.
	JSONInstruction = "Return the Title and Summary in short json object."
)

var systemPrompts = map[string]string{
	ContentCode:          promptCode,
	ContentResearch:      promptResearch,
	ContentDocumentation: promptDocumentation,
}

// SystemPrompt returns the system prompt for a content type.
func SystemPrompt(contentType string) (string, bool) {
	p, ok := systemPrompts[contentType]
	return p, ok
}

// ValidContentType reports whether contentType is one of the supported categories.
func ValidContentType(contentType string) bool {
	_, ok := systemPrompts[contentType]
	return ok
}
