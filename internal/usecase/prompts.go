package usecase

import "fmt"

// Prompt templates are fixed text with a single substitution point. The
// translation direction is English to Russian and is not configurable at
// runtime.

const rewritePromptTemplate = `Rewrite the following article in a professional, journalistic style,
maintaining the technical accuracy and important information.
Focus on clarity, professionalism, and engagement while keeping the original meaning intact.
Format the content with HTML paragraphs using <p> tags for proper structure.

Original article:
%s`

const translateContentPromptTemplate = `Translate the following English article into Russian.
Maintain the professional tone and ensure technical terms are translated appropriately.
Preserve any HTML formatting present in the original text.

English article:
%s`

const translateTitlePromptTemplate = `Translate the following English article title into Russian.
Maintain the professional tone and ensure technical terms are translated appropriately.

English title:
%s`

const translateDescriptionPromptTemplate = `Translate the following English article description into Russian.
Maintain the professional tone and ensure technical terms are translated appropriately.

English description:
%s`

func rewritePrompt(content string) string {
	return fmt.Sprintf(rewritePromptTemplate, content)
}

func translateContentPrompt(content string) string {
	return fmt.Sprintf(translateContentPromptTemplate, content)
}

func translateTitlePrompt(title string) string {
	return fmt.Sprintf(translateTitlePromptTemplate, title)
}

func translateDescriptionPrompt(description string) string {
	return fmt.Sprintf(translateDescriptionPromptTemplate, description)
}
