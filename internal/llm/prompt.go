package llm

import (
	"fmt"
	"strings"
)

// BuildGroundedPrompt frames the question with numbered document
// excerpts and answering instructions. contextChunks must be non-empty;
// callers with no retrieved context use BuildPlainPrompt.
func BuildGroundedPrompt(question string, contextChunks []string) string {
	var b strings.Builder

	b.WriteString("\nYou are an intelligent AI assistant with access to relevant documents. Please answer the following question using the provided context.\n\n")
	b.WriteString(fmt.Sprintf("**Question:** %s\n\n", question))
	b.WriteString("**Available Context:**\n")

	docs := make([]string, len(contextChunks))
	for i, chunk := range contextChunks {
		docs[i] = fmt.Sprintf("\n**Document %d:**\n%s\n", i+1, chunk)
	}
	b.WriteString(strings.Join(docs, "\n"))

	b.WriteString("\n\n**Instructions:**\n")
	b.WriteString("- Provide a comprehensive and accurate answer based on the context provided\n")
	b.WriteString("- If the context contains relevant information, use it to support your response\n")
	b.WriteString("- If the context doesn't fully address the question, clearly state what information is missing\n")
	b.WriteString("- Be conversational and helpful in your response\n")
	b.WriteString("- Cite specific information from the documents when relevant\n\n")
	b.WriteString("**Answer:**")

	return b.String()
}

// BuildPlainPrompt frames a question asked with no document context.
func BuildPlainPrompt(question string) string {
	return fmt.Sprintf("\nYou are a helpful AI assistant. Please provide a comprehensive and accurate answer to the following question:\n\n**Question:** %s\n\n**Answer:**", question)
}
