package rag

import (
	"context"

	"github.com/S1nghAryan/pbl-4/internal/document"
	"github.com/S1nghAryan/pbl-4/internal/llm"
)

const contextualizePrompt = "Given a chat history and the latest user question " +
	"which might reference context in the chat history, formulate a standalone " +
	"question which can be understood without the chat history. Do NOT answer " +
	"the question, just reformulate it if needed and otherwise return it as is."

// rewriteQuery turns the latest question plus prior turns into a
// standalone question via one LLM call. The call reformulates only; it
// never answers.
func (p *Pipeline) rewriteQuery(ctx context.Context, history []document.Turn, message string) (string, error) {
	messages := make([]llm.Message, 0, len(history)*2+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: contextualizePrompt})
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: message})

	return p.completeWithRetry(ctx, messages)
}

// historyMessages maps stored turns to alternating role-tagged messages.
func historyMessages(history []document.Turn) []llm.Message {
	messages := make([]llm.Message, 0, len(history)*2)
	for _, turn := range history {
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: turn.User},
			llm.Message{Role: llm.RoleAssistant, Content: turn.Assistant},
		)
	}
	return messages
}
