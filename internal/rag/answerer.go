package rag

import (
	"context"
	"fmt"
	"strings"

	"github.com/S1nghAryan/pbl-4/internal/document"
	"github.com/S1nghAryan/pbl-4/internal/llm"
)

const answerSystemPrompt = `You are a helpful assistant. Use the following retrieved context from the PDF to answer the question.
If the answer is not in the document, say you cannot find it.

Context:
%s`

// generateAnswer builds one prompt from retrieved context, prior turns
// and the raw question, then invokes the LLM once. The generated text
// is returned verbatim; failures and empty output become *AnswerError.
func (p *Pipeline) generateAnswer(ctx context.Context, history []document.Turn, chunks []document.Chunk, question string) (string, error) {
	parts := make([]string, len(chunks))
	for i, ch := range chunks {
		parts[i] = ch.Text
	}
	system := fmt.Sprintf(answerSystemPrompt, strings.Join(parts, "\n\n"))

	messages := make([]llm.Message, 0, len(history)*2+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: system})
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: question})

	answer, err := p.completeWithRetry(ctx, messages)
	if err != nil {
		return "", &AnswerError{Err: err}
	}
	return answer, nil
}
