// ABOUTME: Prompt templates, tool names and tool descriptions for the document agent graph
// ABOUTME: Tool names are capped at the 64-character limit chat APIs enforce
package core

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// DefaultSystemPrompt guides the top-level agent
const DefaultSystemPrompt = `You are an agent designed to answer queries about a set of given documents. ` +
	`Please always use ALL the provided tools to answer a given question. Do not rely on prior knowledge.
- Wide Range of Topics: Be prepared to respond to a broad spectrum of questions while maintaining a professional and respectful tone.
- No Hallucination: Ensure that all responses use information only from the provided context, and not from your own sources of information or model pre-training.
- Accuracy: Provide precise and reliable information only from the provided context. When unsure, say so.
- Supportive: Be helpful and aim to resolve the user's query efficiently.`

const maxToolNameLength = 64

// VectorToolName names a document's vector search tool
func VectorToolName(title string) string {
	return toolName("vector_tool_", title)
}

// SummaryToolName names a document's summary tool
func SummaryToolName(title string) string {
	return toolName("summary_tool_", title)
}

// AgentToolName names the tool wrapping a document's agent
func AgentToolName(title string) string {
	return toolName("agent_expert_in_document_", title)
}

// toolName joins prefix and title. Characters outside [A-Za-z0-9_] become
// underscores; when any were replaced, or the name is too long, a hash of the
// original title is appended so distinct titles keep distinct names.
func toolName(prefix, title string) string {
	safe, replaced := asciiName(title)
	name := prefix + safe
	if !replaced && len(name) <= maxToolNameLength {
		return name
	}
	sum := sha256.Sum256([]byte(title))
	suffix := "_" + hex.EncodeToString(sum[:4])
	if len(name) > maxToolNameLength-len(suffix) {
		name = name[:maxToolNameLength-len(suffix)]
	}
	return name + suffix
}

func asciiName(s string) (string, bool) {
	var b strings.Builder
	b.Grow(len(s))
	replaced := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
			replaced = true
		}
	}
	return b.String(), replaced
}

func vectorToolDescription(title string) string {
	return fmt.Sprintf("Useful for questions related to specific aspects of %s.", title)
}

func summaryToolDescription(title string) string {
	return fmt.Sprintf("Useful for any requests that require a holistic summary of EVERYTHING about %s. "+
		"For questions about more specific sections, please use the vector_tool.", title)
}

func agentToolDescription(title, description string) string {
	return strings.TrimSpace(fmt.Sprintf("This document contains information about %s. "+
		"Use this tool if you want to answer any questions about the document %s. %s", title, title, description))
}

func documentAgentPrompt(title, description string) string {
	prompt := fmt.Sprintf("You are a specialized agent designed to answer queries about document titled %s. ", title)
	if description != "" {
		prompt += description + " "
	}
	return prompt + "You must ALWAYS use ALL the provided tools when answering a question; do NOT rely on prior knowledge."
}

func keywordQuery(keywords []string) string {
	return "Extract metadata from this document in the format {metadata1: entity1, metadata2: entity2, ...} " +
		"that cover the metadata types: " + strings.Join(keywords, ", ")
}

func keywordDescription(metadata string) string {
	return fmt.Sprintf("Some of the information in this document include %s.", strings.TrimSpace(metadata))
}
