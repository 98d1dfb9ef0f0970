// ABOUTME: Prompt templates used to synthesize answers from retrieved chunks
// ABOUTME: Question-answering over context and hierarchical summarization
package index

const textQATemplate = `Context information is below.
---------------------
%s
---------------------
Given the context information and not prior knowledge, answer the query.
Query: %s
Answer: `

const summaryTemplate = `Context information from multiple sources is below.
---------------------
%s
---------------------
Given the information from multiple sources and not prior knowledge, answer the query.
Query: %s
Answer: `

const synthesizerSystemPrompt = "You are an expert Q&A system that is trusted around the world. " +
	"Always answer the query using the provided context information, and not prior knowledge. " +
	"Never directly reference the given context in your answer."
