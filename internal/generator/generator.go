// Package generator drives the model through bounded tool-calling
// rounds and returns the final answer text.
package generator

import (
	"context"
	"fmt"

	"coursemind/internal/llm"
	"coursemind/internal/logging"
)

// systemPrompt steers the model toward terse, tool-grounded answers.
const systemPrompt = `You are an AI assistant specialized in course materials and educational content with access to tools for course information.

Tool Usage:
- **Content search tool**: Use for questions about specific course content or detailed educational materials
- **Course outline tool**: Use for questions about course structure, lessons list, or course overview
- **Multiple tool calls allowed**: You may call tools sequentially (up to 2 rounds) if needed to fully answer the question
- **Strategic tool use**: Search content first, then get outline if structure questions remain, or search multiple times with refined queries
- Synthesize tool results into accurate, fact-based responses
- If a tool yields no results, state this clearly without offering alternatives

Response Protocol:
- **General knowledge questions**: Answer using existing knowledge without searching
- **Course content questions**: Use the content search tool first, then answer
- **Course outline/structure questions**: Use the course outline tool to retrieve the course title, course link, lesson count, and complete list of lesson numbers and titles
- **Follow-up searches**: If initial results are insufficient, you may search again with refined parameters
- **No meta-commentary**:
 - Provide direct answers only, without reasoning process, tool explanations, or question-type analysis
 - Do not mention "based on the search results" or "based on the tool results"

All responses must be:
1. **Brief, Concise and focused** - Get to the point quickly
2. **Educational** - Maintain instructional value
3. **Clear** - Use accessible language
4. **Example-supported** - Include relevant examples when they aid understanding
Provide only the direct answer to what was asked.`

// fallbackAnswer is returned when a reply carries no text block at all.
const fallbackAnswer = "I apologize, but I couldn't generate a response."

// ToolExecutor dispatches one tool invocation requested by the model.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args map[string]any) (string, error)
}

// Generator owns the round-bounded generation loop. Each query gets at
// most maxRounds tool-calling rounds; if the model is still asking for
// tools after that, one final call without tools forces an answer.
type Generator struct {
	client    llm.Client
	maxRounds int
}

// New creates a generator. maxRounds <= 0 defaults to 2.
func New(client llm.Client, maxRounds int) *Generator {
	if maxRounds <= 0 {
		maxRounds = 2
	}
	return &Generator{client: client, maxRounds: maxRounds}
}

// Generate produces an answer for query. history, when non-empty, is
// appended to the system prompt verbatim. toolDefs and executor enable
// tool calling; with either absent the model is called exactly once
// without tools.
func (g *Generator) Generate(ctx context.Context, query, history string, toolDefs []llm.ToolDefinition, executor ToolExecutor) (string, error) {
	system := systemPrompt
	if history != "" {
		system = fmt.Sprintf("%s\n\nPrevious conversation:\n%s", systemPrompt, history)
	}

	messages := []llm.Message{llm.TextMessage(llm.RoleUser, query)}

	if len(toolDefs) == 0 || executor == nil {
		resp, err := g.client.Converse(ctx, system, messages, nil)
		if err != nil {
			return "", err
		}
		return extractText(resp), nil
	}

	for round := 0; round < g.maxRounds; round++ {
		resp, err := g.client.Converse(ctx, system, messages, toolDefs)
		if err != nil {
			return "", err
		}

		// The model chose not to use tools, so this is the answer.
		if resp.StopReason != llm.StopReasonToolUse {
			return extractText(resp), nil
		}

		messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: resp.Content})

		results := g.executeTools(ctx, resp.ToolCalls(), executor)
		if len(results) > 0 {
			messages = append(messages, llm.Message{Role: llm.RoleUser, Content: results})
		}
		logging.Generator("Round %d: executed %d tool calls", round+1, len(results))
	}

	// Round budget exhausted. Call once more without tools so the model
	// has to answer from what it gathered.
	resp, err := g.client.Converse(ctx, system, messages, nil)
	if err != nil {
		return "", err
	}
	return extractText(resp), nil
}

// executeTools runs every requested invocation and renders each outcome
// as a tool_result block. A failing tool degrades to an error-flagged
// result instead of aborting the query, so one bad invocation cannot
// take down the whole answer.
func (g *Generator) executeTools(ctx context.Context, calls []llm.ToolCall, executor ToolExecutor) []llm.ContentBlock {
	results := make([]llm.ContentBlock, 0, len(calls))
	for _, call := range calls {
		result, err := executor.Execute(ctx, call.Name, call.Input)
		if err != nil {
			logging.GeneratorError("Tool %s failed: %v", call.Name, err)
			results = append(results, llm.ContentBlock{
				Type:      llm.BlockToolResult,
				ToolUseID: call.ID,
				Content:   fmt.Sprintf("Error executing tool: %s", err.Error()),
				IsError:   true,
			})
			continue
		}
		results = append(results, llm.ContentBlock{
			Type:      llm.BlockToolResult,
			ToolUseID: call.ID,
			Content:   result,
		})
	}
	return results
}

func extractText(resp *llm.Response) string {
	if text, ok := resp.FirstText(); ok {
		return text
	}
	return fallbackAnswer
}
