package llm

import "github.com/BaSui01/colloquy/types"

// FirstText returns the content of the first choice, or "" if the response
// is nil or empty.
func FirstText(resp *ChatResponse) string {
	if resp == nil || len(resp.Choices) == 0 {
		return ""
	}
	return resp.Choices[0].Message.Content
}

// FirstToolCalls returns the tool invocation requests on the first choice,
// or nil when the response is plain text.
func FirstToolCalls(resp *ChatResponse) []types.ToolCall {
	if resp == nil || len(resp.Choices) == 0 {
		return nil
	}
	return resp.Choices[0].Message.ToolCalls
}

// FirstMessage returns the first choice message and whether one exists.
func FirstMessage(resp *ChatResponse) (Message, bool) {
	if resp == nil || len(resp.Choices) == 0 {
		return Message{}, false
	}
	return resp.Choices[0].Message, true
}
