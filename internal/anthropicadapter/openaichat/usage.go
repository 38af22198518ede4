package openaichat

import "github.com/florianilch/amelie-proxy/internal/anthropicadapter/types"

// toUsage converts upstream token accounting. Absent usage yields zero
// counts.
func toUsage(usage *chatCompletionUsage) types.Usage {
	if usage == nil {
		return types.Usage{}
	}
	return types.Usage{
		InputTokens:  usage.PromptTokens,
		OutputTokens: usage.CompletionTokens,
	}
}
