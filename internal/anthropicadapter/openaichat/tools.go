package openaichat

import "github.com/florianilch/amelie-proxy/internal/anthropicadapter/types"

func fromTools(tools []types.Tool) []wireTool {
	out := make([]wireTool, 0, len(tools))
	for _, tool := range tools {
		out = append(out, wireTool{
			Type: "function",
			Function: wireFunctionDef{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.InputSchema,
			},
		})
	}
	return out
}

// fromToolChoice translates tool steering. "auto" maps to "auto", "any" and
// "required" to "required", a {"type":"tool"} object to a named function
// choice, and anything unrecognized falls back to "auto".
func fromToolChoice(choice types.ToolChoice) any {
	if choice.Value != "" {
		switch choice.Value {
		case "any", "required":
			return "required"
		default:
			return "auto"
		}
	}
	if choice.Type == "tool" && choice.Name != "" {
		named := wireNamedToolChoice{Type: "function"}
		named.Function.Name = choice.Name
		return named
	}
	return "auto"
}
