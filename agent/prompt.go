package agent

import (
	"encoding/json"
	"fmt"

	"github.com/Aymensat/CarthageGate/tools"
)

const promptHeader = `You are a helpful city services assistant. Your goal is to provide information to citizens by using the available tools. ` +
	`When a user asks a question, determine if you can answer it by calling one of the tools. ` +
	`If a tool is needed, do not answer directly. Instead, respond ONLY with a single JSON object to call the tool, ` +
	`like this: {"tool": "tool_name", "params": {...}}. ` +
	`If no tool is needed, answer in a friendly, conversational manner.`

// SystemPrompt builds the system directive listing every tool.
func SystemPrompt(specs []tools.Spec) (string, error) {
	catalog, err := json.MarshalIndent(specs, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding tool catalog: %w", err)
	}
	return promptHeader + "\n\nHere are the tools available to you:\n" + string(catalog) + "\n", nil
}
