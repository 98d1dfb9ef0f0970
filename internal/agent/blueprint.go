// ABOUTME: Output blueprints ask the model to answer as JSON matching a Go struct
// ABOUTME: QueryInto decodes such an answer back into the struct
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harper/orpheo/internal/tools"
)

func blueprintInstruction(blueprint any) (string, error) {
	schema, err := tools.Schema(blueprint)
	if err != nil {
		return "", fmt.Errorf("failed to build blueprint schema: %w", err)
	}
	return "\n\nRespond only with a JSON object that conforms to this JSON schema:\n" + string(schema), nil
}

// QueryInto answers question and decodes the JSON answer into out
func (a *Agent) QueryInto(ctx context.Context, question string, out any) error {
	answer, err := a.Query(ctx, question)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(extractJSON(answer)), out); err != nil {
		return fmt.Errorf("answer is not valid JSON: %w", err)
	}
	return nil
}

// extractJSON strips markdown fences and surrounding prose from a JSON answer
func extractJSON(answer string) string {
	s := strings.TrimSpace(answer)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	start := strings.IndexAny(s, "{[")
	end := strings.LastIndexAny(s, "}]")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}
