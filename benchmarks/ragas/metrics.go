// ABOUTME: RAGAS metrics implementation for faithfulness and context recall
// ABOUTME: Deterministic evaluation against ground-truth strings and expected tool calls

package ragas

import (
	"fmt"
	"strings"
)

// PassThreshold is the minimum score on both metrics for a PASS
const PassThreshold = 0.9

// MetricsCalculator computes RAGAS scores for benchmark tests
type MetricsCalculator struct{}

// NewMetricsCalculator creates a new metrics calculator
func NewMetricsCalculator() *MetricsCalculator {
	return &MetricsCalculator{}
}

// CalculateFaithfulness computes faithfulness score (0.0-1.0)
// Faithfulness = Does the response contain the ground truth and nothing from unrelated documents?
func (m *MetricsCalculator) CalculateFaithfulness(
	response string,
	expectedInResponse []string,
	forbiddenInResponse []string,
) (float64, string) {
	responseUpper := strings.ToUpper(response)

	missingItems := []string{}
	for _, expected := range expectedInResponse {
		if !strings.Contains(responseUpper, strings.ToUpper(expected)) {
			missingItems = append(missingItems, expected)
		}
	}

	forbiddenFound := []string{}
	for _, forbidden := range forbiddenInResponse {
		if strings.Contains(responseUpper, strings.ToUpper(forbidden)) {
			forbiddenFound = append(forbiddenFound, forbidden)
		}
	}

	switch {
	case len(missingItems) == 0 && len(forbiddenFound) == 0:
		return 1.0, "Perfect faithfulness - response matches expected ground truth"
	case len(missingItems) > 0 && len(forbiddenFound) > 0:
		return 0.0, fmt.Sprintf(
			"Faithfulness failure - missing expected items: %v, forbidden items found: %v",
			missingItems, forbiddenFound,
		)
	case len(missingItems) > 0:
		return 0.5, fmt.Sprintf("Partial faithfulness - missing expected items: %v", missingItems)
	default:
		return 0.5, fmt.Sprintf("Partial faithfulness - forbidden items found: %v", forbiddenFound)
	}
}

// CalculateContextRecall computes context recall score (0.0-1.0)
// Context Recall = Did the agents call the tools that hold the answer?
func (m *MetricsCalculator) CalculateContextRecall(
	calledTools []string,
	expectedTools []string,
) (float64, string) {
	if len(expectedTools) == 0 {
		return 1.0, "No tool calls required"
	}

	called := make(map[string]bool, len(calledTools))
	for _, name := range calledTools {
		called[name] = true
	}

	foundCount := 0
	missingItems := []string{}
	for _, expected := range expectedTools {
		if called[expected] {
			foundCount++
		} else {
			missingItems = append(missingItems, expected)
		}
	}

	recall := float64(foundCount) / float64(len(expectedTools))
	if recall == 1.0 {
		return 1.0, "Perfect context recall - all expected tools called"
	}

	return recall, fmt.Sprintf(
		"Partial context recall (%.2f) - missing tools: %v",
		recall, missingItems,
	)
}

// EvaluateTest runs full RAGAS evaluation for a test
func (m *MetricsCalculator) EvaluateTest(
	scenario TestScenario,
	finalResponse string,
	calledTools []string,
) TestResult {
	faithfulness, faithfulnessDetail := m.CalculateFaithfulness(
		finalResponse,
		scenario.GroundTruth.ExpectedInResponse,
		scenario.GroundTruth.ForbiddenInResponse,
	)

	recall, recallDetail := m.CalculateContextRecall(
		calledTools,
		scenario.GroundTruth.ExpectedTools,
	)

	status := "FAIL"
	if faithfulness >= PassThreshold && recall >= PassThreshold {
		status = "PASS"
	}

	return TestResult{
		TestID:             scenario.ID,
		TestName:           scenario.Name,
		FaithfulnessScore:  faithfulness,
		ContextRecallScore: recall,
		OverallScore:       (faithfulness + recall) / 2.0,
		Status:             status,
		Details: map[string]interface{}{
			"faithfulness_detail": faithfulnessDetail,
			"recall_detail":       recallDetail,
			"final_response":      preview(finalResponse, 200),
			"tool_calls":          calledTools,
		},
	}
}

// preview returns at most n runes of s
func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
