// ABOUTME: Scenario data structures and built-in scenarios for the RAGAS benchmarks
// ABOUTME: Each scenario is a small document folder, one question and its ground truth

package ragas

// TestScenario represents a complete RAGAS benchmark test
type TestScenario struct {
	ID          string
	Name        string
	Description string
	// Documents maps a file name inside the input folder to its content
	Documents   map[string]string
	Question    string
	GroundTruth GroundTruth
}

// GroundTruth defines expected outcomes for RAGAS evaluation
type GroundTruth struct {
	ExpectedInResponse  []string // Strings that MUST appear in response
	ForbiddenInResponse []string // Strings that MUST NOT appear in response

	// ExpectedTools are tool names the agents must call to answer
	ExpectedTools []string
}

// TestResult represents the outcome of a benchmark test
type TestResult struct {
	TestID             string                 `json:"test_id"`
	TestName           string                 `json:"test_name"`
	FaithfulnessScore  float64                `json:"faithfulness_score"`
	ContextRecallScore float64                `json:"context_recall_score"`
	OverallScore       float64                `json:"overall_score"`
	Status             string                 `json:"status"` // "PASS" or "FAIL"
	Details            map[string]interface{} `json:"details,omitempty"`
	ErrorMessage       string                 `json:"error_message,omitempty"`
}

const (
	lighthouseDoc = `The Marrow Point lighthouse was built in 1871 by the engineer Edith Crane.
Its lamp used a second-order Fresnel lens and could be seen for 21 nautical miles.
The keeper's cottage burned down in 1923 and was rebuilt in brick the following year.
The light was automated in 1962 and the last keeper, Tomas Reyes, retired that winter.`

	orchardDoc = `The Halloway orchard grows three apple varieties: Bramley, Cox and Egremont Russet.
Harvest starts in the second week of September and lasts about five weeks.
Cider pressing happens in October using a 1930s rack-and-cloth press.
The orchard switched to organic certification in 2015.`

	roastingDoc = `Light roasts are dropped just after first crack, around 205 degrees Celsius.
Dark roasts go past second crack, near 225 degrees Celsius, and taste more bitter.
Resting beans for three days after roasting lets carbon dioxide escape.`
)

// GetSummaryScenario returns the scenario that asks for a summary of every document
func GetSummaryScenario() TestScenario {
	return TestScenario{
		ID:          "summary",
		Name:        "Summarize Every Document",
		Description: "A summary question must reach the summary tool of each document",
		Documents: map[string]string{
			"lighthouse.txt": lighthouseDoc,
			"orchard.txt":    orchardDoc,
		},
		Question: "Summarize the content of the documents",
		GroundTruth: GroundTruth{
			ExpectedInResponse: []string{"lighthouse", "orchard"},
			ExpectedTools: []string{
				"agent_expert_in_document_lighthouse",
				"agent_expert_in_document_orchard",
				"summary_tool_lighthouse",
				"summary_tool_orchard",
			},
		},
	}
}

// GetLookupScenario returns the scenario that asks for one fact from one document
func GetLookupScenario() TestScenario {
	return TestScenario{
		ID:          "lookup",
		Name:        "Specific Fact Lookup",
		Description: "A specific question must be answered from the right document's vector tool",
		Documents: map[string]string{
			"lighthouse.txt":      lighthouseDoc,
			"coffee roasting.txt": roastingDoc,
		},
		Question: "Who built the Marrow Point lighthouse and in which year?",
		GroundTruth: GroundTruth{
			ExpectedInResponse: []string{"Edith Crane", "1871"},
			ExpectedTools: []string{
				"agent_expert_in_document_lighthouse",
				"vector_tool_lighthouse",
			},
		},
	}
}

// GetRoutingScenario returns the scenario where only one of three documents is relevant
func GetRoutingScenario() TestScenario {
	return TestScenario{
		ID:          "routing",
		Name:        "Route To The Relevant Document",
		Description: "The top agent must pick the orchard agent and keep other documents out of the answer",
		Documents: map[string]string{
			"lighthouse.txt":      lighthouseDoc,
			"orchard.txt":         orchardDoc,
			"coffee roasting.txt": roastingDoc,
		},
		Question: "Which apple varieties does the Halloway orchard grow?",
		GroundTruth: GroundTruth{
			ExpectedInResponse:  []string{"Bramley", "Egremont Russet"},
			ForbiddenInResponse: []string{"Fresnel", "second crack"},
			ExpectedTools: []string{
				"agent_expert_in_document_orchard",
			},
		},
	}
}

// AllScenarios returns every built-in scenario in run order
func AllScenarios() []TestScenario {
	return []TestScenario{
		GetSummaryScenario(),
		GetLookupScenario(),
		GetRoutingScenario(),
	}
}

// ScenarioByID finds a built-in scenario
func ScenarioByID(id string) (TestScenario, bool) {
	for _, s := range AllScenarios() {
		if s.ID == id {
			return s, true
		}
	}
	return TestScenario{}, false
}
