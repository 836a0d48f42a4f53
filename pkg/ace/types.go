// Package ace implements the Agentic Context Engineering loop: a
// generator solves tasks with guidance retrieved from the playbook, a
// reflector diagnoses each attempt, and the curator folds the lessons
// back into the playbook.
package ace

// Trajectory records one attempt at solving a query, including which
// playbook bullets guided it.
type Trajectory struct {
	ID              string   `json:"id"`
	Query           string   `json:"query"`
	ReasoningSteps  []string `json:"reasoning_steps"`
	GeneratedCode   string   `json:"generated_code,omitempty"`
	Confidence      float64  `json:"confidence"`
	UsedStrategies  []string `json:"used_strategies,omitempty"`
	UsedBulletIDs   []string `json:"used_bullet_ids,omitempty"`
	ExecutionResult string   `json:"execution_result,omitempty"`
	Success         bool     `json:"success"`
	ErrorMessage    string   `json:"error_message,omitempty"`
}

// Answer returns the trajectory's final reasoning step, which by
// convention carries the conclusion.
func (t *Trajectory) Answer() string {
	if len(t.ReasoningSteps) == 0 {
		return ""
	}
	return t.ReasoningSteps[len(t.ReasoningSteps)-1]
}
