package types

type Stage string

const (
	StageInitial   Stage = "initial"
	StageFollowUp  Stage = "follow_up"
	StageCompleted Stage = "completed"
)

type Role string

const (
	RolePatient   Role = "patient"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

type Option struct {
	Text  string `json:"text" jsonschema:"required,description=Display text of the answer choice"`
	Score int    `json:"score" jsonschema:"required,description=Score assigned when this choice is selected"`
}

// Item is one questionnaire question. AnswerScore and Reasoning stay nil until
// the patient's own words give evidence for one of Options.
type Item struct {
	ID          string   `json:"id" jsonschema:"required,description=Stable item identifier; must be copied unchanged"`
	Question    string   `json:"question" jsonschema:"required,description=Question text; must be copied unchanged"`
	Options     []Option `json:"options" jsonschema:"required,description=Permitted answer choices; must be copied unchanged"`
	AnswerScore *int     `json:"answer_score" jsonschema:"description=Score of the selected option or null when the statement gives no clear evidence"`
	Reasoning   *string  `json:"reasoning" jsonschema:"description=Short quote or paraphrase of the patient's words supporting the score or null"`
}

type Questionnaire []Item
