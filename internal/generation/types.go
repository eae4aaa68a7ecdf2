package generation

// Progress results stored on quiz items.
const (
	ResultCorrect     = "correct"
	ResultWrong       = "wrong"
	ResultNotAnswered = "not answered"
)

type Section struct {
	Heading     string   `json:"heading" bson:"heading"`
	Explanation string   `json:"explanation" bson:"explanation"`
	Points      []string `json:"points" bson:"points"`
}

type Notes struct {
	Sections []Section `json:"sections" bson:"sections"`
	Keywords []string  `json:"keywords" bson:"keywords"`
}

// MCQItem is one multiple-choice question. UserAnswer and Result are the
// only fields changed after generation.
type MCQItem struct {
	ID          string   `json:"id" bson:"id"`
	Question    string   `json:"question" bson:"question"`
	Options     []string `json:"options" bson:"options"`
	Answer      string   `json:"answer" bson:"answer"`
	Explanation string   `json:"explanation" bson:"explanation"`
	UserAnswer  string   `json:"user_answer" bson:"user_answer"`
	Result      string   `json:"result" bson:"result"`
}

type FillupItem struct {
	ID         string `json:"id" bson:"id"`
	Text       string `json:"text" bson:"text"`
	Answer     string `json:"answer" bson:"answer"`
	UserAnswer string `json:"user_answer" bson:"user_answer"`
	Result     string `json:"result" bson:"result"`
}
