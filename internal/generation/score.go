package generation

import "strings"

// ScoreMCQ grades the items named in batchIDs. Answers must match the stored
// answer exactly after trimming. Items outside the batch keep their state.
func ScoreMCQ(items []MCQItem, batchIDs []string, answers map[string]string) {
	batch := idSet(batchIDs)
	for i := range items {
		q := &items[i]
		if q.ID == "" || !batch[q.ID] {
			continue
		}
		q.UserAnswer, q.Result = grade(strings.TrimSpace(answers[q.ID]), strings.TrimSpace(q.Answer))
	}
}

// ScoreFillups grades fill-ups case-insensitively and stores the lower-cased
// answer.
func ScoreFillups(items []FillupItem, batchIDs []string, answers map[string]string) {
	batch := idSet(batchIDs)
	for i := range items {
		q := &items[i]
		if q.ID == "" || !batch[q.ID] {
			continue
		}
		user := strings.ToLower(strings.TrimSpace(answers[q.ID]))
		q.UserAnswer, q.Result = grade(user, strings.ToLower(strings.TrimSpace(q.Answer)))
	}
}

func grade(user, correct string) (string, string) {
	switch {
	case user == "":
		return "", ResultNotAnswered
	case user == correct:
		return user, ResultCorrect
	}
	return user, ResultWrong
}

func idSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}
