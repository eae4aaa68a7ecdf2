package retrieval

// Task names a kind of study artifact. It selects the synthetic query and
// the number of chunks retrieved for it.
type Task string

const (
	TaskSummary Task = "summary"
	TaskNotes   Task = "notes"
	TaskMCQ     Task = "mcq"
	TaskFillups Task = "fillups"
	TaskChat    Task = "chat"
)

// TopK is the number of chunks requested for a task. Longer documents get a
// wider context for summaries and notes.
func TopK(task Task, pagesCount int) int {
	switch task {
	case TaskSummary:
		if pagesCount <= 8 {
			return 8
		}
		return 12
	case TaskNotes:
		if pagesCount <= 10 {
			return 10
		}
		return 14
	case TaskMCQ, TaskFillups:
		return 10
	default:
		return 4
	}
}

// Query is the synthetic retrieval query for a generated artifact. Chat
// searches with the user's question instead.
func Query(task Task, filename string) string {
	switch task {
	case TaskSummary:
		return "summary of " + filename
	case TaskNotes:
		return "detailed notes for " + filename
	case TaskMCQ:
		return "important topics from " + filename
	case TaskFillups:
		return "key terms from " + filename
	}
	return filename
}
