package assistant

// CommandType classifies what the user asked the assistant to do.
type CommandType string

const (
	CommandGenerateSubtasks    CommandType = "generate_subtasks"
	CommandAnalyzeFile         CommandType = "analyze_file"
	CommandImproveDescription  CommandType = "improve_description"
	CommandGenerateTodos       CommandType = "generate_todos"
	CommandGeneralChat         CommandType = "general_chat"
)

// CommandParameters carries everything the pattern and context scans
// managed to extract from the input.
type CommandParameters struct {
	TodoID          string
	TodoTitle       string
	TodoDescription string
	FileContent     string
	FileName        string
	ProjectID       string
	UserInput       string
	Context         string
}

// AICommand is the classifier output: a command type, a confidence score
// in [0,1], and the extracted parameters. It lives only for the duration
// of one execute call and is never persisted.
type AICommand struct {
	Type          CommandType
	Confidence    float64
	Parameters    CommandParameters
	OriginalInput string
}
