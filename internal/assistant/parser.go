package assistant

import (
	"regexp"
	"strings"
)

const (
	patternConfidence  = 0.8
	keywordConfidence  = 0.5
	fallbackConfidence = 0.3

	titleBonus   = 0.1
	contextBonus = 0.05
)

// extractFunc copies regex capture groups into command parameters.
type extractFunc func(params *CommandParameters, groups []string)

type pattern struct {
	re      *regexp.Regexp
	extract extractFunc
}

type patternGroup struct {
	command  CommandType
	patterns []pattern
}

// Parser classifies free text into AI commands with rule-based pattern
// matching. Groups are tried in declaration order and within a group
// patterns are tried in declaration order; the first match wins, so the
// ordering below is load-bearing.
type Parser struct {
	groups []patternGroup

	keywords []string

	quotedTitle *regexp.Regexp
	projectRef  *regexp.Regexp
	timeRef     *regexp.Regexp
	priorityRef *regexp.Regexp
}

// NewParser compiles the rule tables. Parsers are safe for concurrent use.
func NewParser() *Parser {
	titleExtract := func(params *CommandParameters, groups []string) {
		params.TodoTitle = strings.TrimSpace(groups[1])
	}
	descriptionExtract := func(params *CommandParameters, groups []string) {
		params.TodoDescription = strings.TrimSpace(groups[1])
	}

	return &Parser{
		groups: []patternGroup{
			{
				command: CommandGenerateSubtasks,
				patterns: []pattern{
					{regexp.MustCompile(`(?:break|split)\s+(?:down\s+)?['"]?(.+?)['"]?\s+into\s+(?:smaller\s+|sub)?tasks?`), titleExtract},
					{regexp.MustCompile(`(?:divide|decompose)\s+['"]?(.+?)['"]?\s+into\s+(?:steps|parts|pieces|subtasks?)`), titleExtract},
					{regexp.MustCompile(`(?:create|generate|make)\s+subtasks?\s+for\s+['"]?(.+?)['"]?\s*$`), titleExtract},
					{regexp.MustCompile(`subtasks?\s+for\s+['"]?(.+?)['"]?\s*$`), titleExtract},
				},
			},
			{
				command: CommandAnalyzeFile,
				patterns: []pattern{
					{regexp.MustCompile(`analy[sz]e\s+(?:this|the|my|that)\s+(?:file|document|attachment|upload)`), nil},
					{regexp.MustCompile(`(?:review|summarize|read)\s+(?:this|the|my)\s+(?:file|document|attachment)`), nil},
					{regexp.MustCompile(`what(?:'s|\s+is)\s+in\s+(?:this|the)\s+(?:file|document)`), nil},
					{regexp.MustCompile(`extract\s+tasks?\s+from\s+(?:this|the|my)\s+(?:file|document)`), nil},
				},
			},
			{
				command: CommandImproveDescription,
				patterns: []pattern{
					{regexp.MustCompile(`improve\s+(?:the\s+)?description\s+(?:of|for)\s+['"]?(.+?)['"]?\s*$`), titleExtract},
					{regexp.MustCompile(`(?:rewrite|enhance|polish)\s+(?:the\s+)?description\s+(?:of|for)\s+['"]?(.+?)['"]?\s*$`), titleExtract},
					{regexp.MustCompile(`make\s+['"]?(.+?)['"]?\s+(?:sound\s+)?(?:better|clearer|more\s+detailed)\s*$`), titleExtract},
					{regexp.MustCompile(`(?:rewrite|enhance|polish|improve)\s+(?:the\s+|this\s+|my\s+)?description`), nil},
				},
			},
			{
				command: CommandGenerateTodos,
				patterns: []pattern{
					{regexp.MustCompile(`(?:create|add|generate|suggest)\s+(?:some\s+)?(?:todos?|tasks?)\s+(?:for|to|about)\s+(.+)$`), descriptionExtract},
					{regexp.MustCompile(`what\s+(?:should|do)\s+i\s+(?:do|need\s+to\s+do)\s+(?:for|to|about)\s+(.+)$`), descriptionExtract},
					{regexp.MustCompile(`i\s+need\s+(?:a\s+)?(?:todo|task)\s+list\s+for\s+(.+)$`), descriptionExtract},
					{regexp.MustCompile(`how\s+(?:do\s+i|to)\s+(?:get\s+started|prepare)\s+(?:for|with)\s+(.+)$`), descriptionExtract},
				},
			},
		},
		keywords: []string{
			"todo", "task", "project", "plan", "organize",
			"schedule", "remind", "deadline", "list",
		},
		quotedTitle: regexp.MustCompile(`['"]([^'"]+)['"]`),
		projectRef:  regexp.MustCompile(`(?i)for\s+(?:the\s+)?([\w][\w -]*?)\s+project`),
		timeRef:     regexp.MustCompile(`(?i)\b(today|tonight|tomorrow|this\s+week|next\s+week|this\s+month|by\s+\w+day)\b`),
		priorityRef: regexp.MustCompile(`(?i)\b(urgent|urgently|asap|important|high\s+priority|low\s+priority)\b`),
	}
}

// ParseCommand classifies free text. It never fails: empty or
// unrecognizable input resolves to a low-confidence general_chat command.
func (p *Parser) ParseCommand(input string) AICommand {
	trimmed := strings.TrimSpace(input)
	cmd := AICommand{
		Type:          CommandGeneralChat,
		Confidence:    fallbackConfidence,
		OriginalInput: input,
	}
	cmd.Parameters.UserInput = trimmed
	if trimmed == "" {
		return cmd
	}

	lower := strings.ToLower(trimmed)

	matched := false
	for _, group := range p.groups {
		for _, pat := range group.patterns {
			groups := pat.re.FindStringSubmatch(lower)
			if groups == nil {
				continue
			}
			cmd.Type = group.command
			cmd.Confidence = patternConfidence
			if pat.extract != nil {
				pat.extract(&cmd.Parameters, groups)
			}
			matched = true
			break
		}
		if matched {
			break
		}
	}

	if !matched && p.hasKeyword(lower) {
		cmd.Type = CommandGenerateTodos
		cmd.Confidence = keywordConfidence
	}

	p.scanContext(trimmed, &cmd)

	if cmd.Confidence > 1.0 {
		cmd.Confidence = 1.0
	}
	return cmd
}

func (p *Parser) hasKeyword(lower string) bool {
	for _, kw := range p.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// scanContext runs the auxiliary patterns against the original-case input
// and merges what it finds, bumping confidence per find.
func (p *Parser) scanContext(input string, cmd *AICommand) {
	var context []string

	if groups := p.quotedTitle.FindStringSubmatch(input); groups != nil {
		cmd.Parameters.TodoTitle = strings.TrimSpace(groups[1])
		cmd.Confidence += titleBonus
	}
	if groups := p.projectRef.FindStringSubmatch(input); groups != nil {
		context = append(context, "project: "+strings.TrimSpace(groups[1]))
		cmd.Confidence += contextBonus
	}
	if groups := p.timeRef.FindStringSubmatch(input); groups != nil {
		context = append(context, "time: "+strings.ToLower(groups[1]))
		cmd.Confidence += contextBonus
	}
	if groups := p.priorityRef.FindStringSubmatch(input); groups != nil {
		context = append(context, "priority: "+strings.ToLower(groups[1]))
		cmd.Confidence += contextBonus
	}

	if len(context) > 0 {
		cmd.Parameters.Context = strings.Join(context, "; ")
	}
}

// ValidateCommand checks per-type required parameters and reports what is
// missing in user-facing terms.
func (p *Parser) ValidateCommand(cmd AICommand) (bool, []string) {
	var missing []string

	switch cmd.Type {
	case CommandGenerateSubtasks:
		if cmd.Parameters.TodoTitle == "" && cmd.Parameters.TodoID == "" {
			missing = append(missing, "the todo to break down (a title or ID)")
		}
	case CommandAnalyzeFile:
		if cmd.Parameters.FileContent == "" && cmd.Parameters.FileName == "" {
			missing = append(missing, "an attached file to analyze")
		}
	case CommandImproveDescription:
		if cmd.Parameters.TodoID == "" && cmd.Parameters.TodoTitle == "" {
			missing = append(missing, "the todo whose description to improve")
		}
	case CommandGenerateTodos:
		if cmd.Parameters.TodoDescription == "" && cmd.Parameters.UserInput == "" {
			missing = append(missing, "a description of what the todos are for")
		}
	}

	return len(missing) == 0, missing
}

// Suggestions returns static follow-up prompts for a command type.
func (p *Parser) Suggestions(cmd AICommand) []string {
	switch cmd.Type {
	case CommandGenerateSubtasks:
		return []string{
			"Break down 'Plan team offsite' into subtasks",
			"Split my report into smaller tasks",
		}
	case CommandAnalyzeFile:
		return []string{
			"Analyze this document for action items",
			"What's in this file?",
		}
	case CommandImproveDescription:
		return []string{
			"Improve the description of 'Quarterly review'",
			"Make my task description clearer",
		}
	case CommandGenerateTodos:
		return []string{
			"Create tasks for moving to a new apartment",
			"What should I do to prepare for the launch?",
		}
	default:
		return []string{
			"Break down a task into subtasks",
			"Suggest todos for a project",
			"Improve a task description",
		}
	}
}
