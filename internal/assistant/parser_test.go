package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParser_ParseCommand_Subtasks(t *testing.T) {
	p := NewParser()

	cmd := p.ParseCommand("Break down 'Plan vacation' into subtasks")

	assert.Equal(t, CommandGenerateSubtasks, cmd.Type)
	assert.Equal(t, "Plan vacation", cmd.Parameters.TodoTitle)
	assert.GreaterOrEqual(t, cmd.Confidence, 0.8)
	assert.Equal(t, "Break down 'Plan vacation' into subtasks", cmd.OriginalInput)
}

func TestParser_ParseCommand_SubtasksUnquoted(t *testing.T) {
	p := NewParser()

	cmd := p.ParseCommand("Break down Plan Vacation into subtasks")

	assert.Equal(t, CommandGenerateSubtasks, cmd.Type)
	// Pattern extraction works on the lowercased input
	assert.Equal(t, "plan vacation", cmd.Parameters.TodoTitle)
	assert.Equal(t, 0.8, cmd.Confidence)
}

func TestParser_ParseCommand_KeywordFallback(t *testing.T) {
	p := NewParser()

	cmd := p.ParseCommand("Help me plan a birthday party")

	assert.Equal(t, CommandGenerateTodos, cmd.Type)
	assert.Equal(t, 0.5, cmd.Confidence)
	assert.Empty(t, cmd.Parameters.TodoTitle)
	assert.Equal(t, "Help me plan a birthday party", cmd.Parameters.UserInput)
}

func TestParser_ParseCommand_GeneralChat(t *testing.T) {
	p := NewParser()

	t.Run("no keywords", func(t *testing.T) {
		cmd := p.ParseCommand("How are you doing?")
		assert.Equal(t, CommandGeneralChat, cmd.Type)
		assert.Equal(t, 0.3, cmd.Confidence)
	})

	t.Run("empty input", func(t *testing.T) {
		cmd := p.ParseCommand("   ")
		assert.Equal(t, CommandGeneralChat, cmd.Type)
		assert.Equal(t, 0.3, cmd.Confidence)
		assert.Empty(t, cmd.Parameters.UserInput)
	})
}

func TestParser_ParseCommand_AnalyzeFile(t *testing.T) {
	p := NewParser()

	cmd := p.ParseCommand("Analyze this file for me")

	assert.Equal(t, CommandAnalyzeFile, cmd.Type)
	assert.Equal(t, 0.8, cmd.Confidence)
}

func TestParser_ParseCommand_ImproveDescription(t *testing.T) {
	p := NewParser()

	t.Run("with target", func(t *testing.T) {
		cmd := p.ParseCommand("Improve the description of 'Quarterly review'")
		assert.Equal(t, CommandImproveDescription, cmd.Type)
		assert.Equal(t, "Quarterly review", cmd.Parameters.TodoTitle)
	})

	t.Run("without target", func(t *testing.T) {
		cmd := p.ParseCommand("improve the description")
		assert.Equal(t, CommandImproveDescription, cmd.Type)
		assert.Empty(t, cmd.Parameters.TodoTitle)
	})
}

func TestParser_ParseCommand_ContextScan(t *testing.T) {
	p := NewParser()

	t.Run("quoted title bumps confidence", func(t *testing.T) {
		cmd := p.ParseCommand("Create subtasks for 'Ship release'")
		assert.Equal(t, CommandGenerateSubtasks, cmd.Type)
		assert.Equal(t, "Ship release", cmd.Parameters.TodoTitle)
		assert.InDelta(t, 0.9, cmd.Confidence, 1e-9)
	})

	t.Run("project and time context", func(t *testing.T) {
		cmd := p.ParseCommand("Add tasks to pack boxes for the Apollo project by friday")
		assert.Equal(t, CommandGenerateTodos, cmd.Type)
		assert.Contains(t, cmd.Parameters.Context, "project: Apollo")
		assert.Contains(t, cmd.Parameters.Context, "time: by friday")
	})

	t.Run("confidence capped at one", func(t *testing.T) {
		cmd := p.ParseCommand("Break down 'Move house' into subtasks for the Home project by friday, urgent")
		assert.LessOrEqual(t, cmd.Confidence, 1.0)
	})
}

func TestParser_ParseCommand_Deterministic(t *testing.T) {
	p := NewParser()

	input := "Break down 'Plan vacation' into subtasks"
	first := p.ParseCommand(input)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, p.ParseCommand(input))
	}
}

func TestParser_ValidateCommand(t *testing.T) {
	p := NewParser()

	t.Run("subtasks without target", func(t *testing.T) {
		valid, missing := p.ValidateCommand(AICommand{Type: CommandGenerateSubtasks})
		assert.False(t, valid)
		assert.Len(t, missing, 1)
	})

	t.Run("subtasks with title", func(t *testing.T) {
		cmd := AICommand{Type: CommandGenerateSubtasks}
		cmd.Parameters.TodoTitle = "Plan vacation"
		valid, missing := p.ValidateCommand(cmd)
		assert.True(t, valid)
		assert.Empty(t, missing)
	})

	t.Run("analyze without file", func(t *testing.T) {
		valid, _ := p.ValidateCommand(AICommand{Type: CommandAnalyzeFile})
		assert.False(t, valid)
	})

	t.Run("improve without target", func(t *testing.T) {
		valid, _ := p.ValidateCommand(AICommand{Type: CommandImproveDescription})
		assert.False(t, valid)
	})

	t.Run("general chat always valid", func(t *testing.T) {
		valid, _ := p.ValidateCommand(AICommand{Type: CommandGeneralChat})
		assert.True(t, valid)
	})
}

func TestParser_Suggestions(t *testing.T) {
	p := NewParser()

	for _, typ := range []CommandType{
		CommandGenerateSubtasks,
		CommandAnalyzeFile,
		CommandImproveDescription,
		CommandGenerateTodos,
		CommandGeneralChat,
	} {
		assert.NotEmpty(t, p.Suggestions(AICommand{Type: typ}))
	}
}
