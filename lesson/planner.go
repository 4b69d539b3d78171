// Package lesson drafts lesson plans and presentation outlines from parsed
// standards. It is thin orchestration: prompt assembly, one chat call, and
// response cleanup. Draft quality is the model's problem, not this package's.
package lesson

import (
	"context"
	"fmt"
	"strings"

	"github.com/dquintero/curricula/llm"
	"github.com/dquintero/curricula/standards"
)

// Planner assembles prompts and calls the chat model.
type Planner struct {
	chat  llm.Provider
	model string
}

// New creates a Planner on the given chat provider.
func New(chat llm.Provider, model string) *Planner {
	return &Planner{chat: chat, model: model}
}

// Options tune a draft request.
type Options struct {
	// DurationMinutes is the target class-period length. Defaults to 45.
	DurationMinutes int

	// SlideCount is the target slide count for outlines. Defaults to 10.
	SlideCount int

	// Notes carries free-form teacher context (class size, available
	// materials, prior lessons) appended to the prompt.
	Notes string
}

func (o Options) withDefaults() Options {
	if o.DurationMinutes == 0 {
		o.DurationMinutes = 45
	}
	if o.SlideCount == 0 {
		o.SlideCount = 10
	}
	return o
}

// Draft is the produced content plus bookkeeping for persistence.
type Draft struct {
	Content   string
	ModelUsed string
	Tokens    int
}

// LessonPlan drafts a lesson plan for one standard and its objectives.
func (p *Planner) LessonPlan(ctx context.Context, st standards.StandardRecord, opts Options) (*Draft, error) {
	opts = opts.withDefaults()

	var b strings.Builder
	fmt.Fprintf(&b, "Write a %d-minute lesson plan for the following %s curriculum standard.\n\n",
		opts.DurationMinutes, gradeLabel(st.GradeLevel))
	writeStandard(&b, st)
	b.WriteString("\nStructure the plan as: Warm-Up, Direct Instruction, Guided Practice, " +
		"Independent Practice, Assessment, Materials. Address every objective listed.\n")
	if opts.Notes != "" {
		fmt.Fprintf(&b, "\nTeacher context: %s\n", opts.Notes)
	}

	return p.draft(ctx, b.String())
}

// SlideOutline drafts a presentation outline for one standard.
func (p *Planner) SlideOutline(ctx context.Context, st standards.StandardRecord, opts Options) (*Draft, error) {
	opts = opts.withDefaults()

	var b strings.Builder
	fmt.Fprintf(&b, "Write a %d-slide presentation outline teaching the following %s curriculum standard.\n\n",
		opts.SlideCount, gradeLabel(st.GradeLevel))
	writeStandard(&b, st)
	b.WriteString("\nFor each slide give a title and 2-4 bullet points. " +
		"Slide 1 introduces the standard; the last slide is a review activity.\n")
	if opts.Notes != "" {
		fmt.Fprintf(&b, "\nTeacher context: %s\n", opts.Notes)
	}

	return p.draft(ctx, b.String())
}

func (p *Planner) draft(ctx context.Context, prompt string) (*Draft, error) {
	resp, err := p.chat.Chat(ctx, llm.ChatRequest{
		Model: p.model,
		Messages: []llm.Message{
			{Role: "system", Content: "You are an experienced curriculum designer writing materials for classroom teachers."},
			{Role: "user", Content: prompt},
		},
		Temperature: 0.7,
		MaxTokens:   4096,
	})
	if err != nil {
		return nil, fmt.Errorf("drafting content: %w", err)
	}
	return &Draft{
		Content:   strings.TrimSpace(resp.Content),
		ModelUsed: resp.Model,
		Tokens:    resp.TotalTokens,
	}, nil
}

func writeStandard(b *strings.Builder, st standards.StandardRecord) {
	fmt.Fprintf(b, "Standard %s (%s strand — %s):\n%s\n",
		st.StandardID, st.StrandName, st.StrandDescription, st.StandardText)
	if len(st.Objectives) > 0 {
		b.WriteString("\nObjectives:\n")
		for _, obj := range st.Objectives {
			fmt.Fprintf(b, "- %s %s\n", obj.ObjectiveID, obj.ObjectiveText)
		}
	}
}

func gradeLabel(grade string) string {
	switch grade {
	case "K":
		return "kindergarten"
	case "N":
		return "novice-level"
	case "I":
		return "intermediate-level"
	case "P":
		return "proficient-level"
	case "AC":
		return "accomplished-level"
	case "AD":
		return "advanced-level"
	default:
		return "grade " + grade
	}
}
