package commands

import (
	"strings"
	"sync"
	"time"

	"github.com/msto63/cmdkit/foundation/engine/command"
)

// SurveyTimeout is how long a survey waits for each answer
const SurveyTimeout = 30 * time.Second

var questions = []string{
	"What is your favourite block?",
	"How many hours do you play per week?",
	"Anything we should improve?",
}

// Results collects finished surveys per caller name
type Results struct {
	mu      sync.Mutex
	answers map[string][]string
}

func (r *Results) store(who string, answers []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.answers == nil {
		r.answers = make(map[string][]string)
	}
	r.answers[who] = append([]string(nil), answers...)
}

// Get returns the answers of a caller's last finished survey
func (r *Results) Get(who string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.answers[who]
	return a, ok
}

// Len returns the number of finished surveys
func (r *Results) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.answers)
}

// survey is a pooled conversation; one instance per running survey
type survey struct {
	results *Results
	answers []string
}

func (q *survey) ask(ctx *command.Context) {
	ctx.Reply("(%d/%d) %s  [cancel to stop]", len(q.answers)+1, len(questions), questions[len(q.answers)])
	ctx.KeepAlive()
}

func (q *survey) Continue(ctx *command.Context, input string) (command.Outcome, error) {
	input = strings.TrimSpace(input)
	if strings.EqualFold(input, "cancel") {
		ctx.Reply("Survey cancelled")
		return command.Complete()
	}
	if input == "" {
		q.ask(ctx)
		return command.Complete()
	}
	q.answers = append(q.answers, input)
	if len(q.answers) < len(questions) {
		q.ask(ctx)
		return command.Complete()
	}
	q.results.store(ctx.Caller.Name(), q.answers)
	ctx.Reply("Thanks, %s!", ctx.Caller.Name())
	return command.Complete()
}

func (q *survey) OnTimeout(ctx *command.Context) error {
	ctx.Reply("Survey timed out after %d of %d answers", len(q.answers), len(questions))
	return nil
}

func (q *survey) Reset() {
	q.answers = q.answers[:0]
}

func (s *Set) survey() *command.Descriptor {
	return &command.Descriptor{
		Name:        "survey",
		Description: "Answers a short player survey",
		Timeout:     SurveyTimeout,
		Channels:    command.ChannelInteractive,
		Factory:     func() any { return &survey{results: s.surveys} },
		Overloads: []*command.Overload{
			{
				Handler: command.Method(func(q *survey, ctx *command.Context, _ command.Args) (command.Outcome, error) {
					q.ask(ctx)
					return command.Complete()
				}),
			},
			{
				Name:        "results",
				Description: "Shows your last answers",
				Handler: func(ctx *command.Context, _ command.Args) (command.Outcome, error) {
					answers, ok := s.surveys.Get(ctx.Caller.Name())
					if !ok {
						ctx.Reply("You have not finished a survey yet")
						return command.Complete()
					}
					for i, a := range answers {
						ctx.Reply("%s %s", questions[i], a)
					}
					return command.Complete()
				},
			},
		},
	}
}
