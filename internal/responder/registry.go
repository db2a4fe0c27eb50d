package responder

import (
	"fmt"
	"studyplanner-backend/pkg/log"
)

// ReplyContext is the ambient information a generator may use when picking
// canned replies.
type ReplyContext struct {
	ProjectName  string // Empty for the general thread
	ProjectCount int
	UserMessage  string
}

// Generator produces the candidate replies for one kind of thread.
type Generator interface {
	// Candidates returns the replies to choose from; never empty.
	Candidates(rc ReplyContext) []string
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(rc ReplyContext) []string

func (f GeneratorFunc) Candidates(rc ReplyContext) []string { return f(rc) }

// Registry holds the mapping between thread kinds and their generators.
type Registry struct {
	generators map[ThreadKind]Generator
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		generators: make(map[ThreadKind]Generator),
	}
}

// NewDefaultRegistry returns a registry with the built-in study assistant
// replies for project and general threads.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(KindProject, GeneratorFunc(projectReplies))
	r.Register(KindGeneral, GeneratorFunc(generalReplies))
	return r
}

// Register adds a generator for a thread kind.
func (r *Registry) Register(kind ThreadKind, g Generator) {
	if _, exists := r.generators[kind]; exists {
		log.Warnf("[ResponderRegistry] Thread kind '%s' is already registered. Overwriting.", kind)
	}
	r.generators[kind] = g
	log.Debugf("[ResponderRegistry] Registered generator for thread kind: %s", kind)
}

// Get retrieves the generator for a thread kind.
func (r *Registry) Get(kind ThreadKind) (Generator, error) {
	g, exists := r.generators[kind]
	if !exists {
		return nil, fmt.Errorf("no generator registered for thread kind: %s", kind)
	}
	return g, nil
}

func projectReplies(ReplyContext) []string {
	return []string{
		"Got it! I'll help you with that. Based on your information I can build a personalized schedule. How much time do you have available per week?",
		"Great question! Let's tackle this topic using the project material. Can you give me more detail on what exactly you would like to understand?",
		"Sure! Here is my suggestion based on the context of your project...",
	}
}

func generalReplies(rc ReplyContext) []string {
	return []string{
		fmt.Sprintf("Looking at your %d projects, I can help you connect the topics. What would you like to know?", rc.ProjectCount),
		"Based on all of your study projects, I see some opportunities for integrated learning. Tell me more about your question.",
		"Reviewing your whole study portfolio, I can suggest a few approaches. Which project do you want to talk about?",
	}
}
