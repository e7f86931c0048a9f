package dialogue

import (
	"context"
	"sync"
)

// Script replays queued customer inputs and records everything the agent
// says. Used by tests and by the Lambda entrypoint, where the whole
// conversation arrives up front.
type Script struct {
	mu     sync.Mutex
	inputs []string
	said   []string
}

func NewScript(inputs ...string) *Script {
	return &Script{inputs: inputs}
}

func (s *Script) Say(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.said = append(s.said, text)
	return nil
}

// Listen pops the next queued input; an exhausted script reads as no
// input.
func (s *Script) Listen(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.inputs) == 0 {
		return "", nil
	}
	next := s.inputs[0]
	s.inputs = s.inputs[1:]
	return next, nil
}

// Said returns a copy of everything spoken so far.
func (s *Script) Said() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.said...)
}
