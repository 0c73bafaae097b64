package summons

import (
	"context"
	"encoding/json"
	"sync"
)

// fakeLLM answers CompleteInto from a function of the prompt.
type fakeLLM struct {
	mu      sync.Mutex
	prompts []string
	respond func(prompt string) (string, error)
}

func (f *fakeLLM) CompleteInto(_ context.Context, prompt, _ string, v interface{}) error {
	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.mu.Unlock()

	text, err := f.respond(prompt)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(text), v)
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func boolPtr(b bool) *bool { return &b }

func floatPtr(f float64) *float64 { return &f }

func jsonFields(v interface{}) (map[string]interface{}, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]interface{}
	err = json.Unmarshal(b, &out)
	return out, err
}
