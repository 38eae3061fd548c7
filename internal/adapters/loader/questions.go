package loader

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Question is one entry of a questions file. Query is sent to the model;
// Question is the label stored with the answer and defaults to Query.
type Question struct {
	Question string `yaml:"question"`
	Query    string `yaml:"query"`
	Model    string `yaml:"model,omitempty"`
}

type questionsFile struct {
	Questions []Question `yaml:"questions"`
}

// ErrNoQuestions is returned when a questions file lists nothing to ask.
var ErrNoQuestions = errors.New("no questions defined")

// LoadQuestions reads a YAML questions file:
//
//	questions:
//	  - question: total sales
//	    query: What is the total of the sales column?
func LoadQuestions(path string) ([]Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseQuestions(data)
}

// ParseQuestions decodes questions from YAML.
func ParseQuestions(data []byte) ([]Question, error) {
	var file questionsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing questions: %w", err)
	}

	out := make([]Question, 0, len(file.Questions))
	for i, q := range file.Questions {
		q.Query = strings.TrimSpace(q.Query)
		q.Question = strings.TrimSpace(q.Question)
		if q.Query == "" {
			q.Query = q.Question
		}
		if q.Query == "" {
			return nil, fmt.Errorf("question %d: query is empty", i+1)
		}
		if q.Question == "" {
			q.Question = q.Query
		}
		out = append(out, q)
	}
	if len(out) == 0 {
		return nil, ErrNoQuestions
	}
	return out, nil
}
