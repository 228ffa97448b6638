package provider

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"verbquiz-service/internal/domain"
)

var errNotSequence = errors.New("payload is not a list of questions")

// decodeQuestions accepts either a bare JSON array or an object with a "questions"
// array. Only the top-level shape is checked: items that do not decode cleanly keep
// whatever fields did decode. Every item gets its position as ID.
func decodeQuestions(payload []byte) ([]domain.Question, error) {
	list := bytes.TrimSpace(payload)
	if len(list) > 0 && list[0] == '{' {
		var envelope struct {
			Questions json.RawMessage `json:"questions"`
		}
		if err := json.Unmarshal(list, &envelope); err != nil {
			return nil, fmt.Errorf("parse tool arguments: %w", err)
		}
		list = bytes.TrimSpace(envelope.Questions)
	}
	if len(list) == 0 || list[0] != '[' {
		return nil, errNotSequence
	}

	var items []json.RawMessage
	if err := json.Unmarshal(list, &items); err != nil {
		return nil, fmt.Errorf("parse question list: %w", err)
	}

	questions := make([]domain.Question, len(items))
	for i, raw := range items {
		var q domain.Question
		_ = json.Unmarshal(raw, &q)
		q.ID = i
		questions[i] = q
	}
	return questions, nil
}
