package domain

import (
	"fmt"
	"strings"
	"time"
)

// BlankMarker is the placeholder inside IncompleteSentence that the player fills in.
const BlankMarker = "[___]"

// Mode selects how a session is played.
type Mode string

const (
	ModePractice  Mode = "practice"
	ModeChallenge Mode = "challenge"
)

const (
	practiceQuestions  = 5
	challengeQuestions = 10
)

// ParseMode accepts the mode name in any letter case.
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModePractice:
		return ModePractice, nil
	case ModeChallenge:
		return ModeChallenge, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, raw)
}

// TotalQuestions is the number of questions requested for the mode.
func (m Mode) TotalQuestions() int {
	if m == ModeChallenge {
		return challengeQuestions
	}
	return practiceQuestions
}

// ShowsFeedback reports whether every submission is followed by a feedback step.
func (m Mode) ShowsFeedback() bool {
	return m == ModePractice
}

// State is the position of a session in its lifecycle.
type State string

const (
	StateLoading   State = "loading"
	StateErrored   State = "errored"
	StateAnswering State = "answering"
	StateFeedback  State = "feedback"
	StateFinished  State = "finished"
)

// Terminal reports whether the only way out of the state is returning home.
func (s State) Terminal() bool {
	return s == StateErrored || s == StateFinished
}

// Question is one fill-in-the-blank verb item. ID is its position in the fetched set.
type Question struct {
	ID                 int    `json:"id"`
	IncompleteSentence string `json:"incompleteSentence"`
	Infinitive         string `json:"infinitive"`
	CorrectForm        string `json:"correctForm"`
	Tense              string `json:"tense"`
	Explanation        string `json:"explanation"`
}

// SentenceParts splits the sentence around the first blank marker.
// Without a marker the whole sentence is returned as the prefix.
func (q Question) SentenceParts() (before, after string) {
	before, after, _ = strings.Cut(q.IncompleteSentence, BlankMarker)
	return before, after
}

// Completed returns the sentence with the correct form filled into the blank.
func (q Question) Completed() string {
	return strings.Replace(q.IncompleteSentence, BlankMarker, "["+q.CorrectForm+"]", 1)
}

// IsCorrect compares an answer to the correct form ignoring case and surrounding whitespace.
func IsCorrect(answer string, q Question) bool {
	return strings.ToLower(strings.TrimSpace(answer)) == strings.ToLower(strings.TrimSpace(q.CorrectForm))
}

// Answer is the immutable record of one submission.
type Answer struct {
	Question   Question `json:"question"`
	UserAnswer string   `json:"userAnswer"`
	IsCorrect  bool     `json:"isCorrect"`
}

// NewAnswer grades text against q.
func NewAnswer(q Question, text string) Answer {
	return Answer{
		Question:   q,
		UserAnswer: strings.TrimSpace(text),
		IsCorrect:  IsCorrect(text, q),
	}
}

// Feedback is shown after a practice submission.
type Feedback struct {
	IsCorrect     bool   `json:"isCorrect"`
	CorrectAnswer string `json:"correctAnswer"`
	Explanation   string `json:"explanation"`
}

// QuestionView is the part of a question a player may see before answering.
type QuestionView struct {
	ID                 int    `json:"id"`
	IncompleteSentence string `json:"incompleteSentence"`
	Infinitive         string `json:"infinitive"`
	Tense              string `json:"tense"`
}

// View hides the answer and explanation.
func (q Question) View() QuestionView {
	return QuestionView{
		ID:                 q.ID,
		IncompleteSentence: q.IncompleteSentence,
		Infinitive:         q.Infinitive,
		Tense:              q.Tense,
	}
}

// Results summarizes a finished session.
type Results struct {
	Score   int      `json:"score"`
	Total   int      `json:"total"`
	Answers []Answer `json:"answers"`
}

// ScoreLine renders the score as "7 / 10".
func (r Results) ScoreLine() string {
	return fmt.Sprintf("%d / %d", r.Score, r.Total)
}

// Snapshot is a read-only copy of a session suitable for rendering.
type Snapshot struct {
	SessionID string        `json:"sessionId"`
	Mode      Mode          `json:"mode"`
	State     State         `json:"state"`
	Total     int           `json:"total"`
	Index     int           `json:"index"`
	Question  *QuestionView `json:"question,omitempty"`
	Input     string        `json:"input,omitempty"`
	Feedback  *Feedback     `json:"feedback,omitempty"`
	Answered  int           `json:"answered"`
	Results   *Results      `json:"results,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// Result is the score summary kept after a session finishes.
type Result struct {
	SessionID  string    `json:"sessionId"`
	Mode       Mode      `json:"mode"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	FinishedAt time.Time `json:"finishedAt"`
}
