// Package model defines shared data structures.
package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Sentence is a single phrase to rehearse.
type Sentence struct {
	ID            string `json:"id" yaml:"id"`
	Text          string `json:"text" yaml:"text"`
	Translation   string `json:"translation,omitempty" yaml:"translation,omitempty"`
	PracticeCount int    `json:"practiceCount" yaml:"practiceCount"`
	Selected      bool   `json:"selected" yaml:"selected"`
}

// UnmarshalJSON accepts the legacy "vietnamese" key as the translation.
func (s *Sentence) UnmarshalJSON(data []byte) error {
	type plain Sentence
	var raw struct {
		plain
		Vietnamese string `json:"vietnamese"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Sentence(raw.plain)
	if s.Translation == "" {
		s.Translation = raw.Vietnamese
	}
	if s.PracticeCount < 0 {
		s.PracticeCount = 0
	}
	return nil
}

// Topic is a named group of sentences. Sentences keep insertion order.
type Topic struct {
	ID        string     `json:"id" yaml:"id"`
	Name      string     `json:"name" yaml:"name"`
	Sentences []Sentence `json:"sentences" yaml:"sentences"`
}

// PracticeSession is one timed speaking interval. Times are epoch milliseconds.
type PracticeSession struct {
	ID        string `json:"id" yaml:"id"`
	StartTime int64  `json:"startTime" yaml:"startTime"`
	EndTime   int64  `json:"endTime" yaml:"endTime"`
	Duration  int64  `json:"duration" yaml:"duration"`
}

// Ended returns the end time as a time.Time in loc.
func (p PracticeSession) Ended(loc *time.Location) time.Time {
	return time.UnixMilli(p.EndTime).In(loc)
}

// AppData is the entire persisted state.
type AppData struct {
	Topics   []Topic           `json:"topics" yaml:"topics"`
	Sessions []PracticeSession `json:"sessions" yaml:"sessions"`
}

// Clone returns a deep copy of the data.
func (d AppData) Clone() AppData {
	out := AppData{
		Topics:   make([]Topic, len(d.Topics)),
		Sessions: make([]PracticeSession, len(d.Sessions)),
	}
	for i, t := range d.Topics {
		t.Sentences = append([]Sentence(nil), t.Sentences...)
		if t.Sentences == nil {
			t.Sentences = []Sentence{}
		}
		out.Topics[i] = t
	}
	copy(out.Sessions, d.Sessions)
	return out
}

// Statistics is derived from the session log and never stored.
type Statistics struct {
	CurrentStreak     int    `json:"currentStreak"`
	LongestStreak     int    `json:"longestStreak"`
	TimeToday         int64  `json:"timeToday"`
	TotalTime         int64  `json:"totalTime"`
	TotalPracticeDays int    `json:"totalPracticeDays"`
	LastSessionDate   *int64 `json:"lastSessionDate"`
}

// SelectedSentence is a selected sentence together with its owning topic.
type SelectedSentence struct {
	TopicID   string   `json:"topicId"`
	TopicName string   `json:"topicName"`
	Sentence  Sentence `json:"sentence"`
}

// Config defines practice settings.
type Config struct {
	FocusLeast  bool
	FocusFactor float64
	TickMs      int
}

// StatsConfig defines options for stats output.
type StatsConfig struct {
	Window int
}

// NewTopicID returns a fresh topic id.
func NewTopicID() string {
	return "topic-" + uuid.NewString()
}

// NewSentenceID returns a fresh sentence id.
func NewSentenceID() string {
	return "sent-" + uuid.NewString()
}

// NewSessionID returns a fresh session id.
func NewSessionID() string {
	return "session-" + uuid.NewString()
}
