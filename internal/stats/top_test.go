package stats

import (
	"testing"

	"github.com/verte-zerg/fluent/internal/model"
)

func sampleTopics() []model.Topic {
	return []model.Topic{
		{ID: "t1", Name: "Food", Sentences: []model.Sentence{
			{ID: "a", Text: "Menu, please.", PracticeCount: 2, Selected: true},
			{ID: "b", Text: "The check.", PracticeCount: 7},
		}},
		{ID: "t2", Name: "Travel", Sentences: []model.Sentence{
			{ID: "c", Text: "Where is the station?", PracticeCount: 7, Selected: true},
			{ID: "d", Text: "One ticket.", PracticeCount: 0, Selected: true},
		}},
	}
}

func TestTopSentences(t *testing.T) {
	top := TopSentences(sampleTopics(), 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 sentences, got %d", len(top))
	}
	if top[0].Sentence.ID != "b" || top[1].Sentence.ID != "c" {
		t.Fatalf("unexpected order: %v", top)
	}
	if top[1].TopicName != "Travel" {
		t.Fatalf("expected topic name Travel, got %q", top[1].TopicName)
	}
}

func TestNeglectedSentences(t *testing.T) {
	got := NeglectedSentences(sampleTopics(), 0)
	if len(got) != 3 {
		t.Fatalf("expected 3 selected sentences, got %d", len(got))
	}
	if got[0].Sentence.ID != "d" || got[1].Sentence.ID != "a" || got[2].Sentence.ID != "c" {
		t.Fatalf("unexpected order: %v", got)
	}
}
