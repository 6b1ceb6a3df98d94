package stats

import (
	"sort"

	"github.com/verte-zerg/fluent/internal/model"
)

// SentenceCount pairs a sentence with the name of its topic.
type SentenceCount struct {
	TopicID   string
	TopicName string
	Sentence  model.Sentence
}

// TopSentences returns the n most practised sentences. n <= 0 returns all.
func TopSentences(topics []model.Topic, n int) []SentenceCount {
	items := flatten(topics)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Sentence.PracticeCount > items[j].Sentence.PracticeCount
	})
	return limit(items, n)
}

// NeglectedSentences returns the n selected sentences with the lowest
// practice counts.
func NeglectedSentences(topics []model.Topic, n int) []SentenceCount {
	all := flatten(topics)
	items := all[:0]
	for _, item := range all {
		if item.Sentence.Selected {
			items = append(items, item)
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Sentence.PracticeCount < items[j].Sentence.PracticeCount
	})
	return limit(items, n)
}

func flatten(topics []model.Topic) []SentenceCount {
	var items []SentenceCount
	for _, t := range topics {
		for _, s := range t.Sentences {
			items = append(items, SentenceCount{TopicID: t.ID, TopicName: t.Name, Sentence: s})
		}
	}
	return items
}

func limit(items []SentenceCount, n int) []SentenceCount {
	if n > 0 && n < len(items) {
		return items[:n]
	}
	return items
}
