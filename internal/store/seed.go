package store

import "github.com/verte-zerg/fluent/internal/model"

// Seed returns the built-in starter data: three sample topics, no sessions.
func Seed() model.AppData {
	return model.AppData{
		Topics: []model.Topic{
			{
				ID:   "topic-1",
				Name: "Common Greetings",
				Sentences: []model.Sentence{
					{ID: "sent-1-1", Text: "How's it going?"},
					{ID: "sent-1-2", Text: "What have you been up to?"},
					{ID: "sent-1-3", Text: "It's a pleasure to meet you."},
				},
			},
			{
				ID:   "topic-2",
				Name: "Ordering Food",
				Sentences: []model.Sentence{
					{ID: "sent-2-1", Text: "I'd like to have the chicken salad, please."},
					{ID: "sent-2-2", Text: "Could we get the check, please?"},
					{ID: "sent-2-3", Text: "Do you have any vegetarian options?"},
				},
			},
			{
				ID:   "topic-3",
				Name: "Daily Conversations",
				Sentences: []model.Sentence{
					{ID: "sent-3-1", Text: "I'm not sure I follow you."},
					{ID: "sent-3-2", Text: "Could you please repeat that?"},
					{ID: "sent-3-3", Text: "On second thought, I think I'll pass."},
				},
			},
		},
		Sessions: []model.PracticeSession{},
	}
}
