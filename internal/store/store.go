// Package store holds the authoritative in-memory practice data and mirrors it
// to a durable key-value slot after every change.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/verte-zerg/fluent/internal/kv"
	"github.com/verte-zerg/fluent/internal/model"
	"github.com/verte-zerg/fluent/internal/stats"
	"github.com/verte-zerg/fluent/internal/transfer"
)

// DefaultKey is the storage slot holding the serialized AppData.
const DefaultKey = "fluent-progress-data"

// Store is not safe for concurrent use; callers serialize access.
type Store struct {
	backend kv.Backend
	key     string
	now     func() time.Time
	newID   func() string
	logger  *zap.Logger

	data     model.AppData
	seeded   bool
	onChange []func(model.AppData)
}

// Option configures a Store.
type Option func(*Store)

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithClock overrides the time source used for new sessions and statistics.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDFunc overrides session id generation.
func WithIDFunc(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// New creates a store holding the seed data. Call Load to hydrate it.
func New(backend kv.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     DefaultKey,
		now:     time.Now,
		newID:   model.NewSessionID,
		logger:  zap.NewNop(),
		data:    Seed(),
		seeded:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the in-memory state with the persisted slot. A missing,
// unreadable or malformed slot leaves the seed data in place.
func (s *Store) Load(ctx context.Context) {
	raw, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			s.logger.Debug("no saved data, using seed", zap.String("key", s.key))
		} else {
			s.logger.Warn("failed to read saved data, using seed", zap.String("key", s.key), zap.Error(err))
		}
		s.data = Seed()
		s.seeded = true
		return
	}
	data, err := transfer.Decode(bytes.NewReader(raw))
	if err != nil {
		s.logger.Warn("saved data is malformed, using seed", zap.String("key", s.key), zap.Error(err))
		s.data = Seed()
		s.seeded = true
		return
	}
	s.data = data
	s.seeded = false
	s.logger.Debug("loaded saved data",
		zap.Int("topics", len(data.Topics)),
		zap.Int("sessions", len(data.Sessions)),
	)
}

// Seeded reports whether the current state came from the built-in seed.
func (s *Store) Seeded() bool {
	return s.seeded
}

// OnChange registers fn to run after every mutation with the new state.
func (s *Store) OnChange(fn func(model.AppData)) {
	s.onChange = append(s.onChange, fn)
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() model.AppData {
	return s.data.Clone()
}

// Statistics derives streak and time metrics from the session log.
func (s *Store) Statistics() model.Statistics {
	return stats.Derive(s.data.Sessions, s.now())
}

// Topic returns a copy of the topic with the given id.
func (s *Store) Topic(topicID string) (model.Topic, bool) {
	idx := s.topicIndex(topicID)
	if idx < 0 {
		return model.Topic{}, false
	}
	t := s.data.Topics[idx]
	t.Sentences = append([]model.Sentence(nil), t.Sentences...)
	return t, true
}

// SelectedSentences lists every selected sentence across topics in topic order.
func (s *Store) SelectedSentences() []model.SelectedSentence {
	var out []model.SelectedSentence
	for _, t := range s.data.Topics {
		for _, sent := range t.Sentences {
			if !sent.Selected {
				continue
			}
			out = append(out, model.SelectedSentence{
				TopicID:   t.ID,
				TopicName: t.Name,
				Sentence:  sent,
			})
		}
	}
	return out
}

// AddTopic appends a topic. A topic whose id already exists is ignored.
func (s *Store) AddTopic(ctx context.Context, topic model.Topic) error {
	if s.topicIndex(topic.ID) >= 0 {
		return nil
	}
	topic.Sentences = uniqueSentences(topic.Sentences)
	s.data.Topics = append(s.data.Topics, topic)
	return s.commit(ctx, "add topic")
}

// UpdateTopic replaces the topic with the same id.
func (s *Store) UpdateTopic(ctx context.Context, topic model.Topic) error {
	idx := s.topicIndex(topic.ID)
	if idx < 0 {
		return nil
	}
	topic.Sentences = uniqueSentences(topic.Sentences)
	s.data.Topics[idx] = topic
	return s.commit(ctx, "update topic")
}

// DeleteTopic removes a topic and all of its sentences.
func (s *Store) DeleteTopic(ctx context.Context, topicID string) error {
	idx := s.topicIndex(topicID)
	if idx < 0 {
		return nil
	}
	s.data.Topics = append(s.data.Topics[:idx:idx], s.data.Topics[idx+1:]...)
	return s.commit(ctx, "delete topic")
}

// AddSentence appends a sentence to a topic. Duplicate ids are ignored.
func (s *Store) AddSentence(ctx context.Context, topicID string, sentence model.Sentence) error {
	idx := s.topicIndex(topicID)
	if idx < 0 {
		return nil
	}
	topic := &s.data.Topics[idx]
	if sentenceIndex(topic.Sentences, sentence.ID) >= 0 {
		return nil
	}
	sentence.PracticeCount = max(sentence.PracticeCount, 0)
	topic.Sentences = append(topic.Sentences, sentence)
	return s.commit(ctx, "add sentence")
}

// UpdateSentence replaces the sentence with the same id inside a topic.
func (s *Store) UpdateSentence(ctx context.Context, topicID string, sentence model.Sentence) error {
	return s.mutateSentence(ctx, "update sentence", topicID, sentence.ID, func(existing *model.Sentence) {
		sentence.PracticeCount = max(sentence.PracticeCount, 0)
		*existing = sentence
	})
}

// DeleteSentence removes a sentence from a topic.
func (s *Store) DeleteSentence(ctx context.Context, topicID, sentenceID string) error {
	idx := s.topicIndex(topicID)
	if idx < 0 {
		return nil
	}
	topic := &s.data.Topics[idx]
	sIdx := sentenceIndex(topic.Sentences, sentenceID)
	if sIdx < 0 {
		return nil
	}
	topic.Sentences = append(topic.Sentences[:sIdx:sIdx], topic.Sentences[sIdx+1:]...)
	return s.commit(ctx, "delete sentence")
}

// ToggleSentenceSelection sets the selected flag to exactly the given value.
func (s *Store) ToggleSentenceSelection(ctx context.Context, topicID, sentenceID string, selected bool) error {
	return s.mutateSentence(ctx, "select sentence", topicID, sentenceID, func(existing *model.Sentence) {
		existing.Selected = selected
	})
}

// IncrementSentenceCount adds one to the sentence's practice count.
func (s *Store) IncrementSentenceCount(ctx context.Context, topicID, sentenceID string) error {
	return s.mutateSentence(ctx, "increment sentence", topicID, sentenceID, func(existing *model.Sentence) {
		existing.PracticeCount++
	})
}

// RecordPracticeSession appends a session that ended now and lasted duration.
// Zero and negative durations are ignored.
func (s *Store) RecordPracticeSession(ctx context.Context, duration time.Duration) error {
	ms := duration.Milliseconds()
	if ms <= 0 {
		s.logger.Debug("ignoring empty practice session", zap.Duration("duration", duration))
		return nil
	}
	end := s.now().UnixMilli()
	s.data.Sessions = append(s.data.Sessions, model.PracticeSession{
		ID:        s.newID(),
		StartTime: end - ms,
		EndTime:   end,
		Duration:  ms,
	})
	return s.commit(ctx, "record session")
}

// ReplaceAll substitutes the whole state. The caller validates the shape.
func (s *Store) ReplaceAll(ctx context.Context, data model.AppData) error {
	s.data = data.Clone()
	return s.commit(ctx, "replace all")
}

func (s *Store) mutateSentence(ctx context.Context, op, topicID, sentenceID string, fn func(*model.Sentence)) error {
	idx := s.topicIndex(topicID)
	if idx < 0 {
		return nil
	}
	topic := &s.data.Topics[idx]
	sIdx := sentenceIndex(topic.Sentences, sentenceID)
	if sIdx < 0 {
		return nil
	}
	fn(&topic.Sentences[sIdx])
	return s.commit(ctx, op)
}

// commit persists the full state. The in-memory change stands even when the
// write fails.
func (s *Store) commit(ctx context.Context, op string) error {
	s.seeded = false
	for _, fn := range s.onChange {
		fn(s.data.Clone())
	}
	if err := s.save(ctx); err != nil {
		s.logger.Error("failed to persist data", zap.String("op", op), zap.Error(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	s.logger.Debug("persisted data", zap.String("op", op))
	return nil
}

func (s *Store) save(ctx context.Context) error {
	payload, err := json.Marshal(s.data.Clone())
	if err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}
	return s.backend.Put(ctx, s.key, payload)
}

func (s *Store) topicIndex(topicID string) int {
	for i, t := range s.data.Topics {
		if t.ID == topicID {
			return i
		}
	}
	return -1
}

func sentenceIndex(sentences []model.Sentence, sentenceID string) int {
	for i, sent := range sentences {
		if sent.ID == sentenceID {
			return i
		}
	}
	return -1
}

// uniqueSentences drops later duplicates of a sentence id and clamps counts.
func uniqueSentences(sentences []model.Sentence) []model.Sentence {
	out := make([]model.Sentence, 0, len(sentences))
	seen := make(map[string]struct{}, len(sentences))
	for _, sent := range sentences {
		if _, ok := seen[sent.ID]; ok {
			continue
		}
		seen[sent.ID] = struct{}{}
		sent.PracticeCount = max(sent.PracticeCount, 0)
		out = append(out, sent)
	}
	return out
}
