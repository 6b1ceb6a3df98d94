package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/verte-zerg/fluent/internal/model"
	"github.com/verte-zerg/fluent/internal/phrasebook"
	"github.com/verte-zerg/fluent/internal/stats"
)

var (
	sentenceTranslation string
	sentenceCount       int
	sessionLast         int
)

func newTopicCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "topic",
		Short: "Manage topics",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List topics",
		Args:  cobra.NoArgs,
		RunE:  runTopicListCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Create a topic",
		Args:  cobra.ExactArgs(1),
		RunE:  runTopicAddCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "rename <topic-id> <name>",
		Short: "Rename a topic",
		Args:  cobra.ExactArgs(2),
		RunE:  runTopicRenameCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <topic-id>",
		Short: "Delete a topic and its sentences",
		Args:  cobra.ExactArgs(1),
		RunE:  runTopicDeleteCmd,
	})
	return cmd
}

func runTopicListCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()
	return stats.RenderTopicTable(cmd.OutOrStdout(), a.store.Snapshot().Topics)
}

func runTopicAddCmd(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	if name == "" {
		return fmt.Errorf("topic name must not be empty")
	}
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	topic := model.Topic{ID: model.NewTopicID(), Name: name, Sentences: []model.Sentence{}}
	if err := a.store.AddTopic(cmd.Context(), topic); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), topic.ID)
	return err
}

func runTopicRenameCmd(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[1])
	if name == "" {
		return fmt.Errorf("topic name must not be empty")
	}
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	topic, err := findTopic(a, args[0])
	if err != nil {
		return err
	}
	topic.Name = name
	return a.store.UpdateTopic(cmd.Context(), topic)
}

func runTopicDeleteCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := findTopic(a, args[0]); err != nil {
		return err
	}
	return a.store.DeleteTopic(cmd.Context(), args[0])
}

func newSentenceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sentence",
		Short: "Manage sentences",
	}

	list := &cobra.Command{
		Use:   "list [topic-id]",
		Short: "List sentences of a topic, or all selected sentences",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSentenceListCmd,
	}

	add := &cobra.Command{
		Use:   "add <topic-id> <text>",
		Short: "Add a sentence to a topic",
		Args:  cobra.ExactArgs(2),
		RunE:  runSentenceAddCmd,
	}
	add.Flags().StringVar(&sentenceTranslation, "translation", "", "translation shown under the sentence")

	edit := &cobra.Command{
		Use:   "edit <topic-id> <sentence-id> <text>",
		Short: "Change a sentence's text, translation or practice count",
		Args:  cobra.ExactArgs(3),
		RunE:  runSentenceEditCmd,
	}
	edit.Flags().StringVar(&sentenceTranslation, "translation", "", "new translation")
	edit.Flags().IntVar(&sentenceCount, "count", 0, "new practice count")

	load := &cobra.Command{
		Use:   "load <topic-id> <file>",
		Short: "Add sentences from a text file (one per line, tab before translation)",
		Args:  cobra.ExactArgs(2),
		RunE:  runSentenceLoadCmd,
	}

	cmd.AddCommand(list, add, edit, load)
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <topic-id> <sentence-id>",
		Short: "Delete a sentence",
		Args:  cobra.ExactArgs(2),
		RunE:  runSentenceDeleteCmd,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "select <topic-id> <sentence-id>",
		Short: "Add a sentence to the practice list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSentenceSelectCmd(cmd, args, true)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "unselect <topic-id> <sentence-id>",
		Short: "Remove a sentence from the practice list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSentenceSelectCmd(cmd, args, false)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "count <topic-id> <sentence-id>",
		Short: "Increment a sentence's practice count",
		Args:  cobra.ExactArgs(2),
		RunE:  runSentenceCountCmd,
	})
	return cmd
}

func runSentenceListCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if len(args) == 1 {
		topic, err := findTopic(a, args[0])
		if err != nil {
			return err
		}
		return stats.RenderTopicSentences(cmd.OutOrStdout(), topic)
	}
	selected := a.store.SelectedSentences()
	counts := make([]stats.SentenceCount, 0, len(selected))
	for _, s := range selected {
		counts = append(counts, stats.SentenceCount{TopicID: s.TopicID, TopicName: s.TopicName, Sentence: s.Sentence})
	}
	return stats.RenderSentenceTable(cmd.OutOrStdout(), counts)
}

func runSentenceAddCmd(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(args[1])
	if text == "" {
		return fmt.Errorf("sentence text must not be empty")
	}
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := findTopic(a, args[0]); err != nil {
		return err
	}
	sentence := model.Sentence{
		ID:          model.NewSentenceID(),
		Text:        text,
		Translation: strings.TrimSpace(sentenceTranslation),
	}
	if err := a.store.AddSentence(cmd.Context(), args[0], sentence); err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), sentence.ID)
	return err
}

func runSentenceEditCmd(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(args[2])
	if text == "" {
		return fmt.Errorf("sentence text must not be empty")
	}
	if sentenceCount < 0 {
		return fmt.Errorf("--count must be >= 0")
	}
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	sentence, err := findSentence(a, args[0], args[1])
	if err != nil {
		return err
	}
	sentence.Text = text
	if cmd.Flags().Changed("translation") {
		sentence.Translation = strings.TrimSpace(sentenceTranslation)
	}
	if cmd.Flags().Changed("count") {
		sentence.PracticeCount = sentenceCount
	}
	return a.store.UpdateSentence(cmd.Context(), args[0], sentence)
}

func runSentenceDeleteCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := findSentence(a, args[0], args[1]); err != nil {
		return err
	}
	return a.store.DeleteSentence(cmd.Context(), args[0], args[1])
}

func runSentenceSelectCmd(cmd *cobra.Command, args []string, selected bool) error {
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := findSentence(a, args[0], args[1]); err != nil {
		return err
	}
	return a.store.ToggleSentenceSelection(cmd.Context(), args[0], args[1], selected)
}

func runSentenceCountCmd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := findSentence(a, args[0], args[1]); err != nil {
		return err
	}
	if err := a.store.IncrementSentenceCount(cmd.Context(), args[0], args[1]); err != nil {
		return err
	}
	sentence, err := findSentence(a, args[0], args[1])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), sentence.PracticeCount)
	return err
}

func runSentenceLoadCmd(cmd *cobra.Command, args []string) error {
	entries, err := phrasebook.LoadSentences(args[1])
	if err != nil {
		return fmt.Errorf("failed to load sentences: %w", err)
	}
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	topic, err := findTopic(a, args[0])
	if err != nil {
		return err
	}
	for _, e := range entries {
		topic.Sentences = append(topic.Sentences, model.Sentence{
			ID:          model.NewSentenceID(),
			Text:        e.Text,
			Translation: e.Translation,
		})
	}
	if err := a.store.UpdateTopic(cmd.Context(), topic); err != nil {
		return err
	}
	logErrf("Added %d sentences to %s\n", len(entries), topic.Name)
	return nil
}

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage practice sessions",
	}
	list := &cobra.Command{
		Use:   "list",
		Short: "List practice sessions, newest first",
		Args:  cobra.NoArgs,
		RunE:  runSessionListCmd,
	}
	list.Flags().IntVar(&sessionLast, "last", 20, "limit to last N sessions (0 for all)")
	cmd.AddCommand(list)
	cmd.AddCommand(&cobra.Command{
		Use:   "log <duration>",
		Short: "Record a session that just ended (e.g. 15m, 1h30m)",
		Args:  cobra.ExactArgs(1),
		RunE:  runSessionLogCmd,
	})
	return cmd
}

func runSessionListCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()
	return stats.RenderSessionTable(cmd.OutOrStdout(), a.store.Snapshot().Sessions, sessionLast, time.Local)
}

func runSessionLogCmd(cmd *cobra.Command, args []string) error {
	d, err := time.ParseDuration(args[0])
	if err != nil {
		return fmt.Errorf("invalid duration: %w", err)
	}
	if d.Milliseconds() <= 0 {
		return fmt.Errorf("nothing to record: duration must be at least 1ms")
	}
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()
	return a.store.RecordPracticeSession(cmd.Context(), d)
}

func findTopic(a *app, topicID string) (model.Topic, error) {
	topic, ok := a.store.Topic(topicID)
	if !ok {
		return model.Topic{}, fmt.Errorf("topic %q not found (see: fluent topic list)", topicID)
	}
	return topic, nil
}

func findSentence(a *app, topicID, sentenceID string) (model.Sentence, error) {
	topic, err := findTopic(a, topicID)
	if err != nil {
		return model.Sentence{}, err
	}
	for _, s := range topic.Sentences {
		if s.ID == sentenceID {
			return s, nil
		}
	}
	return model.Sentence{}, fmt.Errorf("sentence %q not found in topic %q (see: fluent sentence list %s)", sentenceID, topicID, topicID)
}
