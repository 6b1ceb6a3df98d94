package main

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/verte-zerg/fluent/internal/api"
	"github.com/verte-zerg/fluent/internal/config"
	"github.com/verte-zerg/fluent/internal/logging"
	"github.com/verte-zerg/fluent/internal/model"
	"github.com/verte-zerg/fluent/internal/speech"
	"github.com/verte-zerg/fluent/internal/stats"
	"github.com/verte-zerg/fluent/internal/statsui"
	"github.com/verte-zerg/fluent/internal/transfer"
)

const defaultStatsTop = 10

var (
	statsWindow int
	statsPlain  bool
	statsColor  bool
	statsTop    int

	exportOut    string
	exportFormat string

	importYes bool

	speakOut    string
	speakAPIKey string

	serveAddr      string
	serveRateLimit int
	serveAPIKey    string
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().IntVar(&statsWindow, "window", defaultStatsWindow, "days shown in the activity chart")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print a text report instead of the interactive view")
	cmd.Flags().BoolVar(&statsColor, "color", false, "force colored output in --plain mode")
	cmd.Flags().IntVar(&statsTop, "top", defaultStatsTop, "sentences listed in --plain mode")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, appOptions{quiet: !statsPlain})
	if err != nil {
		return err
	}
	defer a.Close()

	applyIntConfig(cmd, "window", &statsWindow, a.fileCfg.Stats.Window)
	if statsWindow <= 0 {
		return fmt.Errorf("--window must be > 0")
	}
	cfg := model.StatsConfig{Window: statsWindow}

	if statsPlain {
		out := cmd.OutOrStdout()
		report := stats.BuildReport(a.store.Snapshot(), time.Now(), cfg)
		return report.Render(out, 0, statsTop, stats.ShouldUseColor(out, statsColor))
	}

	m := statsui.NewModel(a.store, cfg, time.Now)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup of all topics and sessions",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file, '-' for stdout (default: fluent-progress-backup-<date>.<ext>)")
	cmd.Flags().StringVar(&exportFormat, "format", "json", "export format (json, yaml)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	format, err := transfer.ParseFormat(exportFormat)
	if err != nil {
		return err
	}
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	data := a.store.Snapshot()
	if exportOut == "-" {
		return transfer.Export(cmd.OutOrStdout(), data, format)
	}
	path := exportOut
	if path == "" {
		path = transfer.ExportFileName(time.Now(), format)
	}
	if err := writeFileAtomic(path, func(w io.Writer) error {
		return transfer.Export(w, data, format)
	}); err != nil {
		return err
	}
	logErrf("Wrote %s\n", path)
	return nil
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace all data with a JSON backup",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
	cmd.Flags().BoolVarP(&importYes, "yes", "y", false, "skip the confirmation prompt")
	return cmd
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	file, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open import file: %w", err)
	}
	data, err := transfer.Decode(file)
	if cerr := file.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	if !importYes {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("refusing to replace data without confirmation (use --yes)")
		}
		prompt := fmt.Sprintf("Replace all data with %d topics and %d sessions from %s? [y/N] ",
			len(data.Topics), len(data.Sessions), args[0])
		if !confirm(os.Stdin, cmd.ErrOrStderr(), prompt) {
			logErrln("Import cancelled.")
			return nil
		}
	}

	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()
	if err := a.store.ReplaceAll(cmd.Context(), data); err != nil {
		return err
	}
	logErrf("Imported %d topics and %d sessions\n", len(data.Topics), len(data.Sessions))
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) bool {
	if _, err := fmt.Fprint(out, prompt); err != nil {
		return false
	}
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func newSpeakCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "speak <text>",
		Short: "Synthesize speech for a sentence and save it as WAV",
		Args:  cobra.ExactArgs(1),
		RunE:  runSpeakCmd,
	}
	cmd.Flags().StringVarP(&speakOut, "out", "o", "speech.wav", "output WAV file")
	cmd.Flags().StringVar(&speakAPIKey, "api-key", "", "speech API key (default: $"+config.EnvAPIKey+")")
	return cmd
}

func runSpeakCmd(cmd *cobra.Command, args []string) error {
	text := strings.TrimSpace(args[0])
	if text == "" {
		return fmt.Errorf("text must not be empty")
	}
	a, err := openApp(cmd, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close()

	key := a.apiKey(speakAPIKey)
	if key == "" {
		return fmt.Errorf("%w: set --api-key or $%s", speech.ErrMissingCredential, config.EnvAPIKey)
	}
	res, err := a.speechClient(key).Synthesize(cmd.Context(), speech.Request{Text: text})
	if err != nil {
		return fmt.Errorf("failed to synthesize speech: %w", err)
	}
	if err := speech.WriteFile(speakOut, res.AudioDataURI); err != nil {
		return err
	}
	logErrf("Wrote %s\n", speakOut)
	return nil
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the practice data over a JSON HTTP API",
		Args:  cobra.NoArgs,
		RunE:  runServeCmd,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", defaultServeAddr, "listen address")
	cmd.Flags().IntVar(&serveRateLimit, "rate-limit", defaultRateLimit, "requests per minute per client IP (0 disables)")
	cmd.Flags().StringVar(&serveAPIKey, "api-key", "", "speech API key used when requests carry none (default: $"+config.EnvAPIKey+")")
	return cmd
}

func runServeCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, appOptions{format: logging.FormatJSON})
	if err != nil {
		return err
	}
	defer a.Close()

	applyStringConfig(cmd, "addr", &serveAddr, a.fileCfg.Server.Addr)
	applyIntConfig(cmd, "rate-limit", &serveRateLimit, a.fileCfg.Server.RateLimit)
	if serveRateLimit < 0 {
		return fmt.Errorf("--rate-limit must be >= 0")
	}

	// An empty key still serves requests that carry their own.
	handler := api.NewHandler(a.store, a.speechClient(a.apiKey(serveAPIKey)), a.logger.Named("api"))

	ln, err := net.Listen("tcp", serveAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", serveAddr, err)
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	a.logger.Info("serving practice API",
		zap.String("addr", ln.Addr().String()),
		zap.String("db", a.dbPath),
		zap.Int("rate_limit", serveRateLimit),
	)
	return api.Serve(ctx, ln, handler.Router(serveRateLimit), a.logger)
}

// writeFileAtomic writes through a temp file in the target directory and
// renames it into place.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(dir, "fluent-export-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	writer := bufio.NewWriter(tmpFile)
	if err := write(writer); err != nil {
		return err
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
