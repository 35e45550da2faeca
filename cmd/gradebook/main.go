// Package main provides the CLI entrypoint for gradebook.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/gradebook/internal/config"
	"github.com/verte-zerg/gradebook/internal/model"
	"github.com/verte-zerg/gradebook/internal/report"
	"github.com/verte-zerg/gradebook/internal/source"
	"github.com/verte-zerg/gradebook/internal/store"
	"github.com/verte-zerg/gradebook/internal/translate"
	"github.com/verte-zerg/gradebook/internal/tui"
	"github.com/verte-zerg/gradebook/internal/view"
)

var (
	gradesStudent   string
	gradesExpandAll bool
	gradesDBPath    string

	reportColor bool
	trendHeight int
)

// settings is the resolved configuration shared by every command.
type settings struct {
	cfg     model.Config
	terms   *translate.Terms
	courses *translate.Courses
}

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "gradebook",
		Short:         "Browse a student's grades by term",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runGradesCmd,
	}

	rootCmd.PersistentFlags().StringVar(&gradesStudent, "student", "", "student ID (skips the login prompt)")
	rootCmd.PersistentFlags().StringVar(&gradesDBPath, "db", "", "path to the grades database")
	rootCmd.Flags().BoolVar(&gradesExpandAll, "expand-all", false, "open every term on load")

	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newReportCmd())
	rootCmd.AddCommand(newTermsCmd())
	rootCmd.AddCommand(newTrendCmd())
	rootCmd.AddCommand(newStudentsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func loadSettings(cmd *cobra.Command) (settings, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "student", &gradesStudent, fileCfg.Grades.Student)
	applyStringConfig(cmd, "db", &gradesDBPath, fileCfg.Grades.DBPath)
	applyBoolConfig(cmd, "expand-all", &gradesExpandAll, fileCfg.Grades.ExpandAll)

	cfg := model.Config{
		Student:   strings.TrimSpace(gradesStudent),
		ExpandAll: gradesExpandAll,
		DBPath:    strings.TrimSpace(gradesDBPath),
	}
	if cfg.DBPath == "" {
		cfg.DBPath = config.DefaultDBPath()
	}
	return settings{
		cfg:     cfg,
		terms:   translate.NewTerms(fileCfg.Terms),
		courses: translate.NewCourses(fileCfg.Courses),
	}, nil
}

func openStore(path string) (*store.Store, func(), error) {
	st, err := store.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open db: %w", err)
	}
	closeFn := func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}
	return st, closeFn, nil
}

func runGradesCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(s.cfg.DBPath)
	if err != nil {
		return err
	}
	defer closeStore()

	cache := source.NewCache(source.NewNotifier())
	app := tui.NewModel(st, cache, tui.Options{
		Student:   s.cfg.Student,
		ExpandAll: s.cfg.ExpandAll,
		Terms:     s.terms,
		Courses:   s.courses,
	})
	program := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json|->",
		Short: "Import a term-keyed grade record",
		Args:  cobra.ExactArgs(1),
		RunE:  runImportCmd,
	}
}

func runImportCmd(cmd *cobra.Command, args []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	if s.cfg.Student == "" {
		return fmt.Errorf("--student is required")
	}
	data, err := readInput(cmd.InOrStdin(), args[0])
	if err != nil {
		return err
	}
	payload, err := model.ParsePayload(data)
	if err != nil {
		return fmt.Errorf("failed to parse grade record: %w", err)
	}

	st, closeStore, err := openStore(s.cfg.DBPath)
	if err != nil {
		return err
	}
	defer closeStore()
	if err := st.SavePayload(context.Background(), s.cfg.Student, *payload, time.Now()); err != nil {
		return fmt.Errorf("failed to save grade record: %w", err)
	}

	snap := loadView(payload, s.terms)
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "Imported %s for %s\n", report.Summary(snap.Sections), s.cfg.Student)
	return err
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return data, nil
}

// loadView runs payload through a controller the same way the TUI does.
func loadView(payload *model.Payload, terms *translate.Terms) view.ViewState {
	cache := source.NewCache(source.NewNotifier())
	ctrl := view.NewController(cache, terms)
	ctrl.Mount()
	defer ctrl.Unmount()
	cache.Store(payload)
	return ctrl.Snapshot()
}

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print grades as text",
		Args:  cobra.NoArgs,
		RunE:  runReportCmd,
	}
	cmd.Flags().BoolVar(&reportColor, "color", false, "force colored grade badges")
	return cmd
}

func runReportCmd(cmd *cobra.Command, _ []string) error {
	s, snap, err := loadStudentView(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	return report.Render(out, snap.OverallGPA, snap.Sections, report.Options{
		Courses: s.courses,
		Color:   report.ShouldUseColor(out, reportColor),
		Width:   report.TerminalWidth(),
	})
}

func newTrendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Plot term and cumulative GPA over time",
		Args:  cobra.NoArgs,
		RunE:  runTrendCmd,
	}
	cmd.Flags().BoolVar(&reportColor, "color", false, "force colored plot output")
	cmd.Flags().IntVar(&trendHeight, "height", 0, "plot height in rows")
	return cmd
}

func runTrendCmd(cmd *cobra.Command, _ []string) error {
	_, snap, err := loadStudentView(cmd)
	if err != nil {
		return err
	}
	if trendHeight < 0 {
		return fmt.Errorf("--height must be >= 0")
	}
	out := cmd.OutOrStdout()
	return report.RenderTrend(out, snap.Sections, report.TrendOptions{
		Color:  report.ShouldUseColor(out, reportColor),
		Width:  report.TerminalWidth(),
		Height: trendHeight,
	})
}

func newTermsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "terms",
		Short: "List terms on record, most recent first",
		Args:  cobra.NoArgs,
		RunE:  runTermsCmd,
	}
}

func runTermsCmd(cmd *cobra.Command, _ []string) error {
	_, snap, err := loadStudentView(cmd)
	if err != nil {
		return err
	}
	for _, section := range snap.Sections {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", section.TermCode, section.TermLabel); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func loadStudentView(cmd *cobra.Command) (settings, view.ViewState, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return settings{}, view.ViewState{}, err
	}
	if s.cfg.Student == "" {
		return settings{}, view.ViewState{}, fmt.Errorf("--student is required")
	}
	st, closeStore, err := openStore(s.cfg.DBPath)
	if err != nil {
		return settings{}, view.ViewState{}, err
	}
	defer closeStore()
	payload, err := st.LoadPayload(context.Background(), s.cfg.Student)
	if err != nil {
		if errors.Is(err, store.ErrNoPayload) {
			logErrf("Import a record with: gradebook import --student %s <file.json>\n", s.cfg.Student)
		}
		return settings{}, view.ViewState{}, fmt.Errorf("failed to load grades for %s: %w", s.cfg.Student, err)
	}
	return s, loadView(payload, s.terms), nil
}

func newStudentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "students",
		Short: "List imported grade records",
		Args:  cobra.NoArgs,
		RunE:  runStudentsCmd,
	}
}

func runStudentsCmd(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	st, closeStore, err := openStore(s.cfg.DBPath)
	if err != nil {
		return err
	}
	defer closeStore()
	recs, err := st.ListStudents(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list records: %w", err)
	}
	if len(recs) == 0 {
		logErrln("No grade records imported. Import with: gradebook import --student <id> <file.json>")
		return nil
	}
	for _, rec := range recs {
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d terms\t%d courses\t%s\n",
			rec.Student, rec.Terms, rec.Courses, rec.ImportedAt.Local().Format("2006-01-02 15:04")); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if flag := cmd.Flags().Lookup(name); flag != nil && flag.Changed {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if flag := cmd.Flags().Lookup(name); flag != nil && flag.Changed {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# gradebook configuration
# Uncomment a value to enable it. CLI flags override config values.

[grades]
# student = "661234567"   # Student ID to open without the login prompt
# expand-all = false      # Open every term on load
# db = %q

[terms]
# Season names keyed by the last two digits of a term code.
# "01" = "Spring"
# "05" = "Summer"
# "09" = "Fall"
# "12" = "Winter"

[courses]
# Display titles keyed by registrar title code.
# "INTRO TO ITWS" = "Intro to ITWS"
`, config.DefaultDBPath())
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
