package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/gradebook/internal/config"
	"github.com/verte-zerg/gradebook/internal/model"
	"github.com/verte-zerg/gradebook/internal/translate"
)

const sampleRecord = `{
  "loaded": true,
  "gpa": "3.41",
  "202209": [
    {"SUBJ": "ARTS", "COURSE": "1020", "TITLE": "MEDIA STUDIO", "ATTEMPTED": "4", "GPA_HRS": "0", "POINTS": "0", "GRADE": "P", "CRN": 51234}
  ],
  "202301": [
    {"SUBJ": "MATH", "COURSE": "2010", "TITLE": "MULTIVARIABLE CALCULUS", "ATTEMPTED": "3", "GPA_HRS": "3", "POINTS": "12", "GRADE": "A", "CRN": "61001"},
    {"SUBJ": "PHYS", "COURSE": "1100", "TITLE": "PHYSICS I", "ATTEMPTED": 4, "GPA_HRS": 4, "POINTS": 10, "GRADE": "C+", "CRN": "61002"}
  ]
}`

func resetFlags() {
	gradesStudent = ""
	gradesExpandAll = false
	gradesDBPath = ""
	reportColor = false
	trendHeight = 0
}

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("NO_COLOR", "1")
	return dir
}

func TestImportThenReport(t *testing.T) {
	dir := isolate(t)
	db := filepath.Join(dir, "grades.db")

	out, err := runCLI(t, sampleRecord, "import", "--student", "661234567", "--db", db, "-")
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if !strings.Contains(out, "Imported 2 terms, 3 courses for 661234567") {
		t.Fatalf("unexpected import output: %q", out)
	}

	out, err = runCLI(t, "", "report", "--student", "661234567", "--db", db)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	for _, want := range []string{"3.41", "Spring 2023", "Fall 2022", "3.14", "Multivariable Calculus", "Physics I"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Spring 2023") > strings.Index(out, "Fall 2022") {
		t.Fatalf("expected most recent term first:\n%s", out)
	}

	out, err = runCLI(t, "", "terms", "--student", "661234567", "--db", db)
	if err != nil {
		t.Fatalf("terms: %v", err)
	}
	if out != "202301\tSpring 2023\n202209\tFall 2022\n" {
		t.Fatalf("unexpected terms output: %q", out)
	}

	out, err = runCLI(t, "", "trend", "--student", "661234567", "--db", db, "--height", "4")
	if err != nil {
		t.Fatalf("trend: %v", err)
	}
	if !strings.Contains(out, "Term GPA: latest=3.14") {
		t.Fatalf("unexpected trend output:\n%s", out)
	}

	out, err = runCLI(t, "", "students", "--db", db)
	if err != nil {
		t.Fatalf("students: %v", err)
	}
	if !strings.HasPrefix(out, "661234567\t2 terms\t3 courses\t") {
		t.Fatalf("unexpected students output: %q", out)
	}
}

func TestReportWithoutRecordFails(t *testing.T) {
	dir := isolate(t)
	db := filepath.Join(dir, "grades.db")
	if _, err := runCLI(t, "", "report", "--student", "missing", "--db", db); err == nil {
		t.Fatalf("expected error for missing record")
	}
}

func TestImportRequiresStudent(t *testing.T) {
	dir := isolate(t)
	db := filepath.Join(dir, "grades.db")
	if _, err := runCLI(t, sampleRecord, "import", "--db", db, "-"); err == nil {
		t.Fatalf("expected error without student")
	}
}

func TestImportRejectsMalformedRecord(t *testing.T) {
	dir := isolate(t)
	db := filepath.Join(dir, "grades.db")
	if _, err := runCLI(t, `["not", "an", "object"]`, "import", "--student", "1", "--db", db, "-"); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestConfigSuppliesStudentAndTerms(t *testing.T) {
	dir := isolate(t)
	db := filepath.Join(dir, "grades.db")
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	cfg := "[grades]\nstudent = \"661234567\"\n\n[terms]\n\"01\" = \"Winter\"\n"
	if err := os.WriteFile(path, []byte(cfg), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := runCLI(t, sampleRecord, "import", "--db", db, "-"); err != nil {
		t.Fatalf("import: %v", err)
	}
	out, err := runCLI(t, "", "terms", "--db", db)
	if err != nil {
		t.Fatalf("terms: %v", err)
	}
	if !strings.HasPrefix(out, "202301\tWinter 2023\n") {
		t.Fatalf("expected season override from config: %q", out)
	}
}

func TestDefaultConfigTemplateParses(t *testing.T) {
	var cfg config.FileConfig
	md, err := toml.Decode(defaultConfigTemplate(), &cfg)
	if err != nil {
		t.Fatalf("template should decode: %v", err)
	}
	if len(md.Undecoded()) != 0 {
		t.Fatalf("unexpected undecoded keys: %v", md.Undecoded())
	}
	if cfg.Grades.Student != nil || cfg.Grades.ExpandAll != nil {
		t.Fatalf("expected all template values commented out")
	}
}

func TestLoadViewBuildsSections(t *testing.T) {
	payload, err := model.ParsePayload([]byte(sampleRecord))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	snap := loadView(payload, translate.NewTerms(nil))
	if !snap.Loaded() || snap.Failed() {
		t.Fatalf("expected loaded state, got %s", snap.State)
	}
	if len(snap.Sections) != 2 || snap.Sections[0].TermCode != "202301" {
		t.Fatalf("unexpected sections: %+v", snap.Sections)
	}
}

func TestLoadViewLeavesPayloadUntouched(t *testing.T) {
	payload := &model.Payload{GPA: 3.0, Terms: []model.Term{{Code: "202301"}}}
	snap := loadView(payload, translate.NewTerms(nil))
	if !snap.Loaded() || len(snap.Sections) != 1 {
		t.Fatalf("expected loaded view, got %s", snap.State)
	}
	if payload.Loaded {
		t.Fatalf("expected caller payload not marked loaded")
	}
}
