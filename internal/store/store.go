// Package store handles SQLite persistence of imported grade records.
package store

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/verte-zerg/gradebook/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// importedAtLayout is fixed-width UTC so that string order is time order.
const importedAtLayout = "2006-01-02T15:04:05.000000000Z"

// ErrNoPayload is returned when a student has no imported record.
var ErrNoPayload = errors.New("no grade record imported for student")

// Store wraps SQLite access for grade records.
type Store struct {
	db *sql.DB
}

// StudentRecord summarizes one imported record.
type StudentRecord struct {
	Student    string
	ImportedAt time.Time
	Terms      int
	Courses    int
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS records (
			student TEXT PRIMARY KEY,
			gpa REAL,
			imported_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS terms (
			student TEXT NOT NULL,
			code TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (student, position)
		);`,
		`CREATE TABLE IF NOT EXISTS courses (
			student TEXT NOT NULL,
			term_position INTEGER NOT NULL,
			position INTEGER NOT NULL,
			subject TEXT NOT NULL,
			course_number TEXT NOT NULL,
			title_code TEXT NOT NULL,
			attempted REAL NOT NULL,
			gpa_hours REAL NOT NULL,
			points REAL NOT NULL,
			grade TEXT NOT NULL,
			course_id TEXT NOT NULL,
			PRIMARY KEY (student, term_position, position)
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// SavePayload replaces the stored record for student.
func (s *Store) SavePayload(ctx context.Context, student string, payload model.Payload, importedAt time.Time) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			if rerr := tx.Rollback(); rerr != nil {
				// Best-effort rollback.
				_ = rerr
			}
		}
	}()

	for _, stmt := range []string{
		`DELETE FROM courses WHERE student = ?`,
		`DELETE FROM terms WHERE student = ?`,
		`DELETE FROM records WHERE student = ?`,
	} {
		if _, err = tx.ExecContext(ctx, stmt, student); err != nil {
			return err
		}
	}

	var gpa sql.NullFloat64
	if !math.IsNaN(payload.GPA) && !math.IsInf(payload.GPA, 0) {
		gpa = sql.NullFloat64{Float64: payload.GPA, Valid: true}
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO records (student, gpa, imported_at) VALUES (?, ?, ?)`,
		student, gpa, importedAt.UTC().Format(importedAtLayout),
	); err != nil {
		return err
	}

	termStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO terms (student, code, position) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := termStmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()
	courseStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO courses (student, term_position, position, subject, course_number, title_code, attempted, gpa_hours, points, grade, course_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := courseStmt.Close(); cerr != nil {
			// Best-effort statement close.
			_ = cerr
		}
	}()

	for ti, term := range payload.Terms {
		if _, err = termStmt.ExecContext(ctx, student, term.Code, ti); err != nil {
			return err
		}
		for ci, c := range term.Courses {
			if _, err = courseStmt.ExecContext(ctx, student, ti, ci,
				c.Subject, c.CourseNumber, c.TitleCode,
				c.Attempted, c.GPAHours, c.Points, c.Grade, c.CourseID,
			); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// LoadPayload returns the stored record for student, or ErrNoPayload.
func (s *Store) LoadPayload(ctx context.Context, student string) (*model.Payload, error) {
	var gpa sql.NullFloat64
	var importedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT gpa, imported_at FROM records WHERE student = ?`, student,
	).Scan(&gpa, &importedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoPayload
	}
	if err != nil {
		return nil, err
	}

	payload := &model.Payload{Loaded: true, GPA: math.NaN()}
	if gpa.Valid {
		payload.GPA = gpa.Float64
	}

	terms, err := s.loadTerms(ctx, student)
	if err != nil {
		return nil, err
	}
	if err := s.loadCourses(ctx, student, terms); err != nil {
		return nil, err
	}
	payload.Terms = terms
	return payload, nil
}

func (s *Store) loadTerms(ctx context.Context, student string) ([]model.Term, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT code FROM terms WHERE student = ? ORDER BY position ASC`, student)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var terms []model.Term
	for rows.Next() {
		var term model.Term
		if err := rows.Scan(&term.Code); err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return terms, nil
}

func (s *Store) loadCourses(ctx context.Context, student string, terms []model.Term) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT term_position, subject, course_number, title_code, attempted, gpa_hours, points, grade, course_id
		 FROM courses
		 WHERE student = ?
		 ORDER BY term_position ASC, position ASC`, student)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	for rows.Next() {
		var termPos int
		var c model.Course
		if err := rows.Scan(&termPos, &c.Subject, &c.CourseNumber, &c.TitleCode,
			&c.Attempted, &c.GPAHours, &c.Points, &c.Grade, &c.CourseID); err != nil {
			return err
		}
		if termPos < 0 || termPos >= len(terms) {
			continue
		}
		terms[termPos].Courses = append(terms[termPos].Courses, c)
	}
	return rows.Err()
}

// ListStudents returns every imported record, most recent import first.
func (s *Store) ListStudents(ctx context.Context) ([]StudentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.student, r.imported_at,
			(SELECT COUNT(*) FROM terms t WHERE t.student = r.student),
			(SELECT COUNT(*) FROM courses c WHERE c.student = r.student)
		 FROM records r
		 ORDER BY r.imported_at DESC, r.student ASC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var out []StudentRecord
	for rows.Next() {
		var rec StudentRecord
		var importedAt string
		if err := rows.Scan(&rec.Student, &importedAt, &rec.Terms, &rec.Courses); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(importedAtLayout, importedAt)
		if err != nil {
			return nil, err
		}
		rec.ImportedAt = parsed
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
