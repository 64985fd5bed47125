package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/golang-migrate/migrate/v4"
)

type fakeMigrator struct {
	upErr      error
	steps      []int
	forced     []int
	version    uint
	versionErr error
}

func (f *fakeMigrator) Up() error { return f.upErr }

func (f *fakeMigrator) Steps(n int) error {
	f.steps = append(f.steps, n)
	return nil
}

func (f *fakeMigrator) Force(v int) error {
	f.forced = append(f.forced, v)
	return nil
}

func (f *fakeMigrator) Version() (uint, bool, error) { return f.version, false, f.versionErr }

func TestRunUpTreatsNoChangeAsSuccess(t *testing.T) {
	msg, err := run(&fakeMigrator{upErr: migrate.ErrNoChange}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg != "migrations complete" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestRunUpPropagatesErrors(t *testing.T) {
	if _, err := run(&fakeMigrator{upErr: errors.New("dirty database")}, []string{"up"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestRunDownSteps(t *testing.T) {
	m := &fakeMigrator{}
	if _, err := run(m, []string{"down"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := run(m, []string{"down", "2"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.steps) != 2 || m.steps[0] != -1 || m.steps[1] != -2 {
		t.Fatalf("unexpected steps %v", m.steps)
	}
	if _, err := run(m, []string{"down", "zero"}); err == nil {
		t.Fatalf("expected error for invalid count")
	}
}

func TestRunForce(t *testing.T) {
	m := &fakeMigrator{}
	if _, err := run(m, []string{"force"}); err == nil {
		t.Fatalf("expected error without version")
	}
	if _, err := run(m, []string{"force", "1"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.forced) != 1 || m.forced[0] != 1 {
		t.Fatalf("unexpected forced %v", m.forced)
	}
}

func TestRunVersion(t *testing.T) {
	msg, err := run(&fakeMigrator{versionErr: migrate.ErrNilVersion}, []string{"version"})
	if err != nil || msg != "no migrations applied" {
		t.Fatalf("unexpected result %q, %v", msg, err)
	}
	msg, err = run(&fakeMigrator{version: 1}, []string{"version"})
	if err != nil || !strings.Contains(msg, "version 1") {
		t.Fatalf("unexpected result %q, %v", msg, err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	if _, err := run(&fakeMigrator{}, []string{"sideways"}); err == nil {
		t.Fatalf("expected error")
	}
}
