package main

import (
	"testing"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("command has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "a11yaudit" {
			t.Errorf("expected Use to be 'a11yaudit', got %q", cmd.Use)
		}
	})

	t.Run("command has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected Version to be non-empty")
		}
	})

	t.Run("errors are reported by Execute", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage || !cmd.SilenceErrors {
			t.Error("expected usage and errors to be silenced")
		}
	})

	t.Run("has verbose persistent flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected verbose shorthand 'v', got %q", flag.Shorthand)
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()

		want := map[string]bool{"audit": false, "history": false, "init": false, "version": false}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Name()]; ok {
				want[sub.Name()] = true
			}
		}
		for name, found := range want {
			if !found {
				t.Errorf("expected %s subcommand", name)
			}
		}
	})
}

func TestGetVerboseFlag(t *testing.T) {
	t.Parallel()

	t.Run("inherits from root", func(t *testing.T) {
		t.Parallel()

		root := NewRootCmd()
		if err := root.PersistentFlags().Set("verbose", "true"); err != nil {
			t.Fatal(err)
		}

		audit, _, err := root.Find([]string{"audit"})
		if err != nil {
			t.Fatal(err)
		}
		if !getVerboseFlag(audit) {
			t.Error("expected verbose to be true")
		}
	})

	t.Run("defaults to false without the flag", func(t *testing.T) {
		t.Parallel()

		if getVerboseFlag(NewVersionCmd()) {
			t.Error("expected verbose to be false")
		}
	})
}
