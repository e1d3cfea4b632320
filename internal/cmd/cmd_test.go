package cmd

import "testing"

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "taskchecker" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "taskchecker")
	}

	expected := []string{"run", "status", "version"}
	cmdMap := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		cmdMap[c.Name()] = true
	}
	for _, name := range expected {
		if !cmdMap[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestPersistentFlags(t *testing.T) {
	for _, name := range []string{"config", "user"} {
		if rootCmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("expected persistent flag %q not found", name)
		}
	}
}
