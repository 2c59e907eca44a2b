package cli

import "testing"

func TestConfigCmdSetAndGet(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	rootCmd.SetArgs([]string{"config", "shell.path", "zsh"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("config set: %v", err)
	}

	rootCmd.SetArgs([]string{"config", "shell.path"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("config get: %v", err)
	}
}

func TestConfigCmdList(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	rootCmd.SetArgs([]string{"config"})
	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("config list: %v", err)
	}
}
