package main

import (
	"testing"

	"appctl/cmd"
)

func TestVersion(t *testing.T) {
	if version != "dev" {
		t.Errorf("Expected default version to be 'dev', got %s", version)
	}
}

func TestSetVersion(t *testing.T) {
	original := cmd.GetVersion()
	defer cmd.SetVersion(original)

	cmd.SetVersion("1.2.3")
	if got := cmd.GetVersion(); got != "1.2.3" {
		t.Errorf("Expected version to be 1.2.3, got %s", got)
	}
}
