package main

import (
	"path/filepath"
	"strings"
	"testing"
)

func TestFolderURL(t *testing.T) {
	dir := t.TempDir()
	got := folderURL(dir)
	if !strings.HasPrefix(got, "file:///") {
		t.Fatalf("url = %q", got)
	}
	if !strings.HasSuffix(got, filepath.Base(dir)) {
		t.Errorf("url %q does not end with %q", got, filepath.Base(dir))
	}
}

func TestArcadeMenuHasGameNavigation(t *testing.T) {
	m := arcadeMenu(&shell{}, nil, t.TempDir())
	var labels []string
	for _, item := range m.Items {
		labels = append(labels, item.Label)
	}
	joined := strings.Join(labels, ",")
	for _, want := range []string{"File", "Game", "View", "Help"} {
		if !strings.Contains(joined, want) {
			t.Errorf("menu %q missing %s", joined, want)
		}
	}
}
