package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// templRoot holds every .templ source in the module.
const templRoot = "internal/ui"

func GenCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate Go code from .templ files",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "regenerate even when every _templ.go is newer than its source")

	return cmd
}

func runGen(force bool) error {
	if !force && templUpToDate(templRoot) {
		fmt.Println("[templ] skipped")
		return nil
	}

	start := time.Now()
	// templ is pinned by the tool directive in go.mod
	cmd := exec.Command("go", "tool", "templ", "generate", "-path", templRoot)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("templ: %w", err)
	}

	fmt.Printf("[templ] done (%s)\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// templUpToDate reports whether every .templ file under root has a newer _templ.go.
func templUpToDate(root string) bool {
	upToDate := true
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".templ") {
			return nil
		}
		outFile := strings.TrimSuffix(path, ".templ") + "_templ.go"
		if !isUpToDate(outFile, []string{path}) {
			upToDate = false
			return filepath.SkipAll
		}
		return nil
	})
	return upToDate
}

func isUpToDate(output string, inputs []string) bool {
	outInfo, err := os.Stat(output)
	if err != nil {
		return false
	}
	outMod := outInfo.ModTime()

	for _, input := range inputs {
		inInfo, err := os.Stat(input)
		if err != nil {
			continue
		}
		if inInfo.ModTime().After(outMod) {
			return false
		}
	}
	return true
}
