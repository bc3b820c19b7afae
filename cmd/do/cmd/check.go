package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
)

type check struct {
	name  string
	bin   string
	args  []string
	skip  bool
	clean func(out []byte) error // inspects output when exit status alone is not enough
}

func CheckCmd() *cobra.Command {
	var skipTests bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run gofmt, go vet and go test in parallel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecks(skipTests)
		},
	}
	cmd.Flags().BoolVar(&skipTests, "skip-tests", false, "only run gofmt and go vet")

	return cmd
}

func runChecks(skipTests bool) error {
	checks := []check{
		{
			name:  "gofmt",
			bin:   "gofmt",
			args:  []string{"-l", "cmd", "internal", "assets"},
			clean: unformatted,
		},
		{
			name: "vet",
			bin:  "go",
			args: []string{"vet", "./..."},
		},
		{
			name: "test",
			bin:  "go",
			args: []string{"test", "-race", "./..."},
			skip: skipTests,
		},
	}

	start := time.Now()
	var wg sync.WaitGroup
	errCh := make(chan error, len(checks))

	for _, c := range checks {
		wg.Add(1)
		go func(c check) {
			defer wg.Done()

			if c.skip {
				fmt.Printf("[%s] skipped\n", c.name)
				return
			}

			checkStart := time.Now()
			var out bytes.Buffer
			cmd := exec.Command(c.bin, c.args...)
			cmd.Stdout = &out
			cmd.Stderr = &out
			err := cmd.Run()
			if err == nil && c.clean != nil {
				err = c.clean(out.Bytes())
			}

			if err != nil {
				_, _ = os.Stdout.Write(out.Bytes())
				errCh <- fmt.Errorf("%s: %w", c.name, err)
				return
			}

			fmt.Printf("[%s] ok (%s)\n", c.name, time.Since(checkStart).Round(time.Millisecond))
		}(c)
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Println("error:", err)
		}
		return fmt.Errorf("checks failed")
	}

	fmt.Printf("done (%s)\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// unformatted fails when gofmt -l listed any file.
func unformatted(out []byte) error {
	files := strings.Fields(string(out))
	if len(files) > 0 {
		return fmt.Errorf("%d file(s) need gofmt", len(files))
	}
	return nil
}
