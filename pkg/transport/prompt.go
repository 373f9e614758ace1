package transport

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// PromptSelector asks on w which port to use and reads the answer from r.
// Invalid answers are asked again until r is exhausted.
func PromptSelector(r io.Reader, w io.Writer) Selector {
	reader := bufio.NewReader(r)
	return func(choices []string) (int, error) {
		if len(choices) == 0 {
			return 0, errors.New("no ports to choose from")
		}

		fmt.Fprintln(w, "Available ports:")
		for i, c := range choices {
			fmt.Fprintf(w, "  %d: %s\n", i, c)
		}

		for {
			fmt.Fprintf(w, "Select which port number to use (0-%d): ", len(choices)-1)
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				return 0, fmt.Errorf("failed to read selection: %w", err)
			}
			choice, convErr := strconv.Atoi(strings.TrimSpace(line))
			if convErr == nil && choice >= 0 && choice < len(choices) {
				return choice, nil
			}
			fmt.Fprintf(w, "invalid selection %q\n", strings.TrimSpace(line))
			if err != nil {
				return 0, fmt.Errorf("failed to read selection: %w", err)
			}
		}
	}
}
