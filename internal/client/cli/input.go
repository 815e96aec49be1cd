package cli

import (
	"fmt"
	"strconv"
	"strings"
)

func (a *App) readLine(prompt string) (string, error) {
	fmt.Fprint(a.out, prompt)
	line, err := a.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// parseIndex converts a 1-based user-facing index into a slice index.
func parseIndex(arg string, length int) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > length {
		return 0, fmt.Errorf("expected a number between 1 and %d", length)
	}
	return n - 1, nil
}
