package utils

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirm asks the user to approve an action on items, reading the answer
// from in. It returns true without prompting when autoApprove is set.
func Confirm(in io.Reader, out io.Writer, autoApprove bool, action string, items []string) (bool, error) {
	if autoApprove {
		return true, nil
	}

	fmt.Fprintf(out, "\nAbout to %s the following %d item(s):\n", action, len(items))
	for i, item := range items {
		fmt.Fprintf(out, "  %d. %s\n", i+1, item)
	}
	fmt.Fprint(out, "\nAre you sure you want to continue? (yes/no): ")

	input, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && (err != io.EOF || input == "") {
		return false, fmt.Errorf("failed to read user confirmation: %w", err)
	}

	input = strings.ToLower(strings.TrimSpace(input))
	return input == "yes" || input == "y", nil
}
