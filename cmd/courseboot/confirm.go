package main

import (
	"fmt"
	"strings"
)

// confirmApply asks the user to approve the pending changes. The --yes flag
// short-circuits the prompt.
func confirmApply(summary string) (bool, error) {
	if yesFlag {
		return true, nil
	}

	fmt.Printf("%s [y/N]: ", summary)
	var response string
	if _, err := fmt.Scanln(&response); err != nil {
		// EOF or closed stdin reads as a decline, not a failure.
		return false, nil
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes", nil
}
