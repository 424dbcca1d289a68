package cli

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// conflictAction is the per-file outcome of a conflict resolution.
type conflictAction int

const (
	conflictActionSkip conflictAction = iota
	conflictActionOverwrite
)

// resolveConflict applies the current policy to one existing file,
// prompting when the policy is interactive. "All" answers upgrade the
// policy for the rest of the batch.
func resolveConflict(policy conflictPolicy, fileName string) (conflictAction, conflictPolicy, error) {
	switch policy {
	case conflictSkipAll:
		return conflictActionSkip, policy, nil
	case conflictOverwriteAll:
		return conflictActionOverwrite, policy, nil
	}

	for {
		fmt.Printf("\nFile '%s' already exists.\n", fileName)
		fmt.Println("  1. Skip (once)")
		fmt.Println("  2. Skip all existing files")
		fmt.Println("  3. Overwrite (once)")
		fmt.Println("  4. Overwrite all existing files")
		fmt.Println("  5. Abort")
		fmt.Print("Choose [1-5]: ")

		input, err := readLine()
		if err != nil {
			return conflictActionSkip, policy, err
		}

		switch input {
		case "1":
			return conflictActionSkip, conflictPrompt, nil
		case "2":
			return conflictActionSkip, conflictSkipAll, nil
		case "3":
			return conflictActionOverwrite, conflictPrompt, nil
		case "4":
			return conflictActionOverwrite, conflictOverwriteAll, nil
		case "5":
			return conflictActionSkip, policy, fmt.Errorf("download aborted")
		default:
			fmt.Println("Invalid choice, please try again.")
		}
	}
}

// confirm asks a yes/no question, defaulting to no.
func confirm(question string) bool {
	fmt.Printf("%s [y/N]: ", question)
	input, err := readLine()
	if err != nil {
		return false
	}
	input = strings.ToLower(input)
	return input == "y" || input == "yes"
}

func readLine() (string, error) {
	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
