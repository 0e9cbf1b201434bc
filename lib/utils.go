package lib

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// Prompt reads a line from stdin, echoing unless sensitive is set.
func Prompt(prompt string, sensitive bool) (string, error) {
	return PromptWithOutput(prompt, sensitive, os.Stderr)
}

func PromptWithOutput(prompt string, sensitive bool, out *os.File) (string, error) {
	fmt.Fprintf(out, "%s: ", prompt)

	if sensitive {
		var input []byte
		input, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return "", err
		}
		fmt.Fprintln(out)
		return strings.TrimSpace(string(input)), nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
