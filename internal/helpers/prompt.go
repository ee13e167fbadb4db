package helpers

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

const MinPasswordLength = 8

func PromptLineWithDefault(label, def string) string {
	if def != "" {
		fmt.Printf("%s [%s]: ", label, def)
	} else {
		fmt.Printf("%s: ", label)
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return def
	}

	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

// PromptPassword reads a password from the terminal without echo.
func PromptPassword(prompt string) ([]byte, error) {
	_, _ = fmt.Fprint(os.Stderr, prompt)

	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	_, _ = fmt.Fprintln(os.Stderr)

	if err != nil {
		ZeroBytes(pw)
		return nil, fmt.Errorf("password input failed: %w", err)
	}
	if err := ValidatePassword(pw); err != nil {
		ZeroBytes(pw)
		return nil, err
	}
	return pw, nil
}

// PromptNewPassword asks twice and fails if the entries differ.
func PromptNewPassword() ([]byte, error) {
	pw, err := PromptPassword("New wallet password: ")
	if err != nil {
		return nil, err
	}
	confirm, err := PromptPassword("Repeat password: ")
	if err != nil {
		ZeroBytes(pw)
		return nil, err
	}
	defer ZeroBytes(confirm)

	if !bytes.Equal(pw, confirm) {
		ZeroBytes(pw)
		return nil, fmt.Errorf("passwords do not match")
	}
	return pw, nil
}

func ValidatePassword(pw []byte) error {
	if len(pw) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters long", MinPasswordLength)
	}
	for _, b := range pw {
		if !IsAllowedPasswordChar(b) {
			return fmt.Errorf("password contains invalid characters (use letters, numbers, and special characters only)")
		}
	}
	return nil
}

// IsAllowedPasswordChar accepts printable ASCII excluding space.
func IsAllowedPasswordChar(b byte) bool {
	return b > 0x20 && b < 0x7f
}

func ZeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
