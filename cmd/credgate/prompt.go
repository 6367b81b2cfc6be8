package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"golang.org/x/term"
)

// prompter reads answers from an interactive terminal via promptui, or one
// line per answer when stdin is redirected.
type prompter struct {
	interactive bool
	in          *bufio.Reader
}

func newPrompter(stdin *os.File) *prompter {
	return &prompter{
		interactive: term.IsTerminal(int(stdin.Fd())),
		in:          bufio.NewReader(stdin),
	}
}

func newLinePrompter(r io.Reader) *prompter {
	return &prompter{in: bufio.NewReader(r)}
}

// ask reads one answer. Secret answers are masked on a terminal. validate may
// be nil.
func (p *prompter) ask(label string, secret bool, validate func(string) error) (string, error) {
	if p.interactive {
		prompt := promptui.Prompt{
			Label:    label,
			Validate: validate,
		}
		if secret {
			prompt.Mask = '*'
		}
		answer, err := prompt.Run()
		if err != nil {
			return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
		}
		return answer, nil
	}

	line, err := p.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("read %s: %w", strings.ToLower(label), err)
	}
	line = strings.TrimRight(line, "\r\n")
	if validate != nil {
		if err := validate(line); err != nil {
			return "", err
		}
	}
	return line, nil
}

// confirmSecret asks for a new secret twice on a terminal. Redirected input
// reads it once.
func (p *prompter) confirmSecret(label string, validate func(string) error) (string, error) {
	secret, err := p.ask(label, true, validate)
	if err != nil {
		return "", err
	}
	if !p.interactive {
		return secret, nil
	}

	again, err := p.ask("Repeat "+strings.ToLower(label), true, nil)
	if err != nil {
		return "", err
	}
	if again != secret {
		return "", errors.New("passwords do not match")
	}
	return secret, nil
}
