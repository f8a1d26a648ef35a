package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Prompter asks the user questions on a terminal.
type Prompter struct {
	reader *bufio.Reader
	out    io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		reader: bufio.NewReader(in),
		out:    out,
	}
}

// NewStdPrompter prompts on stdin and stdout.
func NewStdPrompter() *Prompter {
	return NewPrompter(os.Stdin, os.Stdout)
}

// PromptString prompts for a string value with a default
func (p *Prompter) PromptString(prompt, defaultValue string) string {
	if defaultValue != "" {
		fmt.Fprintf(p.out, "%s [%s]: ", prompt, defaultValue)
	} else {
		fmt.Fprintf(p.out, "%s: ", prompt)
	}

	input, err := p.reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultValue
	}
	if err != nil && err != io.EOF {
		return defaultValue
	}

	return input
}

// PromptPassword prompts for a secret without showing a default
func (p *Prompter) PromptPassword(prompt string) string {
	fmt.Fprintf(p.out, "%s: ", prompt)

	input, err := p.reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return ""
	}

	return strings.TrimSpace(input)
}

// PromptBool prompts for a yes/no answer with a default. End of input
// returns the default.
func (p *Prompter) PromptBool(prompt string, defaultValue bool) bool {
	for {
		if defaultValue {
			fmt.Fprintf(p.out, "%s [Y/n]: ", prompt)
		} else {
			fmt.Fprintf(p.out, "%s [y/N]: ", prompt)
		}

		input, err := p.reader.ReadString('\n')
		input = strings.TrimSpace(strings.ToLower(input))
		if input == "" {
			return defaultValue
		}

		switch input {
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}

		if err != nil {
			return defaultValue
		}
		fmt.Fprintf(p.out, "Please enter 'y' or 'n'.\n")
	}
}

// FillMissingSecrets asks for the password when neither the settings file
// nor the environment provided one.
func (c *Config) FillMissingSecrets(p *Prompter) {
	if c.Mastodon.Password != "" {
		return
	}
	if c.Mastodon.Email != "" {
		c.Mastodon.Password = p.PromptPassword(fmt.Sprintf("Password for %s", c.Mastodon.Email))
	} else {
		c.Mastodon.Email = p.PromptString("Email", "")
		c.Mastodon.Password = p.PromptPassword("Password")
	}
}
