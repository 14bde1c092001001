package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/term"
)

// errInputClosed ends the menu loop when stdin is exhausted.
var errInputClosed = errors.New("input closed")

// prompter reads validated values from a line-oriented input, re-prompting
// until the value is acceptable.
type prompter struct {
	sc  *bufio.Scanner
	out io.Writer
	// password reads a secret without echo when the input is a terminal.
	password func(prompt string) (string, error)
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	p := &prompter{sc: bufio.NewScanner(in), out: out}
	p.password = p.line
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.password = func(prompt string) (string, error) {
			fmt.Fprint(out, prompt)
			b, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(out) // Add newline after password input
			if err != nil {
				return "", fmt.Errorf("failed to read password: %w", err)
			}
			return strings.TrimSpace(string(b)), nil
		}
	}
	return p
}

// line prints prompt and returns the next trimmed input line.
func (p *prompter) line(prompt string) (string, error) {
	fmt.Fprint(p.out, prompt)
	if !p.sc.Scan() {
		if err := p.sc.Err(); err != nil {
			return "", err
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(p.sc.Text()), nil
}

// text re-prompts until the input is non-empty.
func (p *prompter) text(prompt string) (string, error) {
	for {
		s, err := p.line(prompt)
		if err != nil {
			return "", err
		}
		if s != "" {
			return s, nil
		}
		fmt.Fprintln(p.out, "Input cannot be empty! Please try again.")
	}
}

// intRange re-prompts until the input is an integer in [min, max].
func (p *prompter) intRange(prompt string, min, max int) (int, error) {
	for {
		s, err := p.line(prompt)
		if err != nil {
			return 0, err
		}
		n, convErr := strconv.Atoi(s)
		if convErr == nil && n >= min && n <= max {
			return n, nil
		}
		if max == math.MaxInt {
			fmt.Fprintf(p.out, "Invalid input! Please enter a number >= %d.\n", min)
		} else {
			fmt.Fprintf(p.out, "Invalid input! Please enter a number between %d and %d.\n", min, max)
		}
	}
}

// intMin re-prompts until the input is an integer >= min.
func (p *prompter) intMin(prompt string, min int) (int, error) {
	return p.intRange(prompt, min, math.MaxInt)
}

// decimalMin re-prompts until the input is a number >= min.
func (p *prompter) decimalMin(prompt string, min decimal.Decimal) (decimal.Decimal, error) {
	for {
		s, err := p.line(prompt)
		if err != nil {
			return decimal.Zero, err
		}
		d, convErr := decimal.NewFromString(s)
		if convErr == nil && d.GreaterThanOrEqual(min) {
			return d, nil
		}
		fmt.Fprintf(p.out, "Invalid input! Please enter a valid number >= %s.\n", min.String())
	}
}

// confirm returns true for an answer starting with y or Y.
func (p *prompter) confirm(prompt string) (bool, error) {
	s, err := p.line(prompt)
	if err != nil {
		return false, err
	}
	return strings.HasPrefix(strings.ToLower(s), "y"), nil
}
