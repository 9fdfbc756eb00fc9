package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// answerFunc produces the final text for one query.
type answerFunc func(ctx context.Context, message string) string

type shell struct {
	answer answerFunc
	in     io.Reader
	out    io.Writer
	label  string
	banner []string
}

// run answers args as a single query when present, otherwise reads queries
// from in until "exit" or end of input.
func (s *shell) run(ctx context.Context, args []string) error {
	if len(args) > 0 {
		s.reply(ctx, strings.Join(args, " "))
		return nil
	}

	for _, line := range s.banner {
		fmt.Fprintln(s.out, line)
	}
	fmt.Fprintln(s.out, "Type 'exit' to quit")
	fmt.Fprintln(s.out)

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, "You: ")
		if !scanner.Scan() {
			fmt.Fprintln(s.out)
			return scanner.Err()
		}

		query := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(query, "exit") {
			return nil
		}
		if query == "" {
			continue
		}
		s.reply(ctx, query)

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (s *shell) reply(ctx context.Context, query string) {
	fmt.Fprintf(s.out, "\n🌿 %s: %s\n\n", s.label, s.answer(ctx, query))
}
