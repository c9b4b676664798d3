// Command analyst is a conversational e-commerce data analyst.
//
// Usage:
//
//	GEMINI_API_KEY=gk-...    analyst chat
//	ANTHROPIC_API_KEY=sk-... analyst ask "Quantos clientes temos?"
//	analyst seed 'data/**/*.csv'
//	analyst serve
//
// Configuration is read from .analyst/config.yaml (see --config). Without an
// API key, or with --offline, the analyst classifies by keyword and answers
// with templated figures.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	a := &app{}
	err := newRootCmd(a).ExecuteContext(ctx)
	a.close()
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "analyst: %v\n", err)
		os.Exit(1)
	}
}
