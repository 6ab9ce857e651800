package gate

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Shell drives an InstrumentedProcessor from a line oriented command
// stream, one event per line.
type Shell struct {
	processor *InstrumentedProcessor
	scanner   *bufio.Scanner
	out       io.Writer
}

func NewShell(processor *InstrumentedProcessor, in io.Reader, out io.Writer) *Shell {
	return &Shell{
		processor: processor,
		scanner:   bufio.NewScanner(in),
		out:       out,
	}
}

func (s *Shell) tracer() trace.Tracer {
	return s.processor.telemetry.Tracer()
}

func (s *Shell) Run(ctx context.Context) error {
	ctx, span := s.tracer().Start(ctx, "shell.run")
	defer span.End()

	span.AddEvent("shell_started")

	for s.scanner.Scan() {
		if ctx.Err() != nil {
			break
		}

		input := strings.TrimSpace(s.scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		cmdCtx, cmdSpan := s.tracer().Start(ctx, "shell.process_command",
			trace.WithAttributes(attribute.String("command.input", input)))
		s.processCommand(cmdCtx, input)
		cmdSpan.End()
	}

	span.AddEvent("shell_ended")
	return s.scanner.Err()
}

func (s *Shell) processCommand(ctx context.Context, input string) {
	parts := strings.Fields(input)
	command := parts[0]

	span := trace.SpanFromContext(ctx)
	span.SetAttributes(attribute.String("command.name", command))

	switch command {
	case "init":
		s.processor.Init(ctx)
		fmt.Fprintf(s.out, "Gate initialized with %d spaces\n", s.processor.Capacity())
	case "car_in", "arrival":
		s.apply(ctx, Arrival{})
	case "car_out", "departure":
		s.apply(ctx, Departure{})
	case "request_entry", "request":
		if len(parts) < 2 {
			span.AddEvent("invalid_arguments")
			fmt.Fprintln(s.out, "Usage: request_entry <gate_id>")
			return
		}
		// Gate ids may contain spaces, e.g. "gate 1".
		s.apply(ctx, RequestEntry{GateID: strings.Join(parts[1:], " ")})
	case "status":
		s.handleStatus()
	case "queue":
		s.handleQueue()
	case "journal":
		s.handleJournal(parts)
	default:
		span.AddEvent("unknown_command", trace.WithAttributes(
			attribute.String("unknown_command", command),
		))
		fmt.Fprintf(s.out, "Unknown command: %s\n", command)
	}
}

func (s *Shell) apply(ctx context.Context, ev Event) {
	transitions, err := s.processor.OnEvent(ctx, ev)
	switch {
	case errors.Is(err, ErrNotInitialized):
		fmt.Fprintln(s.out, "Gate not initialized, run init first")
		return
	case err != nil:
		fmt.Fprintf(s.out, "Error: %s\n", err.Error())
		return
	}

	for _, t := range transitions {
		fmt.Fprintln(s.out, t.String())
	}
}

func (s *Shell) handleStatus() {
	status := s.processor.Snapshot()
	fmt.Fprintf(s.out, "Capacity: %d\tUsed: %d\tAvailable: %d\tState: %s\tWaiting: %d\n",
		status.Capacity, status.SpacesUsed, status.Available, status.State, len(status.Waiting))
}

func (s *Shell) handleQueue() {
	waiting := s.processor.Snapshot().Waiting
	if len(waiting) == 0 {
		fmt.Fprintln(s.out, "No cars waiting")
		return
	}

	fmt.Fprintln(s.out, "Position\tGate")
	for i, gateID := range waiting {
		fmt.Fprintf(s.out, "%d\t\t%s\n", i+1, gateID)
	}
}

func (s *Shell) handleJournal(parts []string) {
	limit := 0
	if len(parts) == 2 {
		n, err := strconv.Atoi(parts[1])
		if err != nil || n <= 0 {
			fmt.Fprintln(s.out, "Usage: journal [count]")
			return
		}
		limit = n
	}

	for _, rec := range s.processor.Journal(limit) {
		fmt.Fprintf(s.out, "%d\t%s\t%s\n", rec.Seq, rec.Event, rec.Transition.String())
	}
}
