// Package cli drives the listing form from a terminal.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"listing-generator/internal/listing"
)

// ErrGenerationFailed is returned after the generic message was printed.
var ErrGenerationFailed = errors.New(listing.GenericErrorMessage)

const formID = "cli"

type Options struct {
	Form listing.FormState
	JSON bool
	// Prompter is nil when prompting is disabled; validation failures are
	// then returned as errors.
	Prompter     Prompter
	Out          io.Writer
	ErrOut       io.Writer
	PollInterval time.Duration
}

// Generate fills the form, re-prompting only failing fields, then submits
// it and prints the result.
func Generate(ctx context.Context, svc *listing.Service, opts Options) (*listing.ListingResult, error) {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}

	if _, err := svc.ChangeForm(ctx, formID, opts.Form); err != nil {
		return nil, err
	}

	for {
		st, err := svc.StartSubmit(ctx, formID)
		if err == nil {
			break
		}
		if !errors.Is(err, listing.ErrValidationFailed) {
			return nil, err
		}

		for _, field := range listing.Fields {
			if msg := st.Errors[field]; msg != "" {
				fmt.Fprintf(opts.ErrOut, "%s: %s\n", labels[field], msg)
			}
		}
		if opts.Prompter == nil {
			return nil, fmt.Errorf("%w: %s", listing.ErrValidationFailed, joinMessages(st.Errors))
		}
		if err := askFailing(ctx, svc, opts.Prompter, st); err != nil {
			return nil, err
		}
	}

	st, err := waitForResult(ctx, svc, opts)
	if err != nil {
		return nil, err
	}
	if msg := st.Status.ErrorMessage(); msg != "" {
		fmt.Fprintln(opts.ErrOut, msg)
		return nil, ErrGenerationFailed
	}

	result := st.Result
	if err := printResult(opts.Out, result, opts.JSON); err != nil {
		return nil, err
	}
	return &result, nil
}

func askFailing(ctx context.Context, svc *listing.Service, p Prompter, st listing.State) error {
	for _, field := range listing.Fields {
		if st.Errors[field] == "" {
			continue
		}
		value, err := p.Ask(field, st.Form.Value(field))
		if err != nil {
			return err
		}
		if _, err := svc.ChangeField(ctx, formID, field, value); err != nil {
			return err
		}
	}
	return nil
}

func waitForResult(ctx context.Context, svc *listing.Service, opts Options) (listing.State, error) {
	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()

	last := ""
	for {
		st, err := svc.State(ctx, formID)
		if err != nil {
			return st, err
		}
		if !st.Status.IsPending() {
			return st, nil
		}
		if phrase := st.Status.ProgressPhrase(); phrase != last {
			fmt.Fprintln(opts.ErrOut, phrase)
			last = phrase
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			return st, ctx.Err()
		}
	}
}

func printResult(w io.Writer, result listing.ListingResult, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	first := true
	for _, seg := range result.Segments() {
		if seg.Text == "" {
			continue
		}
		if !first {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, seg.Text)
		first = false
	}
	return nil
}

func joinMessages(errs listing.ErrorState) string {
	out := ""
	for _, field := range listing.Fields {
		if msg := errs[field]; msg != "" {
			if out != "" {
				out += "; "
			}
			out += msg
		}
	}
	return out
}
