package annotation

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/turtacn/MedRx-Intelligence/internal/domain/prescription"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

// PromptInput is a line-oriented InputSource for terminal sessions.  It reads
// from any reader, so the review dialogue is testable without a live tty.
type PromptInput struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewPromptInput builds a PromptInput over the given streams.
func NewPromptInput(in io.Reader, out io.Writer) *PromptInput {
	return &PromptInput{in: bufio.NewScanner(in), out: out}
}

// Review prints the record and reads a decision.  For a correction it reads
// one drug per line as "name|dosage|frequency|duration" until a blank line.
func (p *PromptInput) Review(ctx context.Context, record prescription.AnnotationRecord) (Decision, []prescription.DrugMention, error) {
	fmt.Fprintf(p.out, "\n--- %s ---\n", record.FileName)
	for _, d := range record.ExtractedDrugs {
		fmt.Fprintf(p.out, "  %s  dosage=%q  frequency=%q  duration=%q\n",
			d.DisplayName(), d.Dosage, d.Frequency, d.Duration)
	}
	for _, a := range record.Alerts {
		fmt.Fprintf(p.out, "  ! %s\n", a)
	}
	fmt.Fprint(p.out, "[a]ccept / [s]kip / [c]orrect: ")

	line, err := p.readLine()
	if err != nil {
		return "", nil, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "a", "accept", "":
		return DecisionAccept, nil, nil
	case "s", "skip":
		return DecisionSkip, nil, nil
	case "c", "correct":
		drugs, err := p.readCorrection()
		if err != nil {
			return "", nil, err
		}
		return DecisionCorrect, drugs, nil
	default:
		return "", nil, errors.New(errors.ErrCodeSessionInput, "unrecognized answer: "+line)
	}
}

func (p *PromptInput) readCorrection() ([]prescription.DrugMention, error) {
	fmt.Fprintln(p.out, "enter one drug per line as name|dosage|frequency|duration, blank line to finish:")
	var drugs []prescription.DrugMention
	for {
		line, err := p.readLine()
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(line) == "" {
			return drugs, nil
		}
		parts := strings.SplitN(line, "|", 4)
		for len(parts) < 4 {
			parts = append(parts, "")
		}
		drugs = append(drugs, prescription.DrugMention{
			DrugName:  strings.TrimSpace(parts[0]),
			Dosage:    strings.TrimSpace(parts[1]),
			Frequency: strings.TrimSpace(parts[2]),
			Duration:  strings.TrimSpace(parts[3]),
		})
	}
}

func (p *PromptInput) readLine() (string, error) {
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", errors.Wrap(err, errors.ErrCodeSessionInput, "read review input")
		}
		return "", errors.New(errors.ErrCodeSessionInput, "review input closed")
	}
	return p.in.Text(), nil
}
