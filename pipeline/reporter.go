package pipeline

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/kysee/zkk/errs"
	"github.com/rs/zerolog"
)

// Reporter is everything the pipeline says to the outside.
type Reporter interface {
	StageStarted(stage errs.Stage)
	StageFinished(stage errs.Stage, elapsed time.Duration)
	KeyLoaded(publicKeyHex, address string)
	Payload(encoded string)
	QR(rendered string)
	FileWritten(path string)
	Failed(err error)
}

var stageTitles = map[errs.Stage]string{
	errs.StageLoad:    "Loading key",
	errs.StageBuild:   "Building circuit input",
	errs.StageProve:   "Generating proof",
	errs.StageEncode:  "Encoding proof",
	errs.StagePresent: "Writing QR code",
}

// ConsoleReporter prints colored status lines to out and diagnostics to the logger.
type ConsoleReporter struct {
	out    io.Writer
	logger zerolog.Logger

	info *color.Color
	ok   *color.Color
	fail *color.Color
	data *color.Color
}

var _ Reporter = (*ConsoleReporter)(nil)

func NewConsoleReporter(out io.Writer, logger zerolog.Logger) *ConsoleReporter {
	if out == nil {
		out = color.Output
	}
	return &ConsoleReporter{
		out:    out,
		logger: logger.With().Str("module", "reporter").Logger(),
		info:   color.New(color.FgCyan),
		ok:     color.New(color.FgGreen),
		fail:   color.New(color.FgRed, color.Bold),
		data:   color.New(color.FgWhite),
	}
}

func (r *ConsoleReporter) StageStarted(stage errs.Stage) {
	r.info.Fprintf(r.out, "▶ %s...\n", stageTitles[stage])
}

func (r *ConsoleReporter) StageFinished(stage errs.Stage, elapsed time.Duration) {
	r.ok.Fprintf(r.out, "✓ %s\n", stageTitles[stage])
	r.logger.Debug().Str("stage", string(stage)).Dur("elapsed", elapsed).Msg("stage finished")
}

func (r *ConsoleReporter) KeyLoaded(publicKeyHex, address string) {
	fmt.Fprintf(r.out, "  public key: %s\n", r.data.Sprint(publicKeyHex))
	fmt.Fprintf(r.out, "  address:    %s\n", r.data.Sprint(address))
}

func (r *ConsoleReporter) Payload(encoded string) {
	fmt.Fprintf(r.out, "Generated ZKP:\n%s\n", encoded)
}

func (r *ConsoleReporter) QR(rendered string) {
	fmt.Fprint(r.out, rendered)
}

func (r *ConsoleReporter) FileWritten(path string) {
	r.ok.Fprintf(r.out, "QR code saved as %s\n", path)
}

func (r *ConsoleReporter) Failed(err error) {
	stage := errs.Stage("")
	var se *errs.StageError
	if errors.As(err, &se) {
		stage = se.Stage
	}
	title, ok := stageTitles[stage]
	if !ok {
		title = "zkk"
	}
	r.fail.Fprintf(r.out, "✗ %s failed: %v\n", title, err)
	r.logger.Debug().AnErr("kind", errs.Kind(err)).Str("stage", string(stage)).Msg("pipeline aborted")
}

