package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/tmacro/numix-cursor-hidpi/internal/alias"
)

type CursorFailure struct {
	Name string
	Err  error
}

// Report collects the outcome of one build run.
type Report struct {
	Theme       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Built       []string
	Failed      []CursorFailure
	Aliases     []alias.Entry
	AliasErrors []error
}

// Clean reports a run with no failures of any kind.
func (r *Report) Clean() bool {
	return len(r.Failed) == 0 && len(r.AliasErrors) == 0
}

// ExitCode maps the collected outcome onto the process exit status. Best
// effort always exits 0 once the run completed; strict turns any failed
// cursor or unresolved alias into a failure.
func (r *Report) ExitCode(strict bool) int {
	if strict && !r.Clean() {
		return 1
	}
	return 0
}

// Summary renders the user-facing closing report: what built, what failed
// and why, which aliases did not resolve.
func (r *Report) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d cursors built, %d failed, %d aliases",
		r.Theme, len(r.Built), len(r.Failed), len(r.Aliases))
	if d := r.FinishedAt.Sub(r.StartedAt); d > 0 {
		fmt.Fprintf(&sb, " in %s", d.Round(time.Millisecond))
	}
	sb.WriteString("\n")

	for _, f := range r.Failed {
		fmt.Fprintf(&sb, "  failed: %s: %v\n", f.Name, f.Err)
	}
	for _, err := range r.AliasErrors {
		fmt.Fprintf(&sb, "  alias: %v\n", err)
	}
	return strings.TrimRight(sb.String(), "\n")
}
