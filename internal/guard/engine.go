package guard

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/boshu2/rewriteguard/internal/config"
	"github.com/boshu2/rewriteguard/internal/fingerprint"
	"github.com/boshu2/rewriteguard/internal/tokenstore"
)

// Engine evaluates proposed operations against configured thresholds.
type Engine struct {
	cfg   *config.Config
	store tokenstore.Store
}

// New creates an engine. store may be nil, in which case over-threshold
// proposals are denied with no retry path (stateless degraded mode).
func New(cfg *config.Config, store tokenstore.Store) *Engine {
	return &Engine{cfg: cfg, store: store}
}

// Decide evaluates one proposal. It never fails: any condition that prevents
// a confident estimate resolves to Allow so the guard cannot be the reason a
// legitimate operation is lost.
func (e *Engine) Decide(existing *ExistingFile, op Operation) Decision {
	if existing.LineCount < e.cfg.MinLines {
		return Decision{Verdict: Allow}
	}
	if e.excluded(existing.Path) {
		return Decision{Verdict: Allow}
	}

	percent, err := Estimate(existing, op)
	if err != nil {
		// Cannot estimate (empty file, unknown kind): allow by default.
		return Decision{Verdict: Allow}
	}

	if percent > e.cfg.HardPercent {
		return e.decideOverHard(existing, op, percent)
	}

	if percent > e.cfg.SoftPercent {
		return Decision{
			Verdict: Warn,
			Percent: percent,
			Message: fmt.Sprintf(
				"rewriteguard: %s would change ~%d%% of %s (soft threshold %d%%); allowing",
				op.Kind, percent, existing.Path, e.cfg.SoftPercent),
		}
	}

	return Decision{Verdict: Allow, Percent: percent}
}

// decideOverHard handles proposals above the hard threshold: accept a
// matching retry if a live token exists, otherwise issue a token and deny.
func (e *Engine) decideOverHard(existing *ExistingFile, op Operation, percent int) Decision {
	if e.store == nil {
		return Decision{Verdict: Deny, Percent: percent, Message: e.denyMessage(op, percent, false)}
	}

	key := Fingerprint(op)

	// Best-effort maintenance, independent of this decision's outcome.
	e.store.SweepExpired(e.cfg.CleanupBatch)

	if ok, _ := e.store.TryConsume(key); ok {
		return Decision{
			Verdict: Allow,
			Percent: percent,
			Message: fmt.Sprintf("rewriteguard: retry accepted, allowing %d%% change to %s", percent, existing.Path),
		}
	}

	issued := e.store.Issue(key) == nil
	return Decision{Verdict: Deny, Percent: percent, Message: e.denyMessage(op, percent, issued)}
}

// denyMessage builds the block report: a machine-parsable header line
// followed by human-readable detail and remediation guidance.
func (e *Engine) denyMessage(op Operation, percent int, tokenIssued bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "action=blocked tool=%s percent=%d threshold=%d retry_window_seconds=%d file=%s\n",
		op.Kind, percent, e.cfg.HardPercent, e.cfg.RetryTTLSeconds, op.Path)
	fmt.Fprintf(&b, "rewriteguard: this %s would change ~%d%% of %s, above the %d%% limit for a single operation.\n",
		op.Kind, percent, filepath.Base(op.Path), e.cfg.HardPercent)
	if tokenIssued {
		fmt.Fprintf(&b, "If the large change is intentional, resubmit the exact same %s within %ds and it will be allowed once.\n",
			op.Kind, e.cfg.RetryTTLSeconds)
	} else {
		b.WriteString("No retry token could be recorded; split the change into smaller operations.\n")
	}
	b.WriteString("Prefer smaller, targeted edits; raise hard_percent in .rewriteguard/config.yaml if this limit is too strict.")
	return b.String()
}

// excluded reports whether path matches any configured exclusion pattern.
// Patterns with a path separator match against the slash-normalized full
// path; bare patterns also match the basename.
func (e *Engine) excluded(path string) bool {
	slashed := filepath.ToSlash(path)
	base := filepath.Base(path)
	for _, pattern := range e.cfg.Exclude {
		if ok, err := doublestar.Match(pattern, slashed); err == nil && ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if ok, err := doublestar.Match(pattern, base); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// Fingerprint derives the stable identity of a proposal: path, kind, and
// the payload bytes in order. Reordered multi-replace spans fingerprint
// differently on purpose.
func Fingerprint(op Operation) string {
	sections := []string{op.Path, op.Kind.String()}
	switch op.Kind {
	case KindFullRewrite:
		sections = append(sections, op.Content)
	default:
		for _, s := range op.Spans {
			sections = append(sections, s.Old, s.New)
		}
	}
	return fingerprint.NewStrings(sections...)
}
