package score

import (
	"context"
	"fmt"
	"strings"

	"quorum/internal/aggregate"
	"quorum/internal/batch"
	"quorum/internal/logger"
	"quorum/internal/notify"
	"quorum/internal/profile"
	"quorum/internal/rank"
	"quorum/internal/report"
	"quorum/internal/signal"
	"quorum/internal/source"
	"quorum/internal/store"
	"quorum/internal/verdict"
)

// Service is the core scoring surface: one subject, a ranked universe, or a
// full scan. Recorder, Notifier and Reports are optional collaborators whose
// failures never fail a scoring call.
type Service struct {
	Profiles     *profile.Loader
	Registry     *source.Registry
	Aggregator   *aggregate.Aggregator
	Validator    *verdict.Validator
	Orchestrator *batch.Orchestrator
	Recorder     *store.Recorder
	Notifier     notify.TextNotifier
	Reports      *report.Writer
}

// Score aggregates one subject. Upstream flakiness never surfaces as an
// error here; the worst case is an insufficient result.
func (s *Service) Score(ctx context.Context, subject, profileName string) (signal.CompositeResult, error) {
	subject, err := normalizeSubject(subject)
	if err != nil {
		return signal.CompositeResult{}, err
	}
	sources, err := s.resolveProfile(profileName)
	if err != nil {
		return signal.CompositeResult{}, err
	}
	return s.Aggregator.Aggregate(ctx, subject, sources), nil
}

// ScoreWithVerdict scores and validates one subject, then records and
// notifies as configured.
func (s *Service) ScoreWithVerdict(ctx context.Context, subject, profileName string, directional bool) (signal.CompositeResult, signal.Verdict, error) {
	result, err := s.Score(ctx, subject, profileName)
	if err != nil {
		return signal.CompositeResult{}, signal.Verdict{}, err
	}
	v := s.Validator.Validate(ctx, result, directional)
	s.record(result, &v)
	s.notifyVerdict(v)
	return result, v, nil
}

// Rank scores every subject under the orchestrator and returns the ordered
// survivors plus the full batch summary.
func (s *Service) Rank(ctx context.Context, subjects []string, profileName string, minScore float64, limit int) ([]signal.RankedEntry, batch.Summary, error) {
	results, summary, err := s.scoreMany(ctx, subjects, profileName, false)
	if err != nil {
		return nil, batch.Summary{}, err
	}
	return rank.Rank(results, minScore, limit), summary, nil
}

// CrossValidate combines scanner opinions for one subject.
func (s *Service) CrossValidate(subject string, outputs []signal.ScannerOutput) (signal.CrossValidation, error) {
	subject, err := normalizeSubject(subject)
	if err != nil {
		return signal.CrossValidation{}, err
	}
	return rank.CrossValidate(subject, outputs), nil
}

// Scan runs the scheduled universe pass: score, validate, record, notify,
// then rank and chart whatever succeeded.
func (s *Service) Scan(ctx context.Context, universe []string, profileName string) (batch.Summary, []signal.RankedEntry, error) {
	results, summary, err := s.scoreMany(ctx, universe, profileName, true)
	if err != nil {
		return batch.Summary{}, nil, err
	}
	ranked := rank.Rank(results, 0, 0)
	if s.Reports != nil && len(ranked) > 0 {
		if _, err := s.Reports.WriteRanking(summary.RunID, ranked); err != nil {
			logger.Warnf("scan %s: report failed: %v", summary.RunID, err)
		}
	}
	return summary, ranked, nil
}

// scoreMany fans a subject list through the orchestrator. Results come back
// in input order, holding only the subjects whose work item succeeded.
func (s *Service) scoreMany(ctx context.Context, subjects []string, profileName string, withVerdict bool) ([]signal.CompositeResult, batch.Summary, error) {
	if len(subjects) == 0 {
		return nil, batch.Summary{}, fmt.Errorf("no subjects given")
	}
	if _, err := s.resolveProfile(profileName); err != nil {
		return nil, batch.Summary{}, err
	}
	slots := make([]*signal.CompositeResult, len(subjects))
	index := make(map[string]int, len(subjects))
	for i, subj := range subjects {
		index[subj] = i
	}
	work := func(ctx context.Context, subject string) error {
		result, err := s.scoreStrict(ctx, subject, profileName)
		if err != nil {
			return err
		}
		if withVerdict {
			v := s.Validator.Validate(ctx, result, false)
			s.record(result, &v)
			s.notifyVerdict(v)
		} else {
			s.record(result, nil)
		}
		if i, ok := index[subject]; ok {
			// Slot writes are disjoint per subject; no lock needed.
			slots[i] = &result
		}
		return nil
	}
	summary := s.Orchestrator.Run(ctx, subjects, work)
	results := make([]signal.CompositeResult, 0, len(subjects))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results, summary, nil
}

// scoreStrict is the batch work variant: a result whose critical sources all
// failed comes back as a typed error so the orchestrator can retry or fail
// the item instead of ranking a neutral placeholder.
func (s *Service) scoreStrict(ctx context.Context, subject, profileName string) (signal.CompositeResult, error) {
	result, err := s.Score(ctx, subject, profileName)
	if err != nil {
		return signal.CompositeResult{}, err
	}
	okCritical, kinds := 0, map[signal.ErrorKind]int{}
	for _, r := range result.Readings {
		if r.Criticality != signal.Critical {
			continue
		}
		if r.Ok() {
			okCritical++
		} else {
			kinds[signal.ErrorKind(r.Reason)]++
		}
	}
	if okCritical > 0 {
		return result, nil
	}
	switch {
	case kinds[signal.KindInvalidSubject] > 0:
		return signal.CompositeResult{}, signal.NewSourceError("aggregate", signal.KindInvalidSubject, signal.ErrInvalidSubject)
	case kinds[signal.KindTimeout] > 0:
		return signal.CompositeResult{}, signal.NewSourceError("aggregate", signal.KindTimeout, fmt.Errorf("all critical sources timed out for %s", subject))
	default:
		return signal.CompositeResult{}, signal.NewSourceError("aggregate", signal.KindUnavailable, fmt.Errorf("no critical source reachable for %s", subject))
	}
}

// resolveProfile maps the named weight table onto registered sources.
func (s *Service) resolveProfile(name string) ([]aggregate.WeightedSource, error) {
	snap := s.Profiles.Snapshot()
	p, ok := snap.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown profile %q", name)
	}
	out := make([]aggregate.WeightedSource, 0, len(p.Sources))
	for _, e := range p.Sources {
		src, ok := s.Registry.Lookup(e.SourceID)
		if !ok {
			return nil, fmt.Errorf("profile %s references unregistered source %s", p.Name, e.SourceID)
		}
		out = append(out, aggregate.WeightedSource{
			Source:      src,
			Weight:      e.Weight,
			Criticality: e.Criticality,
		})
	}
	return out, nil
}

func (s *Service) record(result signal.CompositeResult, v *signal.Verdict) {
	if s.Recorder == nil {
		return
	}
	// Fire and forget: persistence is an audit trail, never on the hot path.
	go s.Recorder.RecordResult(result, v)
}

func (s *Service) notifyVerdict(v signal.Verdict) {
	if s.Notifier == nil {
		return
	}
	if v.Action != signal.VerdictConfirm && v.Action != signal.VerdictDownsize {
		return
	}
	go func() {
		if err := s.Notifier.SendText(notify.FormatVerdict(v)); err != nil {
			logger.Warnf("notify %s: %v", v.Result.Subject, err)
		}
	}()
}

// normalizeSubject rejects garbage before any source is hit.
func normalizeSubject(subject string) (string, error) {
	subject = strings.ToUpper(strings.TrimSpace(subject))
	if subject == "" || len(subject) > 32 {
		return "", fmt.Errorf("%w: %q", signal.ErrInvalidSubject, subject)
	}
	for _, r := range subject {
		ok := (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '/' || r == '-' || r == '.' || r == '_'
		if !ok {
			return "", fmt.Errorf("%w: %q", signal.ErrInvalidSubject, subject)
		}
	}
	return subject, nil
}
