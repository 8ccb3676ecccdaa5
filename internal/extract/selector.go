package extract

import (
	"log/slog"
)

// DefaultParsers returns the strategies in priority order, most specific
// first.
func DefaultParsers() []Parser {
	return []Parser{Single{}, Multi{}, Regulation{}}
}

// Selector tries parsers in order and keeps the first valid attempt.
type Selector struct {
	parsers []Parser
	logger  *slog.Logger
}

// NewSelector creates a selector. With no parsers it uses DefaultParsers.
func NewSelector(logger *slog.Logger, parsers ...Parser) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	if len(parsers) == 0 {
		parsers = DefaultParsers()
	}
	return &Selector{parsers: parsers, logger: logger}
}

// Selection is the accepted extraction and the attempts rejected before it.
type Selection struct {
	Extraction *Extraction
	Rejected   []Attempt
}

// Select runs each parser at most once, in order, and stops at the first
// valid attempt. When every parser rejects the input it returns an
// *ExtractionError carrying all of their reasons.
func (s *Selector) Select(in *Input) (*Selection, error) {
	var rejected []Attempt
	for _, p := range s.parsers {
		attempt := p.Parse(in)
		attempt.Strategy = p.Name()
		if attempt.Valid() {
			s.logger.Debug("strategy accepted",
				"source", in.Source,
				"strategy", attempt.Strategy,
				"entries", len(attempt.Extraction.Entries),
				"rejected", len(rejected))
			return &Selection{Extraction: attempt.Extraction, Rejected: rejected}, nil
		}
		if attempt.Reason == nil {
			attempt.Reason = attempt.Extraction.Validate()
		}
		s.logger.Debug("strategy rejected", "source", in.Source, "strategy", attempt.Strategy, "reason", attempt.Reason)
		rejected = append(rejected, attempt)
	}
	return nil, &ExtractionError{Source: in.Source, Attempts: rejected}
}
