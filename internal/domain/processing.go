package domain

import "fmt"

// Stage names the enrichment pipeline steps. Failures carry the stage they
// occurred in so callers can tell salvageable runs apart.
type Stage string

const (
	StageClean                Stage = "clean"
	StageRewrite              Stage = "rewrite"
	StageTranslateTitle       Stage = "translate_title"
	StageTranslateDescription Stage = "translate_description"
	StageTranslateContent     Stage = "translate_content"
)

// ProcessingResult captures the best-effort output of every stage the
// pipeline reached for one article. Partial values survive a failure so the
// caller can persist whatever was produced.
type ProcessingResult struct {
	CleanContent          string
	RewrittenContent      string
	TranslatedTitle       string
	TranslatedDescription string
	TranslatedContent     string
	Success               bool
	ErrorMessage          string
}

// StageError marks the pipeline stage an article failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
