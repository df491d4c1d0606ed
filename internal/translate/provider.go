package translate

import (
	"context"
	"errors"
	"fmt"
)

// ErrTranslationFailed marks a provider error or timeout. Callers recover by
// substituting the original text; translation is a best-effort enhancement
// and never blocks collaboration.
var ErrTranslationFailed = errors.New("translation failed")

// SourceAuto asks the provider to detect the source language.
const SourceAuto = "auto"

// Provider is the uniform interface to an external text-translation engine.
type Provider interface {
	// Translate converts text into the target locale. sourceLocale may be
	// SourceAuto. Failures wrap ErrTranslationFailed.
	Translate(ctx context.Context, text, sourceLocale, targetLocale string) (string, error)

	// TranslateBatch converts several texts in one call, preserving order.
	// It is best-effort: on any failure the caller MUST fall back to
	// per-item Translate calls, so no text is silently dropped.
	TranslateBatch(ctx context.Context, texts []string, sourceLocale, targetLocale string) ([]string, error)
}

// Disabled is a Provider that always fails, used when no engine is
// configured. The pipeline then degrades to original-text chunks.
type Disabled struct{}

func (Disabled) Translate(ctx context.Context, text, sourceLocale, targetLocale string) (string, error) {
	return "", fmt.Errorf("%w: provider disabled", ErrTranslationFailed)
}

func (Disabled) TranslateBatch(ctx context.Context, texts []string, sourceLocale, targetLocale string) ([]string, error) {
	return nil, fmt.Errorf("%w: provider disabled", ErrTranslationFailed)
}
