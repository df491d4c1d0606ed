package translate

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awstranslate "github.com/aws/aws-sdk-go-v2/service/translate"
	"go.uber.org/zap"

	"codecollab-backend/internal/config"
)

// batchSeparator joins batch items into a single provider call. It survives
// translation untouched because engines pass markup-like tokens through.
const batchSeparator = "\n<<<CHUNK>>>\n"

// AWSProvider wraps Amazon Translate behind the Provider interface.
type AWSProvider struct {
	client       *awstranslate.Client
	callTimeout  time.Duration
	batchTimeout time.Duration
	log          *zap.SugaredLogger
}

// NewAWSProvider loads AWS credentials from the environment and builds the
// Amazon Translate client.
func NewAWSProvider(ctx context.Context, cfg config.TranslateConfig, log *zap.SugaredLogger) (*AWSProvider, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &AWSProvider{
		client:       awstranslate.NewFromConfig(awsCfg),
		callTimeout:  cfg.CallTimeout,
		batchTimeout: cfg.BatchTimeout,
		log:          log,
	}, nil
}

func (p *AWSProvider) Translate(ctx context.Context, text, sourceLocale, targetLocale string) (string, error) {
	// Same language or nothing to translate: echo back without a call.
	if text == "" || sourceLocale == targetLocale {
		return text, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.callTimeout)
	defer cancel()

	out, err := p.translateText(ctx, text, sourceLocale, targetLocale)
	if err != nil {
		p.log.Warnf("[Translate] %s -> %s failed: %v", sourceLocale, targetLocale, err)
		return "", fmt.Errorf("%w: %v", ErrTranslationFailed, err)
	}
	return out, nil
}

func (p *AWSProvider) TranslateBatch(ctx context.Context, texts []string, sourceLocale, targetLocale string) ([]string, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if sourceLocale == targetLocale {
		out := make([]string, len(texts))
		copy(out, texts)
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, p.batchTimeout)
	defer cancel()

	joined := strings.Join(texts, batchSeparator)
	translated, err := p.translateText(ctx, joined, sourceLocale, targetLocale)
	if err != nil {
		p.log.Warnf("[Translate] Batch of %d to %s failed: %v", len(texts), targetLocale, err)
		return nil, fmt.Errorf("%w: %v", ErrTranslationFailed, err)
	}

	parts, err := splitBatch(translated, len(texts))
	if err != nil {
		p.log.Warnf("[Translate] Batch of %d to %s: %v", len(texts), targetLocale, err)
		return nil, err
	}
	return parts, nil
}

func (p *AWSProvider) translateText(ctx context.Context, text, sourceLocale, targetLocale string) (string, error) {
	src := sourceLocale
	if src == "" || src == SourceAuto {
		src = "auto" // Amazon Translate detects the source language
	}

	input := &awstranslate.TranslateTextInput{
		Text:               aws.String(text),
		SourceLanguageCode: aws.String(src),
		TargetLanguageCode: aws.String(targetLocale),
	}

	output, err := p.client.TranslateText(ctx, input)
	if err != nil {
		return "", err
	}
	return aws.ToString(output.TranslatedText), nil
}

// splitBatch recovers the individual items from a joined translation. The
// engine occasionally mangles the separator; that counts as a batch failure
// so the caller falls back to per-item calls.
func splitBatch(translated string, want int) ([]string, error) {
	parts := strings.Split(translated, strings.TrimSpace(batchSeparator))
	if len(parts) != want {
		return nil, fmt.Errorf("%w: batch separator lost (%d of %d items)", ErrTranslationFailed, len(parts), want)
	}
	out := make([]string, want)
	for i, p := range parts {
		out[i] = strings.TrimSpace(p)
	}
	return out, nil
}
