package handler

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"codecollab-backend/internal/cache"
	"codecollab-backend/internal/model"
	"codecollab-backend/internal/translate"
)

// TranslateHandler serves the stateless translation REST surface plus the
// per-member translation history.
type TranslateHandler struct {
	provider translate.Provider
	cache    cache.Store
	log      *zap.SugaredLogger
}

// NewTranslateHandler creates the translation REST handler.
func NewTranslateHandler(provider translate.Provider, ca cache.Store, log *zap.SugaredLogger) *TranslateHandler {
	return &TranslateHandler{provider: provider, cache: ca, log: log}
}

type translateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
	SourceLanguage string `json:"sourceLanguage"`
}

// Translate handles a single text. A provider failure returns the original
// text with success=false, never a 5xx: callers always get something to show.
func (h *TranslateHandler) Translate(c *fiber.Ctx) error {
	var req translateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if req.Text == "" || req.TargetLanguage == "" {
		return fiber.NewError(fiber.StatusBadRequest, "text and targetLanguage are required")
	}

	source := req.SourceLanguage
	if source == "" {
		source = translate.SourceAuto
	} else {
		source = translate.LocaleFor(source)
	}
	target := translate.LocaleFor(req.TargetLanguage)

	translated, err := h.provider.Translate(c.Context(), req.Text, source, target)
	if err != nil {
		h.log.Warnf("[Translate] Single call failed: %v", err)
		return c.JSON(fiber.Map{
			"translatedText": req.Text,
			"success":        false,
			"error":          "translation failed",
		})
	}

	return c.JSON(fiber.Map{
		"translatedText": translated,
		"success":        true,
	})
}

type translateBatchRequest struct {
	Texts          []string `json:"texts"`
	TargetLanguage string   `json:"targetLanguage"`
	SourceLanguage string   `json:"sourceLanguage"`
}

type batchResult struct {
	Index          int    `json:"index"`
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
	Success        bool   `json:"success"`
}

// TranslateBatch handles multiple texts in one call, falling back to per-item
// calls when the batch fails. Results keep input order.
func (h *TranslateHandler) TranslateBatch(c *fiber.Ctx) error {
	var req translateBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.Texts) == 0 || req.TargetLanguage == "" {
		return fiber.NewError(fiber.StatusBadRequest, "texts and targetLanguage are required")
	}

	source := req.SourceLanguage
	if source == "" {
		source = translate.SourceAuto
	} else {
		source = translate.LocaleFor(source)
	}
	target := translate.LocaleFor(req.TargetLanguage)

	results := make([]batchResult, len(req.Texts))
	batch, err := h.provider.TranslateBatch(c.Context(), req.Texts, source, target)
	if err != nil {
		h.log.Warnf("[Translate] Batch of %d failed, falling back per item: %v", len(req.Texts), err)
	}

	for i, text := range req.Texts {
		results[i] = batchResult{Index: i, OriginalText: text}
		if err == nil {
			results[i].TranslatedText = batch[i]
			results[i].Success = true
			continue
		}
		single, serr := h.provider.Translate(c.Context(), text, source, target)
		if serr != nil {
			results[i].TranslatedText = text
			continue
		}
		results[i].TranslatedText = single
		results[i].Success = true
	}

	return c.JSON(fiber.Map{"results": results})
}

// History returns the durable translation entries for one member of a room,
// oldest first.
func (h *TranslateHandler) History(c *fiber.Ctx) error {
	roomID := c.Params("roomId")
	clientID := c.Query("clientId")
	if clientID == "" {
		return fiber.NewError(fiber.StatusBadRequest, "clientId query parameter is required")
	}

	entries, err := h.cache.History(c.Context(), roomID, clientID)
	if err != nil {
		h.log.Errorf("[Translate] History for %s/%s failed: %v", roomID, clientID, err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load history")
	}
	if entries == nil {
		entries = []model.TranslationEntry{}
	}

	return c.JSON(fiber.Map{"entries": entries})
}
