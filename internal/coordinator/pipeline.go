package coordinator

import (
	"context"
	"time"

	"github.com/bep/debounce"

	"codecollab-backend/internal/cache"
	"codecollab-backend/internal/comment"
	"codecollab-backend/internal/event"
	"codecollab-backend/internal/model"
	"codecollab-backend/internal/translate"
)

// passTimeout bounds a full translation pass, batch call and per-item
// fallbacks included.
const passTimeout = 2 * time.Minute

type translationItem struct {
	text string
	line int
}

func passKey(roomID, senderClientID string) string {
	return roomID + "|" + senderClientID
}

// schedulePass records the newest buffer for the (room, sender) key and arms
// the debouncer. Only the last buffer within the quiet interval is translated.
func (c *Coordinator) schedulePass(roomID, senderClientID, code, language string) {
	key := passKey(roomID, senderClientID)

	c.mu.Lock()
	c.pending[key] = pendingPass{code: code, language: language}
	d, ok := c.debouncers[key]
	if !ok {
		d = debounce.New(c.debounceInterval)
		c.debouncers[key] = d
	}
	c.mu.Unlock()

	d(func() {
		go c.runPass(roomID, senderClientID)
	})
}

// runPass enforces at most one pass in flight per key. A pass arriving while
// one is running marks the key dirty; the finishing pass reruns once with the
// newest buffer.
func (c *Coordinator) runPass(roomID, senderClientID string) {
	key := passKey(roomID, senderClientID)

	c.mu.Lock()
	if c.running[key] {
		c.dirty[key] = true
		c.mu.Unlock()
		return
	}
	c.running[key] = true
	pass := c.pending[key]
	c.mu.Unlock()

	c.executePass(roomID, senderClientID, pass)

	c.mu.Lock()
	c.running[key] = false
	rerun := c.dirty[key]
	delete(c.dirty, key)
	c.mu.Unlock()

	if rerun {
		go c.runPass(roomID, senderClientID)
	}
}

func (c *Coordinator) executePass(roomID, senderClientID string, pass pendingPass) {
	ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
	defer cancel()

	comments := comment.Extract(pass.code, pass.language)

	room, err := c.store.GetRoom(ctx, roomID)
	if err != nil {
		c.log.Errorf("[Pipeline] Room %s lookup failed: %v", roomID, err)
		return
	}

	recipients := make([]model.RoomMember, 0, len(room.Members))
	for _, m := range room.Members {
		if m.ClientID != senderClientID && m.IsActive && m.ConnectionID != "" {
			recipients = append(recipients, m)
		}
	}

	if len(comments) == 0 {
		for _, r := range recipients {
			if err := c.hub.SendToConnection(r.ConnectionID, event.KindTranslateClear, event.TranslateClear{SenderClientID: senderClientID}); err != nil {
				c.log.Warnf("[Pipeline] Clear to %s failed: %v", r.ClientID, err)
			}
		}
		return
	}

	items := make([]translationItem, len(comments))
	for i, cm := range comments {
		items[i] = translationItem{text: cm.Text, line: cm.Line}
	}

	for _, r := range recipients {
		c.emitTranslations(ctx, r.ConnectionID, roomID, senderClientID, senderClientID, r.ClientID, translate.LocaleFor(r.Language), items)
	}
}

// emitTranslations resolves every item against the cache tiers and the
// provider and streams start, ordered chunks, and complete to one connection.
// fingerprintClientID keys the cache entries; for the debounced pipeline it
// is the sender, for explicit batch requests the requester.
func (c *Coordinator) emitTranslations(ctx context.Context, connectionID, roomID, fingerprintClientID, senderClientID, receiverClientID, targetLocale string, items []translationItem) {
	total := len(items)
	if err := c.hub.SendToConnection(connectionID, event.KindTranslateStart, event.TranslateStart{Total: total}); err != nil {
		// recipient is gone, skip the whole stream
		c.log.Warnf("[Pipeline] Start to %s failed: %v", receiverClientID, err)
		return
	}

	type resolved struct {
		text      string
		success   bool
		fromCache bool
		errMsg    string
	}
	results := make([]resolved, total)
	fingerprints := make([]string, total)
	var misses []int

	for i, item := range items {
		fingerprints[i] = cache.Fingerprint(item.text, targetLocale, roomID, fingerprintClientID)
		if entry, ok := c.cache.Get(ctx, fingerprints[i]); ok {
			results[i] = resolved{text: entry.TranslatedText, success: true, fromCache: true}
		} else {
			misses = append(misses, i)
		}
	}

	if len(misses) > 0 {
		texts := make([]string, len(misses))
		for j, i := range misses {
			texts[j] = items[i].text
		}
		batch, batchErr := c.provider.TranslateBatch(ctx, texts, translate.SourceAuto, targetLocale)
		if batchErr != nil {
			c.log.Warnf("[Pipeline] Batch of %d for %s failed, falling back per item: %v", len(misses), receiverClientID, batchErr)
		}

		for j, i := range misses {
			var text string
			var err error
			if batchErr == nil {
				text = batch[j]
			} else {
				text, err = c.translateOne(ctx, fingerprints[i], items[i].text, targetLocale)
			}
			if err != nil {
				// degrade to the original text rather than dropping the chunk
				results[i] = resolved{text: items[i].text, success: false, errMsg: err.Error()}
				continue
			}
			results[i] = resolved{text: text, success: true}
			c.persist(ctx, fingerprints[i], roomID, fingerprintClientID, items[i].text, targetLocale, text)
		}
	}

	for i, item := range items {
		chunk := event.TranslateChunk{
			Index:            i,
			Line:             item.line,
			OriginalText:     item.text,
			TranslatedText:   results[i].text,
			Success:          results[i].success,
			Progress:         (i + 1) * 100 / total,
			FromCache:        results[i].fromCache,
			Error:            results[i].errMsg,
			SenderClientID:   senderClientID,
			ReceiverClientID: receiverClientID,
		}
		if err := c.hub.SendToConnection(connectionID, event.KindTranslateChunk, chunk); err != nil {
			c.log.Warnf("[Pipeline] Chunk %d to %s failed: %v", i, receiverClientID, err)
			return
		}
	}

	if err := c.hub.SendToConnection(connectionID, event.KindTranslateComplete, event.TranslateComplete{Total: total}); err != nil {
		c.log.Warnf("[Pipeline] Complete to %s failed: %v", receiverClientID, err)
	}
}

// translateOne is the per-item fallback after a failed batch. Concurrent
// passes for the same fingerprint collapse to one provider call where the
// second caller can be served from cache.
func (c *Coordinator) translateOne(ctx context.Context, fingerprint, text, targetLocale string) (string, error) {
	acquired := c.acquire(fingerprint)
	if !acquired {
		if entry, ok := c.cache.Get(ctx, fingerprint); ok {
			return entry.TranslatedText, nil
		}
	} else {
		defer c.release(fingerprint)
	}
	return c.provider.Translate(ctx, text, translate.SourceAuto, targetLocale)
}

func (c *Coordinator) persist(ctx context.Context, fingerprint, roomID, clientID, original, targetLocale, translated string) {
	err := c.cache.Put(ctx, &model.TranslationEntry{
		Fingerprint:    fingerprint,
		RoomID:         roomID,
		ClientID:       clientID,
		OriginalText:   original,
		TargetLang:     targetLocale,
		TranslatedText: translated,
	})
	if err != nil {
		c.log.Warnf("[Pipeline] Cache write for %s failed: %v", fingerprint, err)
	}
}

func (c *Coordinator) acquire(fingerprint string) bool {
	c.inflightMu.Lock()
	defer c.inflightMu.Unlock()
	if c.inflight[fingerprint] {
		return false
	}
	c.inflight[fingerprint] = true
	return true
}

func (c *Coordinator) release(fingerprint string) {
	c.inflightMu.Lock()
	delete(c.inflight, fingerprint)
	c.inflightMu.Unlock()
}

// NewComment broadcasts the raw comment and translates it for every other
// active member in their own language. Translation runs off the read loop.
func (c *Coordinator) NewComment(ctx context.Context, connectionID string, p *event.NewComment) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if _, err := c.joinedSession(connectionID); err != nil {
		return err
	}

	c.hub.BroadcastToRoom(p.RoomID, event.KindCommentNew, event.CommentNew{
		RoomID:   p.RoomID,
		Text:     p.Text,
		Line:     p.Line,
		SenderID: p.SenderID,
	}, "")

	room, err := c.store.GetRoom(ctx, p.RoomID)
	if err != nil {
		return err
	}

	for _, m := range room.Members {
		if m.ClientID == p.SenderID || !m.IsActive || m.ConnectionID == "" {
			continue
		}
		go c.translateComment(p, m)
	}
	return nil
}

func (c *Coordinator) translateComment(p *event.NewComment, m model.RoomMember) {
	ctx, cancel := context.WithTimeout(context.Background(), passTimeout)
	defer cancel()

	locale := translate.LocaleFor(m.Language)
	fingerprint := cache.Fingerprint(p.Text, locale, p.RoomID, p.SenderID)

	text := p.Text
	if entry, ok := c.cache.Get(ctx, fingerprint); ok {
		text = entry.TranslatedText
	} else {
		translated, err := c.translateOne(ctx, fingerprint, p.Text, locale)
		if err != nil {
			c.log.Warnf("[Pipeline] Comment translation for %s failed: %v", m.ClientID, err)
		} else {
			text = translated
			c.persist(ctx, fingerprint, p.RoomID, p.SenderID, p.Text, locale, translated)
		}
	}

	err := c.hub.SendToConnection(m.ConnectionID, event.KindCommentTranslated, event.CommentTranslated{
		Text:         text,
		Line:         p.Line,
		OriginalText: p.Text,
		SenderID:     p.SenderID,
	})
	if err != nil {
		c.log.Warnf("[Pipeline] Translated comment to %s failed: %v", m.ClientID, err)
	}
}

// TranslateBatch serves an explicit client request for its own texts. The
// stream goes back to the requester only, keyed on the requester's clientId.
func (c *Coordinator) TranslateBatch(ctx context.Context, connectionID string, p *event.TranslateBatch) error {
	if err := p.Validate(); err != nil {
		return err
	}

	items := make([]translationItem, len(p.Texts))
	for i, text := range p.Texts {
		line := 0
		if i < len(p.Lines) {
			line = p.Lines[i]
		}
		items[i] = translationItem{text: text, line: line}
	}

	locale := translate.LocaleFor(p.TargetLanguage)
	go c.emitTranslations(ctx, connectionID, p.RoomID, p.ClientID, p.ClientID, p.ClientID, locale, items)
	return nil
}
