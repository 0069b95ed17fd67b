// Package model extracts business fields by asking a language model two scoped
// questions about the rendered profile page.
package model

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"

	"github.com/law-makers/bizcrawl/internal/engine"
	"github.com/law-makers/bizcrawl/internal/llm"
	"github.com/law-makers/bizcrawl/internal/utils/output"
	"github.com/law-makers/bizcrawl/pkg/models"
)

// DefaultMaxPageChars caps the Markdown sent with each instruction
const DefaultMaxPageChars = 60000

const systemPrompt = `You read business directory profile pages rendered as Markdown.
Answer with exactly one JSON object matching the requested fields and nothing else.
Use null for any value that is not present on the page. Do not guess.`

// profileFacts is the result of the accreditation/contact/website instruction
type profileFacts struct {
	Accredited       *bool   `json:"accredited" validate:"required"`
	PrincipalContact *string `json:"principalContact"`
	Domain           *string `json:"domain" validate:"omitempty,url"`
}

const profileInstruction = `Extract these fields:
- "accredited" (boolean, required): whether the business is accredited by the directory.
- "principalContact" (string or null): the full name of the principal contact. Exclude trailing
  role or title words such as owner, member, representative or agent, and any trailing commas.
- "domain" (URL string or null): the href of the "Visit Website" link located above "Write a Review".`

// contactFacts is the result of the name/address/phone instruction
type contactFacts struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Phone   *string `json:"phone"`
}

const contactInstruction = `Extract these fields:
- "name" (string or null): the business name.
- "address" (string or null): the mailing address of the business shown in the overview section.
- "phone" (string or null): the phone number located above "Write a Review".`

// Extractor is the model-driven field extractor
type Extractor struct {
	client        llm.Completer
	validate      *validator.Validate
	ReadySelector string
	WaitTimeout   time.Duration
	MaxPageChars  int
}

// New creates a model-driven Extractor using client for completions
func New(client llm.Completer, readySelector string, waitTimeout time.Duration) *Extractor {
	if readySelector == "" {
		readySelector = "body"
	}
	return &Extractor{
		client:        client,
		validate:      validator.New(),
		ReadySelector: readySelector,
		WaitTimeout:   waitTimeout,
		MaxPageChars:  DefaultMaxPageChars,
	}
}

// Name returns the name of this extractor
func (e *Extractor) Name() string {
	return "model"
}

// Extract loads link and runs both instructions against the page.
// A failed instruction leaves only its own three fields nil.
func (e *Extractor) Extract(ctx context.Context, page engine.Page, link string) (models.BusinessRecord, error) {
	var rec models.BusinessRecord

	if err := page.Navigate(ctx, link); err != nil {
		return rec, engine.LoadFailure(link, err)
	}
	if err := page.WaitAttached(ctx, e.ReadySelector, e.WaitTimeout); err != nil {
		return rec, engine.LoadFailure(link, err)
	}
	html, err := page.HTML(ctx)
	if err != nil {
		return rec, engine.NavigationFailure(link, fmt.Errorf("read profile: %w", err))
	}

	content := e.pageContent(html, link)

	var facts profileFacts
	if err := e.ask(ctx, "profile instruction", profileInstruction, content, &facts); err != nil {
		log.Warn().Err(err).Str("profile", link).Msg("Profile facts unavailable")
	} else {
		rec.Accredited = facts.Accredited
		rec.PrincipalContact = cleanContact(facts.PrincipalContact)
		rec.Domain = trimmed(facts.Domain)
	}

	var contact contactFacts
	if err := e.ask(ctx, "contact instruction", contactInstruction, content, &contact); err != nil {
		log.Warn().Err(err).Str("profile", link).Msg("Contact facts unavailable")
	} else {
		rec.Name = trimmed(contact.Name)
		rec.Address = trimmed(contact.Address)
		rec.Phone = trimmed(contact.Phone)
	}

	return rec, nil
}

// pageContent converts the page to Markdown, falling back to the raw document
func (e *Extractor) pageContent(html, link string) string {
	content, err := output.PageMarkdown(html, link)
	if err != nil {
		log.Debug().Err(err).Str("profile", link).Msg("Markdown conversion failed, sending raw HTML")
		content = html
	}
	return truncate(content, e.MaxPageChars)
}

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// ask sends one instruction and decodes and validates the reply into dst
func (e *Extractor) ask(ctx context.Context, name, instruction, content string, dst interface{}) error {
	prompt := instruction + "\n\nPage:\n\n" + content

	reply, err := e.client.Complete(ctx, systemPrompt, prompt)
	if err != nil {
		return engine.NewEngineError(engine.ErrCodeExtractor, name+" failed", err)
	}

	if err := decodeStrict(reply, dst); err != nil {
		return engine.SchemaValidationFailure(name, err)
	}
	if err := e.validate.Struct(dst); err != nil {
		return engine.SchemaValidationFailure(name, err)
	}
	return nil
}

// decodeStrict decodes the first well-formed JSON object embedded in reply,
// rejecting unknown keys and wrong types. Braces in surrounding prose are skipped.
func decodeStrict(reply string, dst interface{}) error {
	raw, ok := firstObject(reply)
	if !ok {
		return fmt.Errorf("reply contains no JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode reply: %w", err)
	}
	return nil
}

func firstObject(reply string) (json.RawMessage, bool) {
	for i := 0; i < len(reply); i++ {
		if reply[i] != '{' {
			continue
		}
		var raw json.RawMessage
		if err := json.NewDecoder(strings.NewReader(reply[i:])).Decode(&raw); err == nil {
			return raw, true
		}
	}
	return nil, false
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	return models.String(*s)
}

// cleanContact strips trailing commas the model sometimes keeps from "Name, Owner" lists
func cleanContact(s *string) *string {
	if s == nil {
		return nil
	}
	return models.String(strings.TrimRight(strings.TrimSpace(*s), ","))
}
