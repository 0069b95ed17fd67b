// Package explicit extracts business fields from the data a profile page embeds
// for its own rendering: the preloaded application state and the linked-data block.
package explicit

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/dop251/goja"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/law-makers/bizcrawl/internal/engine"
	"github.com/law-makers/bizcrawl/pkg/models"
)

const (
	statePath          = "businessProfile"
	accreditedPath     = statePath + ".accreditationInformation.isAccredited"
	contactsPath       = statePath + ".contactInformation.contacts"
	primaryURLPath     = statePath + ".urls.primary"
	linkedDataSelector = "script[type='application/ld+json']"

	// scriptBudget bounds evaluation of a non-JSON state literal
	scriptBudget = 2 * time.Second
)

var preloadedState = regexp.MustCompile(`^\s*window\.__PRELOADED_STATE__\s*=\s*(\{[\s\S]*\})\s*;?\s*$`)

// Extractor reads profile fields deterministically from embedded page data
type Extractor struct {
	ReadySelector string
	WaitTimeout   time.Duration
}

// New creates a deterministic Extractor
func New(readySelector string, waitTimeout time.Duration) *Extractor {
	if readySelector == "" {
		readySelector = "body"
	}
	return &Extractor{ReadySelector: readySelector, WaitTimeout: waitTimeout}
}

// Name returns the name of this extractor
func (e *Extractor) Name() string {
	return "explicit"
}

// Extract loads link in page and parses the rendered document.
// Only navigation and readiness failures are returned; missing or malformed
// embedded data degrades the affected fields to nil.
func (e *Extractor) Extract(ctx context.Context, page engine.Page, link string) (models.BusinessRecord, error) {
	if err := page.Navigate(ctx, link); err != nil {
		return models.BusinessRecord{}, engine.LoadFailure(link, err)
	}
	if err := page.WaitAttached(ctx, e.ReadySelector, e.WaitTimeout); err != nil {
		return models.BusinessRecord{}, engine.LoadFailure(link, err)
	}
	html, err := page.HTML(ctx)
	if err != nil {
		return models.BusinessRecord{}, engine.NavigationFailure(link, fmt.Errorf("read profile: %w", err))
	}
	return ParseProfile(html), nil
}

// ParseProfile builds a record from a profile document
func ParseProfile(html string) models.BusinessRecord {
	var rec models.BusinessRecord

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Debug().Err(engine.ParseFailure("profile document", err)).Msg("Profile left empty")
		return rec
	}

	if state, err := stateFrom(doc); err != nil {
		log.Debug().Err(err).Msg("Preloaded state unavailable")
	} else {
		applyState(&rec, state)
	}

	if ld, err := linkedDataFrom(doc); err != nil {
		log.Debug().Err(err).Msg("Linked data unavailable")
	} else {
		applyLinkedData(&rec, ld)
	}

	return rec
}

func applyState(rec *models.BusinessRecord, state gjson.Result) {
	rec.Accredited = optionalBool(state, accreditedPath)
	rec.Domain = optionalString(state, primaryURLPath)

	for _, contact := range state.Get(contactsPath).Array() {
		if contact.Get("isPrincipal").Type != gjson.True {
			continue
		}
		name := contact.Get("name")
		rec.PrincipalContact = models.NameParts{
			Prefix: stringAt(name, "prefix"),
			First:  stringAt(name, "first"),
			Middle: stringAt(name, "middle"),
			Last:   stringAt(name, "last"),
			Suffix: stringAt(name, "suffix"),
		}.FullName()
		break
	}
}

func applyLinkedData(rec *models.BusinessRecord, ld gjson.Result) {
	rec.Name = optionalString(ld, "name")
	rec.Phone = optionalString(ld, "telephone")

	addr := ld.Get("address")
	if !addr.IsObject() {
		return
	}
	rec.Address = models.AddressParts{
		Street:     stringAt(addr, "streetAddress"),
		Locality:   stringAt(addr, "addressLocality"),
		Region:     stringAt(addr, "addressRegion"),
		PostalCode: stringAt(addr, "postalCode"),
		Country:    stringAt(addr, "addressCountry"),
	}.Formatted()
}

// stateFrom finds the inline script assigning the preloaded state and parses it
func stateFrom(doc *goquery.Document) (gjson.Result, error) {
	var blob string
	doc.Find("script").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if _, external := s.Attr("src"); external {
			return true
		}
		if m := preloadedState.FindStringSubmatch(s.Text()); m != nil {
			blob = m[1]
			return false
		}
		return true
	})
	if blob == "" {
		return gjson.Result{}, engine.ParseFailure("preloaded state", engine.ErrParseError)
	}

	normalized, err := normalizeState(blob)
	if err != nil {
		return gjson.Result{}, engine.ParseFailure("preloaded state", err)
	}
	return gjson.Parse(normalized), nil
}

// normalizeState returns blob as strict JSON. Object literals that are not
// valid JSON are evaluated in an isolated VM and serialized.
func normalizeState(blob string) (string, error) {
	if gjson.Valid(blob) {
		return blob, nil
	}

	vm := goja.New()
	timer := time.AfterFunc(scriptBudget, func() {
		vm.Interrupt("preloaded state evaluation timed out")
	})
	defer timer.Stop()

	v, err := vm.RunString("JSON.stringify(" + blob + ")")
	if err != nil {
		return "", fmt.Errorf("evaluate state literal: %w", err)
	}
	out := v.String()
	if !gjson.Valid(out) {
		return "", fmt.Errorf("state literal did not serialize to JSON")
	}
	return out, nil
}

// linkedDataFrom parses the first linked-data block, unwrapping a top-level array
func linkedDataFrom(doc *goquery.Document) (gjson.Result, error) {
	script := doc.Find(linkedDataSelector).First()
	if script.Length() == 0 {
		return gjson.Result{}, engine.ParseFailure("linked data", engine.ErrParseError)
	}
	text := strings.TrimSpace(script.Text())
	if !gjson.Valid(text) {
		return gjson.Result{}, engine.ParseFailure("linked data", fmt.Errorf("invalid JSON"))
	}

	ld := gjson.Parse(text)
	if ld.IsArray() {
		ld = ld.Get("0")
	}
	if !ld.IsObject() {
		return gjson.Result{}, engine.ParseFailure("linked data", fmt.Errorf("expected object, got %s", ld.Type))
	}
	return ld, nil
}

// optionalString returns the non-empty string at path, or nil for any other shape
func optionalString(r gjson.Result, path string) *string {
	return models.String(stringAt(r, path))
}

// optionalBool returns the boolean at path, or nil for any other shape
func optionalBool(r gjson.Result, path string) *bool {
	v := r.Get(path)
	switch v.Type {
	case gjson.True:
		return models.Bool(true)
	case gjson.False:
		return models.Bool(false)
	}
	return nil
}

func stringAt(r gjson.Result, path string) string {
	v := r.Get(path)
	if v.Type != gjson.String {
		return ""
	}
	return v.String()
}
