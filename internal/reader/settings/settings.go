// Copyright (c) 2026 Folio. All rights reserved.
// Author: minh.le.quoc@gmail.com

/*
Package settings manages the global reader presentation settings.

# Overview

Each setting carries an independent validator; updating one setting that
passes validation persists the whole document and re-applies every setting
to the active reading surface. The re-apply is always full, never
incremental, so the surface can stay a dumb sink.

Margins are stored symbolically (narrow/normal/wide) and resolved to
concrete spacing only at apply time through a fixed lookup table.
*/
package settings

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/minhlq/folio/internal/platform/apperr"
	"github.com/minhlq/folio/internal/platform/constants"
	"github.com/minhlq/folio/internal/platform/kvstore"
	"github.com/minhlq/folio/internal/platform/validate"
)

// Setting value bounds and enumerations.
const (
	MinFontSize   = 12
	MaxFontSize   = 32
	MinLineHeight = 1.2
	MaxLineHeight = 2.0
)

// Settings is the persisted reader settings document.
type Settings struct {
	// FontSize is the body text size in pixels, within [12,32].
	FontSize int `json:"fontSize"`
	// LineHeight is the unitless line-height multiplier, within [1.2,2.0].
	LineHeight float64 `json:"lineHeight"`
	// Theme is one of light, dark, sepia.
	Theme string `json:"theme"`
	// FontFamily is one of system, serif, sans-serif, mono.
	FontFamily string `json:"fontFamily"`
	// Margin is the symbolic page margin: narrow, normal, wide.
	Margin string `json:"margin"`
	// TextAlign is one of left, justify, center.
	TextAlign string `json:"textAlign"`
}

// Defaults returns the settings used before the user changes anything.
func Defaults() Settings {
	return Settings{
		FontSize:   16,
		LineHeight: 1.6,
		Theme:      "light",
		FontFamily: "system",
		Margin:     "normal",
		TextAlign:  "left",
	}
}

// Applied is the fully resolved form pushed to the reading surface: symbolic
// values replaced by the concrete CSS the surface renders with.
type Applied struct {
	FontSizePx string `json:"fontSizePx"`
	LineHeight string `json:"lineHeight"`
	FontFamily string `json:"fontFamily"`
	TextAlign  string `json:"textAlign"`
	Padding    string `json:"padding"`
	ThemeClass string `json:"themeClass"`
}

// Surface is the sink settings are applied to. The HTTP layer provides one
// that relays the resolved values to the client.
type Surface interface {
	Apply(Applied)
}

// marginLookup resolves the symbolic margin to a concrete spacing value.
var marginLookup = map[string]string{
	"narrow": "1rem",
	"normal": "2rem",
	"wide":   "4rem",
}

// fontLookup resolves the symbolic family to a CSS font stack.
var fontLookup = map[string]string{
	"system":     `system-ui, -apple-system, "Segoe UI", sans-serif`,
	"serif":      `Georgia, "Times New Roman", serif`,
	"sans-serif": `"Helvetica Neue", Arial, sans-serif`,
	"mono":       `"SF Mono", Consolas, monospace`,
}

// Manager owns the settings document and its application to the surface.
//
// All methods are safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	current Settings

	store   kvstore.Store
	logger  *slog.Logger
	surface Surface
}

// NewManager loads persisted settings, merges valid fields over the
// defaults, and applies the result to surface. A nil surface is allowed.
//
// Invalid persisted fields (e.g. written by a newer build with different
// bounds) are silently replaced by their defaults.
func NewManager(ctx context.Context, store kvstore.Store, logger *slog.Logger, surface Surface) *Manager {
	m := &Manager{
		current: Defaults(),
		store:   store,
		logger:  logger,
		surface: surface,
	}

	var persisted Settings
	err := store.Get(ctx, constants.StorageKeySettings, &persisted)
	switch {
	case err == nil:
		m.current = mergeValid(Defaults(), persisted)
	case !apperr.IsNotFound(err):
		m.logger.Warn("failed to restore reader settings", constants.FieldError, err.Error())
	}

	m.applyLocked()
	return m
}

// Current returns a copy of the active settings.
func (m *Manager) Current() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Resolved returns the concrete form of the active settings.
func (m *Manager) Resolved() Applied {
	m.mu.Lock()
	defer m.mu.Unlock()
	return resolve(m.current)
}

// UpdateSetting validates and stores a single setting.
//
// An unknown key or an out-of-range value returns false with no state
// change, no persistence, and no re-application. On success the whole
// document is persisted and every setting is re-applied to the surface.
//
// Numeric values are accepted as float64, the type JSON decoding produces.
func (m *Manager) UpdateSetting(ctx context.Context, key string, value any) bool {
	m.mu.Lock()

	next := m.current
	switch key {
	case "fontSize":
		n, ok := asInt(value)
		if !ok || n < MinFontSize || n > MaxFontSize {
			m.mu.Unlock()
			return false
		}
		next.FontSize = n
	case "lineHeight":
		f, ok := asFloat(value)
		if !ok || f < MinLineHeight || f > MaxLineHeight {
			m.mu.Unlock()
			return false
		}
		next.LineHeight = f
	case "theme":
		s, ok := asEnum(value, "light", "dark", "sepia")
		if !ok {
			m.mu.Unlock()
			return false
		}
		next.Theme = s
	case "fontFamily":
		s, ok := asEnum(value, "system", "serif", "sans-serif", "mono")
		if !ok {
			m.mu.Unlock()
			return false
		}
		next.FontFamily = s
	case "margin":
		s, ok := asEnum(value, "narrow", "normal", "wide")
		if !ok {
			m.mu.Unlock()
			return false
		}
		next.Margin = s
	case "textAlign":
		s, ok := asEnum(value, "left", "justify", "center")
		if !ok {
			m.mu.Unlock()
			return false
		}
		next.TextAlign = s
	default:
		m.mu.Unlock()
		return false
	}

	m.current = next
	if err := m.store.Set(ctx, constants.StorageKeySettings, m.current); err != nil {
		m.logger.Error("failed to persist reader settings",
			constants.FieldError, apperr.StorageError(err).Error(),
			slog.Any("cause", err))
	}
	m.applyLocked()
	m.mu.Unlock()

	return true
}

// applyLocked pushes the resolved settings to the surface, if one is wired.
func (m *Manager) applyLocked() {
	if m.surface != nil {
		m.surface.Apply(resolve(m.current))
	}
}

// resolve maps the symbolic document to concrete surface values.
func resolve(s Settings) Applied {
	return Applied{
		FontSizePx: strconv.Itoa(s.FontSize) + "px",
		LineHeight: strconv.FormatFloat(s.LineHeight, 'g', -1, 64),
		FontFamily: fontLookup[s.FontFamily],
		TextAlign:  s.TextAlign,
		Padding:    marginLookup[s.Margin],
		ThemeClass: "theme-" + s.Theme,
	}
}

// mergeValid overlays persisted fields onto defaults, keeping only the
// fields that pass their validator.
func mergeValid(base, persisted Settings) Settings {
	passes := func(check *validate.Validator) bool { return !check.HasErrors() }

	if passes(new(validate.Validator).Range("fontSize", persisted.FontSize, MinFontSize, MaxFontSize)) {
		base.FontSize = persisted.FontSize
	}
	if passes(new(validate.Validator).FloatRange("lineHeight", persisted.LineHeight, MinLineHeight, MaxLineHeight)) {
		base.LineHeight = persisted.LineHeight
	}
	if passes(new(validate.Validator).OneOf("theme", persisted.Theme, "light", "dark", "sepia")) {
		base.Theme = persisted.Theme
	}
	if passes(new(validate.Validator).OneOf("fontFamily", persisted.FontFamily, "system", "serif", "sans-serif", "mono")) {
		base.FontFamily = persisted.FontFamily
	}
	if passes(new(validate.Validator).OneOf("margin", persisted.Margin, "narrow", "normal", "wide")) {
		base.Margin = persisted.Margin
	}
	if passes(new(validate.Validator).OneOf("textAlign", persisted.TextAlign, "left", "justify", "center")) {
		base.TextAlign = persisted.TextAlign
	}
	return base
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func asInt(v any) (int, bool) {
	f, ok := asFloat(v)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

func asEnum(v any, allowed ...string) (string, bool) {
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	for _, a := range allowed {
		if s == a {
			return s, true
		}
	}
	return "", false
}
