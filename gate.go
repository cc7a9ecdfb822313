package xlsxturbo

import (
	"log/slog"
)

// WriteMode selects how a sheet is emitted.
type WriteMode uint8

const (
	// Buffered keeps the whole sheet in memory and supports every feature.
	Buffered WriteMode = iota
	// Streaming writes rows as they are produced. Memory does not grow with
	// the row count, and only cell data and column widths are written.
	Streaming
)

func (m WriteMode) String() string {
	if m == Streaming {
		return "streaming"
	}
	return "buffered"
}

var capabilities = map[WriteMode]map[DirectiveKind]bool{
	Buffered: {
		TableKind:             true,
		ConditionalFormatKind: true,
		ValidationKind:        true,
		MergedRangeKind:       true,
		HyperlinkKind:         true,
		CommentKind:           true,
		ImageKind:             true,
		FormulaColumnKind:     true,
		RowHeightKind:         true,
		RichTextKind:          true,
		FreezePanesKind:       true,
	},
	Streaming: {},
}

// Supports reports whether mode can emit directives of kind k.
func (m WriteMode) Supports(k DirectiveKind) bool {
	return capabilities[m][k]
}

// gateDirectives keeps the directives mode supports. Unsupported ones are
// dropped without error.
func gateDirectives(sheet string, mode WriteMode, directives []Directive) []Directive {
	kept := directives[:0:0]
	dropped := make(map[DirectiveKind]int)
	for _, d := range directives {
		if mode.Supports(d.Kind()) {
			kept = append(kept, d)
			continue
		}
		dropped[d.Kind()]++
	}
	for kind, n := range dropped {
		logger().Debug("directive dropped",
			slog.String("sheet", sheet),
			slog.String("mode", mode.String()),
			slog.String("kind", kind.String()),
			slog.Int("count", n))
	}
	return kept
}

// WidthKind is how a column width is decided.
type WidthKind uint8

const (
	WidthDefault WidthKind = iota
	WidthExplicit
	WidthAutofit
	WidthAutofitCapped
)

// WidthPolicy is a column width rule. Value is the width for WidthExplicit
// and the ceiling for WidthAutofitCapped.
type WidthPolicy struct {
	Kind  WidthKind
	Value float64
}

// degrade adapts the policy to mode. Autofit needs every cell, so streaming
// falls back to the cap when there is one and to the default otherwise.
func (p WidthPolicy) degrade(mode WriteMode) WidthPolicy {
	if mode != Streaming {
		return p
	}
	switch p.Kind {
	case WidthAutofit:
		return WidthPolicy{Kind: WidthDefault}
	case WidthAutofitCapped:
		return WidthPolicy{Kind: WidthExplicit, Value: p.Value}
	}
	return p
}
