package xlsxturbo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func allDirectives() []Directive {
	return []Directive{
		TableDirective{Name: "T"},
		ConditionalFormatDirective{},
		ValidationDirective{},
		MergedRangeDirective{},
		HyperlinkDirective{},
		CommentDirective{},
		ImageDirective{},
		FormulaColumnDirective{Name: "f"},
		RowHeightDirective{},
		RichTextDirective{},
		FreezePanesDirective{Rows: 1},
	}
}

func TestGateDirectives(t *testing.T) {
	in := allDirectives()
	assert.Equal(t, in, gateDirectives("S", Buffered, in))
	assert.Empty(t, gateDirectives("S", Streaming, in))
	// The input slice is left alone.
	assert.Len(t, in, len(directiveKindNames))
}

func TestWriteModeSupports(t *testing.T) {
	for k := range directiveKindNames {
		kind := DirectiveKind(k)
		assert.True(t, Buffered.Supports(kind), kind.String())
		assert.False(t, Streaming.Supports(kind), kind.String())
	}
	assert.Equal(t, "streaming", Streaming.String())
	assert.Equal(t, "buffered", Buffered.String())
}

func TestWidthPolicyDegrade(t *testing.T) {
	cases := []struct {
		in, buffered, streaming WidthPolicy
	}{
		{WidthPolicy{}, WidthPolicy{}, WidthPolicy{}},
		{WidthPolicy{Kind: WidthExplicit, Value: 12}, WidthPolicy{Kind: WidthExplicit, Value: 12}, WidthPolicy{Kind: WidthExplicit, Value: 12}},
		{WidthPolicy{Kind: WidthAutofit}, WidthPolicy{Kind: WidthAutofit}, WidthPolicy{}},
		{WidthPolicy{Kind: WidthAutofitCapped, Value: 30}, WidthPolicy{Kind: WidthAutofitCapped, Value: 30}, WidthPolicy{Kind: WidthExplicit, Value: 30}},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.buffered, tc.in.degrade(Buffered))
		assert.Equal(t, tc.streaming, tc.in.degrade(Streaming))
	}
}
