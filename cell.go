package xlsxturbo

import (
	"strings"
)

type LinkType string

const (
	External LinkType = "External"
	Location LinkType = "Location"
)

const internalLinkPrefix = "internal:"

type HyperLink struct {
	Link string
	Type LinkType
}

// NewHyperLink classifies a link target. "internal:Sheet2!A1" points inside
// the workbook; anything else is an external URL.
func NewHyperLink(target string) HyperLink {
	if loc, ok := strings.CutPrefix(target, internalLinkPrefix); ok {
		return HyperLink{Link: loc, Type: Location}
	}
	return HyperLink{Link: target, Type: External}
}
