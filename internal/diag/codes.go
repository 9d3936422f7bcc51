package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка - на первое время
	UnknownCode Code = 0

	// Declaration input
	InpInfo          Code = 1000
	InpReadFailed    Code = 1001
	InpMalformedFile Code = 1002
	InpMalformedItem Code = 1003
	InpBadTypeExpr   Code = 1004
	InpBadValueExpr  Code = 1005
	InpDuplicateDecl Code = 1006

	// Type environment and mapping
	TypInfo           Code = 2000
	TypUnresolved     Code = 2001
	TypCyclicAlias    Code = 2002
	TypUnsupported    Code = 2003
	TypAliasRedefined Code = 2004

	// Emission
	EmtInfo                     Code = 3000
	EmtUnsupportedCallbackShape Code = 3001
	EmtMultipleArrayPairs       Code = 3002

	// Configuration
	CfgInfo              Code = 4000
	CfgMalformedConstant Code = 4001
	CfgUnknownBackend    Code = 4002
	CfgMissingKey        Code = 4003
	CfgInvalidValue      Code = 4004

	// Output
	OutInfo        Code = 5000
	OutWriteFailed Code = 5001
	OutCacheFailed Code = 5002
)

var (
	codeDescription = map[Code]string{
		UnknownCode:                 "Unknown error",
		InpInfo:                     "Declaration input information",
		InpReadFailed:               "Failed to read declaration file",
		InpMalformedFile:            "Malformed declaration file",
		InpMalformedItem:            "Malformed declaration item",
		InpBadTypeExpr:              "Invalid type expression",
		InpBadValueExpr:             "Invalid value expression",
		InpDuplicateDecl:            "Duplicate declaration",
		TypInfo:                     "Type information",
		TypUnresolved:               "Unresolved type",
		TypCyclicAlias:              "Cyclic type alias",
		TypUnsupported:              "Unsupported type",
		TypAliasRedefined:           "Type alias redefined after use",
		EmtInfo:                     "Emission information",
		EmtUnsupportedCallbackShape: "Unsupported callback shape",
		EmtMultipleArrayPairs:       "More than one pointer/length pair",
		CfgInfo:                     "Configuration information",
		CfgMalformedConstant:        "Malformed custom constant",
		CfgUnknownBackend:           "Unknown target backend",
		CfgMissingKey:               "Missing configuration key",
		CfgInvalidValue:             "Invalid configuration value",
		OutInfo:                     "Output information",
		OutWriteFailed:              "Failed to write output document",
		OutCacheFailed:              "Output cache failure",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("INP%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("TYP%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("EMT%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("CFG%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("OUT%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
