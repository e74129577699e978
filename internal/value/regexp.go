package value

import (
	"strings"

	"github.com/dlclark/regexp2"
)

// RegexpData is the RegExp-kind object's subtype payload (spec §3.2):
// the compiled pattern plus the source text and flag bits a script
// reads back through .source/.flags/.global/.ignoreCase/.multiline,
// and the mutable .lastIndex a "g" or "y" regex advances between exec()
// calls.
type RegexpData struct {
	Compiled   *regexp2.Regexp
	Source     string
	Flags      string
	Global     bool
	IgnoreCase bool
	Multiline  bool
	LastIndex  int
}

// NewRegExp compiles source/flags into a fresh RegExp-kind object (spec
// §4.1 "Disambiguation of /"): the lexer/parser hand back the literal
// body and trailing flag letters verbatim, and regexp2's RegexOptions
// bits line up one-to-one with the ECMAScript flag letters this engine
// supports.
func NewRegExp(source, flags string) (*Object, error) {
	opts := regexp2.None
	for _, f := range flags {
		switch f {
		case 'i':
			opts |= regexp2.IgnoreCase
		case 'm':
			opts |= regexp2.Multiline
		case 's':
			opts |= regexp2.Singleline
		}
	}
	re, err := regexp2.Compile(source, opts)
	if err != nil {
		return nil, err
	}
	o := NewObject(RegExp)
	o.Regexp = &RegexpData{
		Compiled:   re,
		Source:     source,
		Flags:      flags,
		Global:     strings.ContainsRune(flags, 'g'),
		IgnoreCase: strings.ContainsRune(flags, 'i'),
		Multiline:  strings.ContainsRune(flags, 'm'),
	}
	return o, nil
}
