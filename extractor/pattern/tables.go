package pattern

import (
	"regexp"

	"github.com/seclens/seclens/extractor/facts"
)

// table holds the per-language regular expressions driving fallback extraction
type table struct {
	functionRes      []*regexp.Regexp // group 1 = name, group 2 = parameter list
	classRe          *regexp.Regexp   // group 1 = class name
	callRe           *regexp.Regexp   // group 1 = callee expression
	annotationRe     *regexp.Regexp   // group 1 = annotation name
	constructorNames map[string]bool
	keywords         map[string]bool // language-specific non-call keywords
	indentScoped     bool
}

// genericCallRe matches identifier chains followed by an open parenthesis,
// covering dots, arrows and scope operators across the supported languages
var genericCallRe = regexp.MustCompile(`([$\w]+(?:\s*(?:\.|->|::)\s*[$\w]+)*)\s*\(`)

var tables = map[facts.Language]*table{
	facts.LangTypeScript: {
		functionRes: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*(\w+)\s*(?:<[^>]*>)?\(([^)]*)\)`),
			regexp.MustCompile(`^\s*(?:export\s+)?const\s+(\w+)\s*=\s*(?:async\s+)?\(([^)]*)\)\s*(?::[^=]+)?=>`),
			regexp.MustCompile(`^\s*(?:public\s+|private\s+|protected\s+|static\s+|readonly\s+|async\s+)+(\w+)\s*\(([^)]*)\)\s*(?::\s*[\w<>,.\[\]\s|]+)?\s*\{`),
		},
		classRe:          regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+(\w+)`),
		callRe:           genericCallRe,
		annotationRe:     regexp.MustCompile(`^@(\w+)`),
		constructorNames: map[string]bool{"constructor": true},
		keywords:         map[string]bool{"constructor": true, "await": true, "interface": true, "type": true},
	},
	facts.LangPython: {
		functionRes: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(?:async\s+)?def\s+(\w+)\s*\(([^)]*)\)`),
		},
		classRe:          regexp.MustCompile(`^\s*class\s+(\w+)`),
		callRe:           genericCallRe,
		annotationRe:     regexp.MustCompile(`^@([\w.]+)`),
		constructorNames: map[string]bool{"__init__": true},
		keywords:         map[string]bool{"lambda": true, "yield": true, "raise": true, "del": true},
		indentScoped:     true,
	},
	facts.LangJava: {
		functionRes: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|final|abstract|synchronized|native)\s+)+[\w<>,.\[\]\s]+?\s+(\w+)\s*\(([^)]*)\)\s*(?:throws\s+[\w,.\s]+)?\{`),
			regexp.MustCompile(`^\s*(?:(?:public|private|protected)\s+)(\w+)\s*\(([^)]*)\)\s*(?:throws\s+[\w,.\s]+)?\{`),
		},
		classRe:      regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|final|abstract)\s+)*(?:class|interface|enum|record)\s+(\w+)`),
		callRe:       genericCallRe,
		annotationRe: regexp.MustCompile(`^@(\w+)`),
		keywords:     map[string]bool{"synchronized": true, "instanceof": true},
	},
	facts.LangCSharp: {
		functionRes: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|static|virtual|override|async|sealed)\s+)+[\w<>,.\[\]\s?]+?\s+(\w+)\s*(?:<[^>]*>)?\(([^)]*)\)`),
		},
		classRe:      regexp.MustCompile(`^\s*(?:(?:public|private|protected|internal|static|sealed|abstract|partial)\s+)*(?:class|struct|interface|record)\s+(\w+)`),
		callRe:       genericCallRe,
		annotationRe: regexp.MustCompile(`^\[(\w+)`),
		keywords:     map[string]bool{"nameof": true, "default": true, "var": true},
	},
	facts.LangPHP: {
		functionRes: []*regexp.Regexp{
			regexp.MustCompile(`^\s*(?:(?:public|private|protected|static|final|abstract)\s+)*function\s+(\w+)\s*\(([^)]*)\)`),
		},
		classRe:          regexp.MustCompile(`^\s*(?:(?:final|abstract)\s+)*(?:class|interface|trait)\s+(\w+)`),
		callRe:           genericCallRe,
		annotationRe:     regexp.MustCompile(`^#\[(\w+)`),
		constructorNames: map[string]bool{"__construct": true},
		keywords:         map[string]bool{"echo": true, "isset": true, "unset": true, "array": true, "list": true, "empty": true},
	},
}
