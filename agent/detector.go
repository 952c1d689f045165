package agent

import (
	"path/filepath"
	"strings"

	"orby/config"
	"orby/tools"
)

// Category keys a tool's output in a Context.
type Category string

const (
	CategoryTerminal Category = "terminal_execution"
	CategorySearch   Category = "web_search"
	CategoryFile     Category = "file_read"
)

type extraction int

const (
	// extractAfter takes the text following the trigger.
	extractAfter extraction = iota
	// extractWhole takes the entire original prompt.
	extractWhole
	// extractNone detects intent without yielding anything to invoke.
	extractNone
)

type trigger struct {
	phrase   string
	category Category
	rule     extraction
}

// triggers is evaluated top to bottom. Within a category the first
// extracting row that matches wins; phrase rows only take effect when no
// prefix row of the same category matched.
var triggers = []trigger{
	{"execute:", CategoryTerminal, extractAfter},
	{"run:", CategoryTerminal, extractAfter},
	{"terminal:", CategoryTerminal, extractAfter},
	{"command:", CategoryTerminal, extractAfter},
	{"can you run", CategoryTerminal, extractNone},
	{"please run", CategoryTerminal, extractNone},
	{"try running", CategoryTerminal, extractNone},
	{"run this command", CategoryTerminal, extractNone},
	{"execute this", CategoryTerminal, extractNone},
	{"terminal command", CategoryTerminal, extractNone},

	{"search:", CategorySearch, extractAfter},
	{"find:", CategorySearch, extractAfter},
	{"lookup:", CategorySearch, extractAfter},
	{"google:", CategorySearch, extractAfter},
	{"web:", CategorySearch, extractAfter},
	{"can you search", CategorySearch, extractWhole},
	{"please search", CategorySearch, extractWhole},
	{"look up", CategorySearch, extractWhole},
	{"what is", CategorySearch, extractWhole},
	{"who is", CategorySearch, extractWhole},
	{"when was", CategorySearch, extractWhole},
	{"how does", CategorySearch, extractWhole},
	{"why is", CategorySearch, extractWhole},
	{"current status", CategorySearch, extractWhole},
	{"latest news", CategorySearch, extractWhole},
	{"recent updates", CategorySearch, extractWhole},

	{"file:", CategoryFile, extractAfter},
}

// Match is one detected intent. Tool is empty when the trigger carried no
// payload, in which case nothing is invoked.
type Match struct {
	Category Category
	Trigger  string
	Tool     string
	Params   tools.Params
}

func (m Match) Invocable() bool {
	return m.Tool != ""
}

// Detection holds at most one Match per category, in category order.
type Detection struct {
	Matches []Match
}

func (d Detection) Empty() bool {
	return len(d.Matches) == 0
}

// Get returns the match for category c.
func (d Detection) Get(c Category) (Match, bool) {
	for _, m := range d.Matches {
		if m.Category == c {
			return m, true
		}
	}
	return Match{}, false
}

// Invocations returns the matches that name a tool to run.
func (d Detection) Invocations() []Match {
	var out []Match
	for _, m := range d.Matches {
		if m.Invocable() {
			out = append(out, m)
		}
	}
	return out
}

// Detector finds tool triggers in user prompts.
type Detector struct {
	terminal bool
	search   bool
	files    bool
	baseDir  string
}

// NewDetector creates a detector honoring cfg's tool flags. Relative paths
// given with "file:" resolve against baseDir.
func NewDetector(cfg *config.Config, baseDir string) *Detector {
	return &Detector{
		terminal: cfg.EnableTerminalExecution,
		search:   cfg.EnableOnlineSearch,
		files:    cfg.EnableFileRead,
		baseDir:  baseDir,
	}
}

func (d *Detector) enabled(c Category) bool {
	switch c {
	case CategoryTerminal:
		return d.terminal
	case CategorySearch:
		return d.search
	case CategoryFile:
		return d.files
	}
	return false
}

// Detect scans text for triggers. Matching ignores case; extracted payloads
// keep the original casing. It has no side effects.
func (d *Detector) Detect(text string) Detection {
	lower := lowerASCII(text)

	var det Detection
	for _, c := range []Category{CategoryTerminal, CategorySearch, CategoryFile} {
		if !d.enabled(c) {
			continue
		}
		if m, ok := d.detectCategory(c, text, lower); ok {
			det.Matches = append(det.Matches, m)
		}
	}
	return det
}

func (d *Detector) detectCategory(c Category, text, lower string) (Match, bool) {
	var phrase *trigger
	for i := range triggers {
		t := &triggers[i]
		if t.category != c {
			continue
		}
		idx := t.index(lower)
		if idx < 0 {
			continue
		}
		if t.rule == extractAfter {
			payload := strings.TrimSpace(text[idx+len(t.phrase):])
			return d.match(t, payload), true
		}
		if phrase == nil {
			phrase = t
		}
	}

	if phrase == nil {
		return Match{}, false
	}
	if phrase.rule == extractWhole {
		return d.match(phrase, text), true
	}
	return Match{Category: c, Trigger: phrase.phrase}, true
}

func (d *Detector) match(t *trigger, payload string) Match {
	m := Match{Category: t.category, Trigger: t.phrase}
	if payload == "" {
		return m
	}

	switch t.category {
	case CategoryTerminal:
		m.Tool = tools.ShellToolName
		m.Params = tools.Params{"command": payload}
	case CategorySearch:
		m.Tool = tools.WebSearchToolName
		m.Params = tools.Params{"query": payload}
	case CategoryFile:
		path := strings.Trim(strings.Fields(payload)[0], "\"'`")
		if path == "" {
			return m
		}
		path = config.ExpandPath(path)
		if !filepath.IsAbs(path) && d.baseDir != "" {
			path = filepath.Join(d.baseDir, path)
		}
		m.Tool = tools.ReadFileToolName
		m.Params = tools.Params{"absolute_path": path}
	}
	return m
}

// index returns the first usable occurrence of the phrase in lower, or -1.
// File triggers must begin a word, so "profile:" does not read a file.
func (t *trigger) index(lower string) int {
	if t.category != CategoryFile {
		return strings.Index(lower, t.phrase)
	}
	for off := 0; off < len(lower); {
		i := strings.Index(lower[off:], t.phrase)
		if i < 0 {
			return -1
		}
		i += off
		if i == 0 || !isWordByte(lower[i-1]) {
			return i
		}
		off = i + 1
	}
	return -1
}

func isWordByte(c byte) bool {
	return c == '_' || '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || c >= 0x80
}

// lowerASCII lowercases ASCII letters only, so byte offsets in the result
// line up with the original text.
func lowerASCII(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
