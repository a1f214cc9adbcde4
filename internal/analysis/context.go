// internal/analysis/context.go
package analysis

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/davidmazza/lucyreport/internal/logging"
	"github.com/davidmazza/lucyreport/internal/tokens"
)

// Kind selects the keyword profile used to score documentation sections
// for one analysis operation.
type Kind string

const (
	KindDataSummary     Kind = "data_summary"
	KindErrorPatterns   Kind = "error_patterns"
	KindChartCommentary Kind = "chart_commentary"
	KindGeneral         Kind = "general"
)

const (
	// maxSectionsPerFile bounds how many sections one document contributes.
	maxSectionsPerFile = 5
	// minSectionLength is the shortest section kept standalone; anything
	// shorter merges into the section before it.
	minSectionLength = 100
	// DefaultContextBudget is the token allowance for retrieved context in
	// one prompt. Sections are dropped lowest score first when over it.
	DefaultContextBudget = 2000
	// profileFileName is the optional keyword override file inside the
	// context directory.
	profileFileName = "keywords.yaml"
)

// defaultProfiles maps each analysis kind to the keywords that mark a
// documentation section as relevant to it. A keywords.yaml in the context
// directory overrides individual kinds.
var defaultProfiles = map[string][]string{
	string(KindDataSummary):     {"dictionary", "data", "field", "column", "dataset", "terminology", "system"},
	string(KindErrorPatterns):   {"error", "pattern", "validation", "comparison", "fp", "fn", "tp", "tn"},
	string(KindChartCommentary): {"method", "performance", "metrics", "precision", "recall", "accuracy", "f1", "chart"},
	string(KindGeneral):         {},
}

// section is one titled block of a documentation file.
type section struct {
	title   string
	content string
	score   int
	tokens  int
}

// contextFile is one documentation file with its selected sections.
type contextFile struct {
	name     string
	sections []section
}

// RetrieveContext assembles the domain documentation most relevant to one
// analysis. Markdown files in dir are split into sections, scored against
// the kind's keyword profile (plus the field name when set), and the best
// sections are wrapped in per-file blocks. The result is capped at
// DefaultContextBudget tokens. A missing or empty directory yields "".
func RetrieveContext(dir string, kind Kind, field string) string {
	return retrieveContext(dir, kind, field, DefaultContextBudget)
}

func retrieveContext(dir string, kind Kind, field string, budget int) string {
	if strings.TrimSpace(dir) == "" {
		return ""
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	keywords := keywordsFor(loadProfiles(dir), kind, field)

	var files []contextFile
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || strings.EqualFold(name, "README.md") {
			continue
		}
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".md" && ext != ".markdown" {
			continue
		}

		raw, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logging.LogEvent("skipping context file %s: %v", name, err)
			continue
		}
		selected := selectSections(splitSections(string(raw)), keywords)
		if len(selected) == 0 {
			continue
		}
		files = append(files, contextFile{name: name, sections: selected})
	}

	files = applyBudget(files, budget)
	return assembleContext(files)
}

// loadProfiles returns the keyword profiles, starting from the compiled-in
// defaults and overriding per kind from keywords.yaml when present.
func loadProfiles(dir string) map[string][]string {
	profiles := make(map[string][]string, len(defaultProfiles))
	for kind, kws := range defaultProfiles {
		profiles[kind] = append([]string(nil), kws...)
	}

	raw, err := os.ReadFile(filepath.Join(dir, profileFileName))
	if err != nil {
		return profiles
	}
	var overrides map[string][]string
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		logging.LogEvent("ignoring malformed %s: %v", profileFileName, err)
		return profiles
	}
	for kind, kws := range overrides {
		profiles[kind] = kws
	}
	return profiles
}

// keywordsFor resolves the keyword list for a kind, appending the field
// name for field-scoped analyses.
func keywordsFor(profiles map[string][]string, kind Kind, field string) []string {
	kws := append([]string(nil), profiles[string(kind)]...)
	if f := strings.ToLower(strings.TrimSpace(field)); f != "" {
		kws = append(kws, f, "field")
	}
	return kws
}

// splitSections divides a document on markdown headings and ALL-CAPS
// heading lines. Untitled leading prose is titled "Introduction"; a
// section shorter than minSectionLength merges into the one before it so
// stray fragments never surface as standalone context.
func splitSections(text string) []section {
	var sections []section
	title := "Introduction"
	var buf []string

	flush := func() {
		content := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = nil
		if content == "" && len(sections) == 0 {
			return
		}
		if len(content) < minSectionLength && len(sections) > 0 {
			prev := &sections[len(sections)-1]
			if content != "" {
				prev.content = strings.TrimSpace(prev.content + "\n\n" + title + "\n" + content)
			}
			return
		}
		sections = append(sections, section{title: title, content: content})
	}

	for _, line := range strings.Split(text, "\n") {
		if heading, ok := headingTitle(strings.TrimSpace(line)); ok {
			flush()
			title = heading
			continue
		}
		buf = append(buf, line)
	}
	flush()
	return sections
}

// headingTitle recognizes `# ...` markdown headings (one to six hashes)
// and ALL-CAPS lines of four or more characters.
func headingTitle(line string) (string, bool) {
	if line == "" {
		return "", false
	}
	if line[0] == '#' {
		hashes := 0
		for hashes < len(line) && line[hashes] == '#' {
			hashes++
		}
		if hashes > 6 || hashes == len(line) || (line[hashes] != ' ' && line[hashes] != '\t') {
			return "", false
		}
		title := strings.TrimSpace(line[hashes:])
		if title == "" {
			return "", false
		}
		return title, true
	}

	runes := []rune(line)
	if len(runes) < 4 || !unicode.IsUpper(runes[0]) {
		return "", false
	}
	for _, r := range runes {
		if !unicode.IsUpper(r) && !unicode.IsSpace(r) {
			return "", false
		}
	}
	return line, true
}

// selectSections scores sections against the keywords and keeps the top
// scorers. Title hits weigh 3, body occurrences 1 each. When no section
// scores (or no keywords are given) the leading sections are kept so a
// small document still contributes.
func selectSections(sections []section, keywords []string) []section {
	if len(sections) == 0 {
		return nil
	}
	if len(keywords) == 0 {
		return head(sections, maxSectionsPerFile)
	}

	scored := make([]section, len(sections))
	copy(scored, sections)
	for i := range scored {
		scored[i].score = scoreSection(scored[i], keywords)
		scored[i].tokens = tokens.Estimate(scored[i].title) + tokens.Estimate(scored[i].content)
	}

	relevant := make([]section, 0, len(scored))
	for _, s := range scored {
		if s.score > 0 {
			relevant = append(relevant, s)
		}
	}
	if len(relevant) == 0 {
		return head(scored, maxSectionsPerFile)
	}
	sort.SliceStable(relevant, func(i, j int) bool { return relevant[i].score > relevant[j].score })
	return head(relevant, maxSectionsPerFile)
}

func scoreSection(s section, keywords []string) int {
	titleLower := strings.ToLower(s.title)
	bodyLower := strings.ToLower(s.content)
	score := 0
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if strings.Contains(titleLower, kw) {
			score += 3
		}
		score += strings.Count(bodyLower, kw)
	}
	return score
}

func head(sections []section, n int) []section {
	if len(sections) > n {
		sections = sections[:n]
	}
	out := make([]section, len(sections))
	copy(out, sections)
	for i := range out {
		if out[i].tokens == 0 {
			out[i].tokens = tokens.Estimate(out[i].title) + tokens.Estimate(out[i].content)
		}
	}
	return out
}

// applyBudget drops whole sections, lowest score first, until the total
// token estimate fits the budget. Within a score tie the later section
// goes first so the strongest matches survive in reading order.
func applyBudget(files []contextFile, budget int) []contextFile {
	if budget <= 0 {
		return files
	}

	type ref struct{ file, idx int }
	total := 0
	var order []ref
	for fi, f := range files {
		for si := range f.sections {
			total += f.sections[si].tokens
			order = append(order, ref{file: fi, idx: si})
		}
	}
	if total <= budget {
		return files
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := files[order[i].file].sections[order[i].idx], files[order[j].file].sections[order[j].idx]
		if a.score != b.score {
			return a.score < b.score
		}
		if order[i].file != order[j].file {
			return order[i].file > order[j].file
		}
		return order[i].idx > order[j].idx
	})

	dropped := make(map[ref]bool)
	for _, r := range order {
		if total <= budget {
			break
		}
		dropped[r] = true
		total -= files[r.file].sections[r.idx].tokens
	}

	out := make([]contextFile, 0, len(files))
	for fi, f := range files {
		kept := make([]section, 0, len(f.sections))
		for si, s := range f.sections {
			if !dropped[ref{file: fi, idx: si}] {
				kept = append(kept, s)
			}
		}
		if len(kept) > 0 {
			out = append(out, contextFile{name: f.name, sections: kept})
		}
	}
	return out
}

func assembleContext(files []contextFile) string {
	if len(files) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range files {
		fmt.Fprintf(&b, "=== DOMAIN CONTEXT: %s ===\n", f.name)
		for _, s := range f.sections {
			fmt.Fprintf(&b, "\n## %s\n%s\n", s.title, s.content)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
