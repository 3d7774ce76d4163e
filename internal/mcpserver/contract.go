package mcpserver

import (
	"fmt"
	"strings"

	"github.com/starford/filecat/internal/filter"
)

// FilterRulesURI identifies the filter rules resource.
const FilterRulesURI = "filecat://filter-rules"

const filterRulesDoc = `# Path Filter Rules

The catalog keeps a file when its absolute path (always starting with ` + "`/`" + `)
matches **at least one** include pattern and **no** exclude pattern.

- Patterns are Go regular expressions (RE2), matched anywhere in the path.
- An empty include list keeps every path that no exclude matches.
- Rule order never changes the result.

## Examples

| Path | Include ` + "`/static/`" + `, exclude ` + "`/[._][^/]+$`" + ` |
|---|---|
| ` + "`/static/img/a.png`" + ` | kept |
| ` + "`/static/_draft.png`" + ` | dropped (hidden file) |
| ` + "`/content/x.yaml`" + ` | dropped (not under /static/) |

Directories are listed with a trailing slash (` + "`/content/pages/`" + `);
toggle_directory expects that form.
`

// FilterRules returns the rules document followed by the active patterns.
func FilterRules(cfg filter.Config) string {
	var b strings.Builder
	b.WriteString(filterRulesDoc)
	b.WriteString("\n## Active filter\n\n")
	writeList(&b, "Includes", cfg.Includes)
	writeList(&b, "Excludes", cfg.Excludes)
	return b.String()
}

func writeList(b *strings.Builder, title string, patterns []string) {
	fmt.Fprintf(b, "%s:\n", title)
	if len(patterns) == 0 {
		b.WriteString("- (none)\n")
		return
	}
	for _, p := range patterns {
		fmt.Fprintf(b, "- `%s`\n", p)
	}
}
