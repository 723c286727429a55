// Package markdown converts notes to and from Markdown with YAML frontmatter.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/starford/folio/internal/models"
)

const delim = "---"

var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

// frontmatter is the YAML header written by Render.
type frontmatter struct {
	ID             string    `yaml:"id,omitempty"`
	Title          string    `yaml:"title,omitempty"`
	Tags           []string  `yaml:"tags,omitempty"`
	SourceDocument string    `yaml:"source_document,omitempty"`
	Created        time.Time `yaml:"created,omitempty"`
	Updated        time.Time `yaml:"updated,omitempty"`
}

// Imported is the note content recovered from a Markdown file.
type Imported struct {
	Title            string
	Content          string
	Tags             []string
	SourceDocumentID string
}

// Render writes n as Markdown: a frontmatter block followed by the content.
func Render(n models.Note) ([]byte, error) {
	fm := frontmatter{
		ID:             n.ID,
		Title:          n.Title,
		Tags:           n.Tags,
		SourceDocument: n.SourceDocumentID,
		Created:        n.CreatedAt.UTC(),
		Updated:        n.UpdatedAt.UTC(),
	}
	head, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("markdown: encode frontmatter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString(delim + "\n")
	buf.Write(head)
	buf.WriteString(delim + "\n\n")
	buf.WriteString(n.Content)
	if n.Content != "" && !strings.HasSuffix(n.Content, "\n") {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// Parse reads a Markdown file. The title comes from the frontmatter, then
// the first H1 heading. Tags merge the frontmatter list with inline #tags.
// Malformed frontmatter is treated as part of the body.
func Parse(data []byte) Imported {
	fm, body := split(data)
	return Imported{
		Title:            title(fm, body),
		Content:          body,
		Tags:             tags(fm, body),
		SourceDocumentID: fm.SourceDocument,
	}
}

func split(data []byte) (frontmatter, string) {
	var fm frontmatter
	trimmed := bytes.TrimLeft(data, "\n\r")
	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return fm, string(data)
	}
	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return fm, string(data)
	}
	block := rest[:idx]
	body := strings.TrimLeft(string(rest[idx+1+len(delim):]), "\n\r")
	if err := yaml.Unmarshal(block, &fm); err != nil {
		return frontmatter{}, string(data)
	}
	return fm, body
}

func tags(fm frontmatter, body string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	for _, t := range fm.Tags {
		add(t)
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

func title(fm frontmatter, body string) string {
	if fm.Title != "" {
		return fm.Title
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}
