package scheme

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Front matter page kinds. The first four are required.
const (
	PageCover       = "cover"
	PageVision      = "vision-mission"
	PageEvaluation  = "evaluation"
	PageCourseTypes = "course-types"
	PageOutcomes    = "outcomes"
)

var requiredPages = []string{PageCover, PageVision, PageEvaluation, PageCourseTypes}

// FrontMatter is the static content printed ahead of the scheme tables.
type FrontMatter struct {
	Institution string            `yaml:"institution" json:"institution"`
	Affiliation string            `yaml:"affiliation" json:"affiliation"`
	Pages       []FrontMatterPage `yaml:"pages" json:"pages"`
}

type FrontMatterPage struct {
	Kind       string               `yaml:"kind" json:"kind"`
	Title      string               `yaml:"title" json:"title"`
	Paragraphs []string             `yaml:"paragraphs" json:"paragraphs,omitempty"`
	Sections   []FrontMatterSection `yaml:"sections" json:"sections,omitempty"`
	Tables     []FrontMatterTable   `yaml:"tables" json:"tables,omitempty"`
}

type FrontMatterSection struct {
	Heading    string   `yaml:"heading" json:"heading"`
	Paragraphs []string `yaml:"paragraphs" json:"paragraphs,omitempty"`
	Bullets    []string `yaml:"bullets" json:"bullets,omitempty"`
}

type FrontMatterTable struct {
	Title   string     `yaml:"title" json:"title,omitempty"`
	Columns []string   `yaml:"columns" json:"columns"`
	Rows    [][]string `yaml:"rows" json:"rows"`
}

// LoadFrontMatter reads and validates a YAML front matter file. Any failure
// is reported as a *LookupError.
func LoadFrontMatter(path string) (*FrontMatter, error) {
	if path == "" {
		return nil, &LookupError{Name: "front matter path"}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LookupError{Name: path, Err: err}
	}
	return ParseFrontMatter(path, data)
}

func ParseFrontMatter(name string, data []byte) (*FrontMatter, error) {
	var fm FrontMatter
	if err := yaml.Unmarshal(data, &fm); err != nil {
		return nil, &LookupError{Name: name, Err: err}
	}
	if err := fm.Validate(); err != nil {
		return nil, &LookupError{Name: name, Err: err}
	}
	return &fm, nil
}

// Validate checks that every required page kind is present.
func (fm *FrontMatter) Validate() error {
	var missing []string
	for _, kind := range requiredPages {
		if fm.Page(kind) == nil {
			missing = append(missing, kind)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing front matter pages: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (fm *FrontMatter) Page(kind string) *FrontMatterPage {
	for i := range fm.Pages {
		if fm.Pages[i].Kind == kind {
			return &fm.Pages[i]
		}
	}
	return nil
}

// Expand returns a copy with {name} placeholders replaced.
func (fm *FrontMatter) Expand(vars map[string]string) *FrontMatter {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)
	list := func(in []string) []string {
		if in == nil {
			return nil
		}
		out := make([]string, len(in))
		for i, s := range in {
			out[i] = r.Replace(s)
		}
		return out
	}

	out := &FrontMatter{
		Institution: r.Replace(fm.Institution),
		Affiliation: r.Replace(fm.Affiliation),
		Pages:       make([]FrontMatterPage, len(fm.Pages)),
	}
	for i, p := range fm.Pages {
		page := FrontMatterPage{
			Kind:       p.Kind,
			Title:      r.Replace(p.Title),
			Paragraphs: list(p.Paragraphs),
		}
		for _, s := range p.Sections {
			page.Sections = append(page.Sections, FrontMatterSection{
				Heading:    r.Replace(s.Heading),
				Paragraphs: list(s.Paragraphs),
				Bullets:    list(s.Bullets),
			})
		}
		for _, t := range p.Tables {
			table := FrontMatterTable{Title: r.Replace(t.Title), Columns: list(t.Columns)}
			for _, row := range t.Rows {
				table.Rows = append(table.Rows, list(row))
			}
			page.Tables = append(page.Tables, table)
		}
		out.Pages[i] = page
	}
	return out
}
