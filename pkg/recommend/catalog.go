// Package recommend serves the canned advice shown next to a prediction.
// Nothing here is computed: the binary prediction flag selects one of two
// static lists per form.
package recommend

import (
	_ "embed"
	"fmt"
	"html"
	"io/fs"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-riskintake/pkg/predict"
)

//go:embed recommendations.yaml
var embeddedCatalog []byte

// Class names the two recommendation lists.
type Class string

const (
	ClassHigh Class = "high"
	ClassLow  Class = "low"
)

// ClassFor maps a prediction result onto a list: prediction == 1 selects the
// high-risk list, anything else (including a missing flag) the low-risk one.
func ClassFor(result predict.Result) Class {
	if result.HighRisk() {
		return ClassHigh
	}
	return ClassLow
}

// Item is a single recommendation. Body holds sanitised HTML.
type Item struct {
	Title string `json:"title,omitempty" yaml:"title"`
	Body  string `json:"body" yaml:"body"`
}

// PlainText renders the item without markup, for terminals and logs.
func (i Item) PlainText() string {
	body := html.UnescapeString(textPolicy().Sanitize(i.Body))
	if i.Title == "" {
		return body
	}
	return i.Title + ": " + body
}

// List is a headed list of recommendations.
type List struct {
	Class   Class  `json:"class" yaml:"-"`
	Heading string `json:"heading" yaml:"heading"`
	Items   []Item `json:"items" yaml:"items"`
}

// Catalog holds the lists of every form.
type Catalog struct {
	lists map[string]map[Class]List
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(embeddedCatalog, "recommendations.yaml")
}

// MustDefault panics when the embedded catalog is invalid.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// LoadFS reads a catalog file from fsys.
func LoadFS(fsys fs.FS, name string) (*Catalog, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("recommend: read %s: %w", name, err)
	}
	return Parse(data, name)
}

// Parse decodes a YAML catalog and sanitises every body.
func Parse(data []byte, source string) (*Catalog, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("recommend: %s is empty", source)
	}

	var raw map[string]map[Class]List
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("recommend: parse %s: %w", source, err)
	}

	catalog := &Catalog{lists: make(map[string]map[Class]List, len(raw))}
	policy := bodyPolicy()
	for formID, classes := range raw {
		formID = strings.TrimSpace(formID)
		for _, class := range []Class{ClassHigh, ClassLow} {
			list, ok := classes[class]
			if !ok || len(list.Items) == 0 {
				return nil, fmt.Errorf("recommend: %s: form %q has no %s list", source, formID, class)
			}
			list.Class = class
			items := make([]Item, 0, len(list.Items))
			for _, item := range list.Items {
				body := strings.TrimSpace(policy.Sanitize(item.Body))
				if body == "" {
					continue
				}
				items = append(items, Item{Title: strings.TrimSpace(item.Title), Body: body})
			}
			list.Items = items
			if catalog.lists[formID] == nil {
				catalog.lists[formID] = make(map[Class]List, 2)
			}
			catalog.lists[formID][class] = list
		}
	}
	return catalog, nil
}

// Select returns the list for formID matching result.
func (c *Catalog) Select(formID string, result predict.Result) (List, bool) {
	return c.List(formID, ClassFor(result))
}

// List returns a specific list.
func (c *Catalog) List(formID string, class Class) (List, bool) {
	if c == nil {
		return List{}, false
	}
	classes, ok := c.lists[formID]
	if !ok {
		return List{}, false
	}
	list, ok := classes[class]
	if !ok {
		return List{}, false
	}
	list.Items = append([]Item(nil), list.Items...)
	return list, true
}

var (
	bodyPolicyOnce sync.Once
	bodyPolicyVal  *bluemonday.Policy
	textPolicyOnce sync.Once
	textPolicyVal  *bluemonday.Policy
)

func bodyPolicy() *bluemonday.Policy {
	bodyPolicyOnce.Do(func() {
		policy := bluemonday.NewPolicy()
		policy.AllowElements("strong", "em", "br")
		policy.AllowStandardURLs()
		policy.AllowAttrs("href").OnElements("a")
		policy.RequireNoFollowOnFullyQualifiedLinks(true)
		policy.AddTargetBlankToFullyQualifiedLinks(true)
		bodyPolicyVal = policy
	})
	return bodyPolicyVal
}

func textPolicy() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicyVal = bluemonday.StrictPolicy()
	})
	return textPolicyVal
}
