package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Selectors locates product nodes on the listing page. They are CSS
// selectors; Name and Price are resolved relative to each Item.
type Selectors struct {
	Container string `yaml:"container"`
	Item      string `yaml:"item"`
	Name      string `yaml:"name"`
	Price     string `yaml:"price"`
}

// DefaultSelectors matches the listing markup of the default target page.
func DefaultSelectors() Selectors {
	return Selectors{
		Container: "#listagemProds",
		Item:      "#listagemProds > div > div > div",
		Name:      "div > a > div:nth-of-type(1) > div:nth-of-type(2) > span > h3",
		Price:     "div > a > div:nth-of-type(2) > div > div > span:nth-of-type(1)",
	}
}

// LoadSelectors reads a YAML selector file. Fields missing from the file
// keep their default value. An empty path returns the defaults.
func LoadSelectors(path string) (Selectors, error) {
	sel := DefaultSelectors()
	if path == "" {
		return sel, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return sel, fmt.Errorf("selectors: read %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &sel); err != nil {
		return sel, fmt.Errorf("selectors: parse %q: %w", path, err)
	}
	if err := sel.Validate(); err != nil {
		return sel, fmt.Errorf("selectors: %q: %w", path, err)
	}
	return sel, nil
}

// Validate checks that every selector is set.
func (s Selectors) Validate() error {
	switch {
	case s.Container == "":
		return fmt.Errorf("container selector is empty")
	case s.Item == "":
		return fmt.Errorf("item selector is empty")
	case s.Name == "":
		return fmt.Errorf("name selector is empty")
	case s.Price == "":
		return fmt.Errorf("price selector is empty")
	}
	return nil
}
