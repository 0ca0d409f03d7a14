package categorizer

import (
	"fmt"
	"os"
	"strings"

	"fjacquet/bank-movements/internal/models"

	"gopkg.in/yaml.v3"
)

// Rule maps a description keyword to a category code.
type Rule struct {
	Keyword  string `yaml:"keyword"`
	Category int    `yaml:"category"`
}

type rulesFile struct {
	Rules []Rule `yaml:"rules"`
}

// DefaultRules is the built-in keyword table, in priority order.
func DefaultRules() []Rule {
	return []Rule{
		{Keyword: "transferencia", Category: models.CategoryTransfer},
		{Keyword: "recibo", Category: models.CategoryDirectDebit},
		{Keyword: "tarjeta", Category: models.CategoryCard},
		{Keyword: "ingreso", Category: models.CategoryDeposit},
	}
}

// LoadRulesYAML reads an ordered rule list:
//
//	rules:
//	  - keyword: bizum
//	    category: 1
//
// File order is priority order.
func LoadRulesYAML(path string) ([]Rule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading rules file %s: %w", path, err)
	}

	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("error parsing rules file %s: %w", path, err)
	}

	for i, r := range f.Rules {
		if strings.TrimSpace(r.Keyword) == "" {
			return nil, fmt.Errorf("rules file %s: rule %d has an empty keyword", path, i+1)
		}
		f.Rules[i].Keyword = strings.ToLower(strings.TrimSpace(r.Keyword))
	}
	if len(f.Rules) == 0 {
		return nil, fmt.Errorf("rules file %s defines no rules", path)
	}
	return f.Rules, nil
}
