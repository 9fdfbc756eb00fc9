package classifier

import (
	"strings"

	"github.com/xaenox/cladari/internal/models"
)

type Classifier interface {
	Classify(message string) models.Category
}

// Rule maps any keyword hit to a category.
type Rule struct {
	Category models.Category
	Keywords []string
}

// DefaultRules is evaluated in order; the first rule with a matching keyword wins.
var DefaultRules = []Rule{
	{Category: models.CategoryDatabase, Keywords: []string{"how many", "count", "list", "value", "total"}},
	{Category: models.CategoryScience, Keywords: []string{"disease", "pathogen", "nutrient", "deficiency", "genetics"}},
}

// PlantKeywords mark a message as worth enriching with inventory context.
var PlantKeywords = []string{"plant", "anthurium", "water", "fertilize", "grow", "collection", "care"}

type KeywordClassifier struct {
	rules    []Rule
	fallback models.Category
}

func NewKeywordClassifier(rules []Rule) *KeywordClassifier {
	if rules == nil {
		rules = DefaultRules
	}
	return &KeywordClassifier{
		rules:    rules,
		fallback: models.CategoryGeneral,
	}
}

// Classify never fails: messages matching no rule are general.
func (c *KeywordClassifier) Classify(message string) models.Category {
	message = strings.ToLower(message)
	for _, rule := range c.rules {
		if containsAny(message, rule.Keywords) {
			return rule.Category
		}
	}
	return c.fallback
}

// IsPlantQuery reports whether message mentions plant care or the collection.
func IsPlantQuery(message string) bool {
	return containsAny(strings.ToLower(message), PlantKeywords)
}

func containsAny(s string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(s, keyword) {
			return true
		}
	}
	return false
}
