package router

import (
	"errors"
	"fmt"

	"github.com/xaenox/cladari/internal/inference"
	"github.com/xaenox/cladari/internal/models"
)

// Endpoint names the plans refer to.
const (
	EndpointPrimary    = "primary"
	EndpointSpecialist = "specialist"
	EndpointTest       = "test"
)

// NoServerMessage is the quick-test answer once every tier failed.
const NoServerMessage = "Could not connect to AI server."

type Mode string

const (
	ModeStandard Mode = "standard"
	ModeQuick    Mode = "quick"
)

// Step is one attempt against a named endpoint. A nil Temperature keeps the
// endpoint's own.
type Step struct {
	Endpoint    string
	Temperature *float64
}

// Exhausted renders the answer when every step failed. last is the endpoint
// of the final step and err its failure.
type Exhausted func(last models.Endpoint, err error) string

// Plan is the ordered list of attempts for one category.
type Plan struct {
	Steps     []Step
	Exhausted Exhausted
}

// StandardPlans sends science questions to the specialist first and
// everything else straight to the primary model.
func StandardPlans(databaseTemperature float64) map[models.Category]Plan {
	return map[models.Category]Plan{
		models.CategoryDatabase: {
			Steps:     []Step{{Endpoint: EndpointPrimary, Temperature: &databaseTemperature}},
			Exhausted: UnavailableMessage,
		},
		models.CategoryScience: {
			Steps:     []Step{{Endpoint: EndpointSpecialist}, {Endpoint: EndpointPrimary}},
			Exhausted: UnavailableMessage,
		},
		models.CategoryGeneral: {
			Steps:     []Step{{Endpoint: EndpointPrimary}},
			Exhausted: UnavailableMessage,
		},
	}
}

// QuickPlans tries the lightweight test model, then the primary model, for
// every category.
func QuickPlans() map[models.Category]Plan {
	plan := Plan{
		Steps:     []Step{{Endpoint: EndpointTest}, {Endpoint: EndpointPrimary}},
		Exhausted: Static(NoServerMessage),
	}
	return map[models.Category]Plan{
		models.CategoryDatabase: plan,
		models.CategoryScience:  plan,
		models.CategoryGeneral:  plan,
	}
}

// PlansFor returns the plans of mode.
func PlansFor(mode Mode, databaseTemperature float64) (map[models.Category]Plan, error) {
	switch mode {
	case ModeStandard, "":
		return StandardPlans(databaseTemperature), nil
	case ModeQuick:
		return QuickPlans(), nil
	default:
		return nil, fmt.Errorf("unknown router mode %q", mode)
	}
}

// UnavailableMessage reports a model that answered badly as not available
// and anything else as a connection error.
func UnavailableMessage(last models.Endpoint, err error) string {
	if err == nil || errors.Is(err, inference.ErrUnavailable) {
		family := last.Family
		if family == "" {
			family = last.Name
		}
		return fmt.Sprintf("%s model is not available.", family)
	}
	return fmt.Sprintf("Connection error: %v", err)
}

// Static always answers text.
func Static(text string) Exhausted {
	return func(models.Endpoint, error) string { return text }
}
