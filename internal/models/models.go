package models

import "time"

// Category is the routing tag derived from a user message.
type Category string

const (
	CategoryDatabase Category = "database"
	CategoryScience  Category = "science"
	CategoryGeneral  Category = "general"
)

// Persona selects the system line a model receives.
type Persona string

const (
	PersonaAssistant Persona = "assistant"
	PersonaScientist Persona = "scientist"
)

// API is the request flavour an inference server speaks.
type API string

const (
	APICompletions API = "completions"
	APIChat        API = "chat"
)

// Endpoint describes one inference server. It is built once at startup
// and never mutated.
type Endpoint struct {
	Name         string        `json:"name"`
	Family       string        `json:"family"`
	BaseURL      string        `json:"base_url"`
	Model        string        `json:"model"`
	Purpose      string        `json:"purpose"`
	API          API           `json:"api"`
	Persona      Persona       `json:"persona"`
	MaxTokens    int           `json:"max_tokens"`
	Temperature  float64       `json:"temperature"`
	Timeout      time.Duration `json:"timeout"`
	Stop         []string      `json:"stop,omitempty"`
	StripBeliefs bool          `json:"strip_beliefs"`
}

// Message is a single chat turn sent to a chat-completions endpoint.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NamedRef is a nested {name} object in plant inventory records.
type NamedRef struct {
	Name string `json:"name"`
}

// Plant is a record from the plant inventory service.
type Plant struct {
	PlantID         string    `json:"plantId"`
	Name            string    `json:"name"`
	Location        string    `json:"location"`
	CurrentLocation *NamedRef `json:"currentLocation,omitempty"`
	Vendor          *NamedRef `json:"vendor,omitempty"`
	Genus           string    `json:"genus"`
	Species         string    `json:"species"`
	HybridName      string    `json:"hybridName"`
	PurchasePrice   float64   `json:"purchasePrice"`
	AcquisitionCost float64   `json:"acquisitionCost"`
	HealthStatus    string    `json:"healthStatus"`
	Notes           string    `json:"notes"`
	CreatedAt       string    `json:"createdAt"`
}

// LocationName prefers the flat location field and falls back to the
// nested current location.
func (p *Plant) LocationName() string {
	if p.Location != "" {
		return p.Location
	}
	if p.CurrentLocation != nil && p.CurrentLocation.Name != "" {
		return p.CurrentLocation.Name
	}
	return ""
}

// CarePrediction is one entry of the inventory's care forecast.
type CarePrediction struct {
	PlantID       string  `json:"plantId"`
	Name          string  `json:"name"`
	DaysUntilNext float64 `json:"daysUntilNext"`
}

// Exchange represents one answered query
type Exchange struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Message   string    `json:"message"`
	Category  Category  `json:"category"`
	Tier      string    `json:"tier"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}
