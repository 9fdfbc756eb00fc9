// Package local answers collection questions straight from the plant
// inventory, without any language model.
package local

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"

	"github.com/xaenox/cladari/internal/models"
)

const (
	notAccessible  = "PlantDB is not accessible. Please ensure it's running on port 3000."
	maxNeedsWater  = 5
	maxRecent      = 3
	maxNotesLength = 100
)

const wateringGuide = `I don't have real-time watering prediction data available.

For accurate watering needs, check your PlantDB:
• Go to Care Schedule tab on each plant
• Review care logs to see last watering dates
• Set up watering reminders based on your intervals

General Anthurium watering guidance:
• Water when top 1-2" of soil is dry
• Most Anthuriums need water every 7-10 days
• Adjust based on humidity, temperature, and pot size`

var plantIDPattern = regexp.MustCompile(`(?i)ANT-\d{4}-\d{4}`)

// Inventory is the subset of the plant inventory client the responder needs.
type Inventory interface {
	ListPlants(ctx context.Context) ([]models.Plant, error)
	PredictCare(ctx context.Context, careType string) ([]models.CarePrediction, error)
}

type Responder struct {
	inventory Inventory
	logger    *zap.Logger
}

func NewResponder(inventory Inventory, logger *zap.Logger) *Responder {
	return &Responder{
		inventory: inventory,
		logger:    logger,
	}
}

// Query answers message from inventory data. Rules are checked in order.
func (r *Responder) Query(ctx context.Context, message string) string {
	lower := strings.ToLower(message)

	plants, err := r.inventory.ListPlants(ctx)
	if err != nil {
		r.logger.Error("PlantDB error", zap.Error(err))
		return notAccessible
	}

	switch {
	case strings.Contains(lower, "how many") && strings.Contains(lower, "plant"):
		return fmt.Sprintf("You have %d plants in your collection.", len(plants))

	case strings.Contains(lower, "value") || strings.Contains(lower, "worth"):
		return fmt.Sprintf("Your collection is valued at $%s with %d plants.", money(totalValue(plants)), len(plants))

	case strings.Contains(lower, "water") || strings.Contains(lower, "care"):
		if info, ok := r.wateringInfo(ctx); ok {
			return info
		}
		return wateringGuide

	case strings.Contains(lower, "location"):
		return byLocation(plants)

	case strings.Contains(lower, "recent") || strings.Contains(lower, "new"):
		return recentAdditions(plants)

	case plantIDPattern.MatchString(message):
		return plantDetails(plants, strings.ToUpper(plantIDPattern.FindString(message)))

	default:
		return fmt.Sprintf(`I'm Cladari (local mode). I can tell you:
• You have %d plants
• Collection value: $%s
• Try: "How many plants?", "What's the value?", "Which need water?", "Show locations"
• Or ask about a specific plant like ANT-2025-0042`, len(plants), money(totalValue(plants)))
	}
}

func (r *Responder) wateringInfo(ctx context.Context) (string, bool) {
	predictions, err := r.inventory.PredictCare(ctx, "water")
	if err != nil {
		r.logger.Warn("Could not get watering predictions", zap.Error(err))
		return "", false
	}

	var due []models.CarePrediction
	for _, p := range predictions {
		if p.DaysUntilNext <= 1 {
			due = append(due, p)
		}
	}
	if len(due) == 0 {
		return "No plants need water today. All looking good!", true
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d plants need water today:\n", len(due))
	for i, p := range due {
		if i == maxNeedsWater {
			break
		}
		fmt.Fprintf(&sb, "  • %s: %s\n", p.PlantID, orUnknown(p.Name))
	}
	return sb.String(), true
}

func totalValue(plants []models.Plant) float64 {
	var total float64
	for _, p := range plants {
		total += p.PurchasePrice
	}
	return total
}

func money(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

func byLocation(plants []models.Plant) string {
	counts := make(map[string]int)
	for _, p := range plants {
		name := "Unknown"
		if p.CurrentLocation != nil && p.CurrentLocation.Name != "" {
			name = p.CurrentLocation.Name
		}
		counts[name]++
	}

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString("Plants by location:\n")
	for _, name := range names {
		fmt.Fprintf(&sb, "  • %s: %d plants\n", name, counts[name])
	}
	return sb.String()
}

func recentAdditions(plants []models.Plant) string {
	if len(plants) == 0 {
		return "No recent additions found."
	}

	sorted := make([]models.Plant, len(plants))
	copy(sorted, plants)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt > sorted[j].CreatedAt
	})

	var sb strings.Builder
	sb.WriteString("Recent additions:\n")
	for i, p := range sorted {
		if i == maxRecent {
			break
		}
		fmt.Fprintf(&sb, "  • %s: %s\n", p.PlantID, orUnknown(p.Name))
	}
	return sb.String()
}

func plantDetails(plants []models.Plant, id string) string {
	var plant *models.Plant
	for i := range plants {
		if strings.EqualFold(plants[i].PlantID, id) {
			plant = &plants[i]
			break
		}
	}
	if plant == nil {
		return fmt.Sprintf("Could not find plant %s. Try asking about a specific plant like ANT-2025-0002 or ANT-2025-0040.", id)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Plant %s:\n", id)
	fmt.Fprintf(&sb, "  • Species: %s %s\n", plant.Genus, plant.Species)
	hybrid := plant.HybridName
	if hybrid == "" {
		hybrid = "N/A"
	}
	fmt.Fprintf(&sb, "  • Hybrid: %s\n", hybrid)
	if plant.CurrentLocation != nil {
		fmt.Fprintf(&sb, "  • Location: %s\n", orUnknown(plant.CurrentLocation.Name))
	}
	if plant.Vendor != nil {
		fmt.Fprintf(&sb, "  • Source: %s\n", orUnknown(plant.Vendor.Name))
	}
	if plant.AcquisitionCost != 0 {
		fmt.Fprintf(&sb, "  • Value: $%s\n", humanize.Ftoa(plant.AcquisitionCost))
	}
	if plant.HealthStatus != "" {
		fmt.Fprintf(&sb, "  • Health: %s\n", plant.HealthStatus)
	}
	if plant.Notes != "" {
		notes := plant.Notes
		if r := []rune(notes); len(r) > maxNotesLength {
			notes = string(r[:maxNotesLength])
		}
		fmt.Fprintf(&sb, "  • Notes: %s...\n", notes)
	}
	return sb.String()
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}
