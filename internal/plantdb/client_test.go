package plantdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xaenox/cladari/internal/models"
)

func inventoryServer(t *testing.T, count int, detail *models.Plant) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/plants", func(w http.ResponseWriter, r *http.Request) {
		plants := make([]models.Plant, count)
		for i := range plants {
			plants[i] = models.Plant{PlantID: fmt.Sprintf("ANT-2025-%04d", i+1)}
		}
		json.NewEncoder(w).Encode(plants)
	})
	mux.HandleFunc("/plants/", func(w http.ResponseWriter, r *http.Request) {
		if detail == nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(detail)
	})
	mux.HandleFunc("/ml/predict-care", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		assert.Equal(t, "water", body["careType"])
		json.NewEncoder(w).Encode(map[string]any{
			"predictions": []models.CarePrediction{{PlantID: "ANT-2025-0001", Name: "Crystallinum", DaysUntilNext: 0}},
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFindPlantID(t *testing.T) {
	assert.Equal(t, "ANT-2025-0042", FindPlantID("How is ANT-2025-0042 doing?"))
	assert.Equal(t, "", FindPlantID("How is ant-2025-0042 doing?"))
	assert.Equal(t, "", FindPlantID("ANT-25-42"))
}

func TestClient_ListPlants(t *testing.T) {
	srv := inventoryServer(t, 70, nil)
	c := NewClient([]string{srv.URL}, time.Second, zap.NewNop())

	plants, err := c.ListPlants(context.Background())
	require.NoError(t, err)
	assert.Len(t, plants, 70)
}

func TestClient_FallsBackToSecondURL(t *testing.T) {
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()
	srv := inventoryServer(t, 3, nil)

	c := NewClient([]string{down.URL, srv.URL}, time.Second, zap.NewNop())
	plants, err := c.ListPlants(context.Background())
	require.NoError(t, err)
	assert.Len(t, plants, 3)
}

func TestClient_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient([]string{srv.URL}, time.Second, zap.NewNop())
	_, err := c.ListPlants(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestClient_PredictCare(t *testing.T) {
	srv := inventoryServer(t, 1, nil)
	c := NewClient([]string{srv.URL}, time.Second, zap.NewNop())

	preds, err := c.PredictCare(context.Background(), "water")
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, "Crystallinum", preds[0].Name)
}

func TestClient_Context(t *testing.T) {
	detail := &models.Plant{Name: "Anthurium warocqueanum", Location: "Greenhouse"}
	srv := inventoryServer(t, 70, detail)
	c := NewClient([]string{srv.URL}, time.Second, zap.NewNop())

	assert.Equal(t, "Collection: 70 plants\n", c.Context(context.Background(), "water my plants"))

	got := c.Context(context.Background(), "How is ANT-2025-0042?")
	assert.Equal(t, "Collection: 70 plants\n\nANT-2025-0042: Anthurium warocqueanum\nLocation: Greenhouse", got)
}

func TestClient_ContextMissingDetail(t *testing.T) {
	srv := inventoryServer(t, 2, nil)
	c := NewClient([]string{srv.URL}, time.Second, zap.NewNop())

	assert.Equal(t, "Collection: 2 plants\n", c.Context(context.Background(), "ANT-2025-0001 care"))
}

func TestClient_ContextUnknownFields(t *testing.T) {
	srv := inventoryServer(t, 1, &models.Plant{})
	c := NewClient([]string{srv.URL}, time.Second, zap.NewNop())

	got := c.Context(context.Background(), "ANT-2025-0001")
	assert.Contains(t, got, "ANT-2025-0001: Unknown\nLocation: Unknown")
}

func TestClient_MixedTypeRecords(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/plants", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[
			{"plantId":"ANT-2025-0001","name":"Crystallinum","purchasePrice":"45.00"},
			{"plantId":"ANT-2025-0002","location":{"name":"Greenhouse"},"purchasePrice":30}
		]`))
	})
	mux.HandleFunc("/plants/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"plantId":"ANT-2025-0001","name":"Crystallinum","location":"Shelf A","purchasePrice":"45.00"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient([]string{srv.URL}, time.Second, zap.NewNop())
	ctx := context.Background()

	assert.Equal(t, "Collection: 2 plants\n", c.Context(ctx, "how many plants"))

	plants, err := c.ListPlants(ctx)
	require.NoError(t, err)
	require.Len(t, plants, 2)
	assert.Equal(t, "Crystallinum", plants[0].Name)
	assert.Zero(t, plants[0].PurchasePrice)
	assert.Equal(t, "ANT-2025-0002", plants[1].PlantID)
	assert.Equal(t, 30.0, plants[1].PurchasePrice)

	got := c.Context(ctx, "How is ANT-2025-0001?")
	assert.Equal(t, "Collection: 2 plants\n\nANT-2025-0001: Crystallinum\nLocation: Shelf A", got)
}

func TestClient_ContextUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient([]string{url}, 200*time.Millisecond, zap.NewNop())
	assert.Equal(t, "", c.Context(context.Background(), "how many plants"))
}

func TestClient_ContextMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer srv.Close()

	c := NewClient([]string{srv.URL}, time.Second, zap.NewNop())
	assert.Equal(t, "", c.Context(context.Background(), "plant"))
}

func TestClient_ContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	c := NewClient([]string{srv.URL}, 50*time.Millisecond, zap.NewNop())
	assert.Equal(t, "", c.Context(context.Background(), "plant"))
}

type memCache struct {
	plants []models.Plant
	sets   int
}

func (m *memCache) GetPlants(ctx context.Context) ([]models.Plant, bool) {
	return m.plants, m.plants != nil
}

func (m *memCache) SetPlants(ctx context.Context, plants []models.Plant) {
	m.plants = plants
	m.sets++
}

func TestClient_UsesCache(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		json.NewEncoder(w).Encode([]models.Plant{{PlantID: "ANT-2025-0001"}})
	}))
	defer srv.Close()

	cache := &memCache{}
	c := NewClient([]string{srv.URL}, time.Second, zap.NewNop(), WithCache(cache))

	for i := 0; i < 3; i++ {
		plants, err := c.ListPlants(context.Background())
		require.NoError(t, err)
		assert.Len(t, plants, 1)
	}
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, cache.sets)
}
