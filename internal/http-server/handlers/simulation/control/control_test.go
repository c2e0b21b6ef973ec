package control_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/exp/slog"

	"spinsim/internal/bet"
	"spinsim/internal/engine"
	"spinsim/internal/http-server/handlers/simulation/control"
	"spinsim/internal/lane"
	"spinsim/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRouter(manager *engine.Manager) chi.Router {
	handler := control.NewControl(discardLogger(), manager)

	router := chi.NewRouter()
	router.Post("/simulations/{uuid}/control", handler.New())
	router.Get("/simulations/{uuid}/status", handler.Status())
	router.Get("/simulations/{uuid}/result", handler.Result())

	return router
}

func startBatch(manager *engine.Manager) uuid.UUID {
	lanes := []*lane.Lane{
		{
			Name:    "flat red",
			Enabled: true,
			Mode:    lane.ModeStatic,
			BaseBets: []bet.Wager{
				{Placement: bet.RedPlacement(), Amount: 1},
			},
			Config: lane.Config{
				OnWinAction:  lane.ActionReset,
				OnLossAction: lane.ActionDoNothing,
			},
		},
	}

	settings := model.Settings{
		StartingBankroll: 100,
		TableMin:         1,
		TableMax:         50,
		SpinsPerRun:      5,
		Runs:             2,
		Seed:             11,
	}

	return manager.Start(lanes, settings, "control test", nil)
}

func TestControlUnknownBatch(t *testing.T) {
	t.Parallel()

	router := newRouter(engine.NewManager(discardLogger()))

	body, _ := json.Marshal(control.Request{Action: "pause"})

	req := httptest.NewRequest(http.MethodPost,
		"/simulations/"+uuid.NewString()+"/control", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	var resp control.StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	if resp.Response.Status != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", resp.Response.Status, http.StatusNotFound)
	}
}

func TestControlRejectsInvalidID(t *testing.T) {
	t.Parallel()

	router := newRouter(engine.NewManager(discardLogger()))

	body, _ := json.Marshal(control.Request{Action: "pause"})

	req := httptest.NewRequest(http.MethodPost,
		"/simulations/not-a-uuid/control", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	var resp control.StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	if resp.Response.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.Response.Status, http.StatusBadRequest)
	}
}

func TestControlRejectsUnknownAction(t *testing.T) {
	t.Parallel()

	manager := engine.NewManager(discardLogger())
	router := newRouter(manager)

	id := startBatch(manager)

	body, _ := json.Marshal(control.Request{Action: "explode"})

	req := httptest.NewRequest(http.MethodPost,
		"/simulations/"+id.String()+"/control", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	var resp control.StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	if resp.Response.Status != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.Response.Status, http.StatusBadRequest)
	}

	if _, err := manager.Wait(id); err != nil {
		t.Fatalf("batch faulted: %v", err)
	}
}

func TestControlCancelAndResult(t *testing.T) {
	t.Parallel()

	manager := engine.NewManager(discardLogger())
	router := newRouter(manager)

	id := startBatch(manager)

	body, _ := json.Marshal(control.Request{Action: "cancel"})

	req := httptest.NewRequest(http.MethodPost,
		"/simulations/"+id.String()+"/control", bytes.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	var resp control.StatusResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}

	if resp.Error != "" {
		t.Fatalf("cancel failed: %s", resp.Error)
	}

	if _, err := manager.Wait(id); err != nil {
		t.Fatalf("cancelled batch must unwind cleanly, got %v", err)
	}

	req = httptest.NewRequest(http.MethodGet,
		"/simulations/"+id.String()+"/result", nil)
	rec = httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	var result control.ResultResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}

	if !result.Done {
		t.Fatal("result must report done after the batch finished")
	}

	if result.Session == nil {
		t.Fatal("result is missing the session")
	}
}
