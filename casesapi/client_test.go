package casesapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aldeia/relatos-dashboard/entities"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", 5*time.Second)
}

func TestListCases(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/relatos" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("limit"); got != "50" {
			t.Errorf("Expected limit 50, got %s", got)
		}
		w.Write([]byte(`{"total":2,"casos":[
			{"id":1,"relato_original":"febre","tipo_entrada":"texto","status":"completo","created_at":"2024-03-01T10:00:00"},
			{"id":2,"relato_original":"tosse","tipo_entrada":"audio","status":"pendente","audio_path":"/x.mp3","created_at":"2024-03-02 11:00:00.123"}
		]}`))
	})

	list, err := client.ListCases(context.Background(), 50)
	if err != nil {
		t.Fatalf("ListCases failed: %v", err)
	}
	if list.Total != 2 || len(list.Cases) != 2 {
		t.Fatalf("Expected 2 cases, got total=%d len=%d", list.Total, len(list.Cases))
	}
	if !list.Cases[0].IsComplete() || list.Cases[1].IsComplete() {
		t.Error("Unexpected completion states")
	}
	if list.Cases[1].AudioPath == nil || *list.Cases[1].AudioPath != "/x.mp3" {
		t.Error("Expected audio path on second case")
	}
	if got := list.Cases[1].CreatedAt.Date(); got != "02/03/2024" {
		t.Errorf("Expected 02/03/2024, got %s", got)
	}
}

func TestGetCase_WithStructuredData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/relatos/7" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"id":7,"status":"completo","relato_original":"x","created_at":"2024-03-01",
			"structured_data":{"id":3,"case_id":7,"sintomas_identificados_ptbr":"[\"febre\"]","categoria_sintoma":"geral","temperatura_graus":38.5}}`))
	})

	c, err := client.GetCase(context.Background(), 7)
	if err != nil {
		t.Fatalf("GetCase failed: %v", err)
	}
	if c.StructuredData == nil {
		t.Fatal("Expected structured data")
	}
	if c.StructuredData.Symptoms != `["febre"]` {
		t.Errorf("Unexpected symptoms %q", c.StructuredData.Symptoms)
	}
	if c.StructuredData.Temperature == nil || *c.StructuredData.Temperature != 38.5 {
		t.Error("Expected temperature 38.5")
	}
}

func TestAPIError_Detail(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{"string detail", http.StatusNotFound, `{"detail":"Relato não encontrado"}`, "Relato não encontrado"},
		{"no detail", http.StatusInternalServerError, `{"message":"boom"}`, "Internal Server Error"},
		{"empty body", http.StatusServiceUnavailable, ``, "Service Unavailable"},
		{"not json", http.StatusBadGateway, `<html>bad</html>`, "Bad Gateway"},
		{"null detail", http.StatusBadRequest, `{"detail":null}`, "Bad Request"},
		{"structured detail", http.StatusUnprocessableEntity, `{"detail": [ {"loc": ["body"], "msg": "x"} ]}`, `[{"loc":["body"],"msg":"x"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			})

			_, err := client.GetCase(context.Background(), 1)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("Expected *APIError, got %T: %v", err, err)
			}
			if apiErr.StatusCode != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, apiErr.StatusCode)
			}
			if apiErr.Detail != tt.want {
				t.Errorf("Expected detail %q, got %q", tt.want, apiErr.Detail)
			}
			if apiErr.Op != "get_case" {
				t.Errorf("Expected op get_case, got %s", apiErr.Op)
			}
		})
	}
}

func TestIsNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetExplanation(context.Background(), 4)
	if !IsNotFound(err) {
		t.Errorf("Expected not found, got %v", err)
	}
	if IsNotFound(errors.New("other")) {
		t.Error("Plain error should not be not found")
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	client := NewClient(url, time.Second)
	_, err := client.ListCases(context.Background(), 10)
	if err == nil {
		t.Fatal("Expected error for closed server")
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Error("Transport failure should not be an APIError")
	}
}

func TestContextCancellation(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := client.ListCases(ctx, 10); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestSubmitText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/relatos/texto" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Expected JSON content type, got %s", ct)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		if body["relato"] != "dor de cabeça" {
			t.Errorf("Unexpected body %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"case_id":11,"id":11,"status":"pendente","tipo_entrada":"texto","message":"ok"}`))
	})

	created, err := client.SubmitText(context.Background(), "dor de cabeça")
	if err != nil {
		t.Fatalf("SubmitText failed: %v", err)
	}
	if created.CaseID != 11 || created.InputType != entities.InputText {
		t.Errorf("Unexpected response %+v", created)
	}
}

func TestSubmitAudio(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/relatos/audio" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		file, header, err := r.FormFile("audio")
		if err != nil {
			t.Errorf("Expected audio part: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		if string(data) != "RIFFdata" {
			t.Errorf("Unexpected audio payload %q", data)
		}
		if header.Filename != "gravacao.wav" {
			t.Errorf("Unexpected filename %s", header.Filename)
		}
		if ct := header.Header.Get("Content-Type"); ct != "audio/wav" {
			t.Errorf("Expected audio/wav, got %s", ct)
		}
		w.Write([]byte(`{"case_id":12,"id":12,"status":"pendente","tipo_entrada":"audio"}`))
	})

	created, err := client.SubmitAudio(context.Background(), "gravacao.wav", "audio/wav", strings.NewReader("RIFFdata"))
	if err != nil {
		t.Fatalf("SubmitAudio failed: %v", err)
	}
	if created.CaseID != 12 || created.InputType != entities.InputAudio {
		t.Errorf("Unexpected response %+v", created)
	}
}

func TestUpdateCase_OmitsNilFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/api/relatos/3" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"status":"erro"}` {
			t.Errorf("Unexpected body %s", body)
		}
		w.Write([]byte(`{"message":"ok","caso":{"id":3,"status":"erro"}}`))
	})

	status := entities.StatusError
	updated, err := client.UpdateCase(context.Background(), 3, entities.CaseUpdate{Status: &status})
	if err != nil {
		t.Fatalf("UpdateCase failed: %v", err)
	}
	if updated.Case.Status != entities.StatusError {
		t.Errorf("Expected status erro, got %s", updated.Case.Status)
	}
}

func TestDeleteCase(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/api/relatos/9" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"message":"removido","case_id":9}`))
	})

	deleted, err := client.DeleteCase(context.Background(), 9)
	if err != nil {
		t.Fatalf("DeleteCase failed: %v", err)
	}
	if deleted.CaseID != 9 {
		t.Errorf("Expected case 9, got %d", deleted.CaseID)
	}
}

func TestUpdateStructuredData(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/relatos/5/structured-data" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"sintomas_identificados_ptbr":"[\"febre\"]"}` {
			t.Errorf("Unexpected body %s", body)
		}
		w.Write([]byte(`{"message":"ok","structured_data":{"id":1,"case_id":5,"sintomas_identificados_ptbr":"[\"febre\"]"}}`))
	})

	symptoms := `["febre"]`
	updated, err := client.UpdateStructuredData(context.Background(), 5, entities.StructuredDataUpdate{Symptoms: &symptoms})
	if err != nil {
		t.Fatalf("UpdateStructuredData failed: %v", err)
	}
	if updated.StructuredData.CaseID != 5 {
		t.Errorf("Expected case 5, got %d", updated.StructuredData.CaseID)
	}
}

func TestExplain(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/relatos/2/explicar" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("force"); got != "true" {
			t.Errorf("Expected force=true, got %s", got)
		}
		w.Write([]byte(`{"message":"ok","explanation":{"id":1,"case_id":2,"gravidade_sugerida":"moderada","recomendacoes":"[\"repouso\"]"}}`))
	})

	resp, err := client.Explain(context.Background(), 2, true)
	if err != nil {
		t.Fatalf("Explain failed: %v", err)
	}
	if resp.Explanation.SuggestedSeverity != "moderada" {
		t.Errorf("Unexpected severity %s", resp.Explanation.SuggestedSeverity)
	}
}

func TestBaseURLTrimmed(t *testing.T) {
	c := NewClient("http://upstream:8000//", time.Second)
	if c.BaseURL() != "http://upstream:8000" {
		t.Errorf("Expected trimmed base URL, got %s", c.BaseURL())
	}
}
