package handlers

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/nothingonline/nightscouter-settings/bundle"
)

func TestBundle(t *testing.T) {
	info, err := bundle.Parse([]byte(`
CFBundleIdentifier: com.nothingonline.nightscouter
CFBundleURLTypes:
  - CFBundleURLSchemes: [nightscouter]
`))
	if err != nil {
		t.Fatal(err)
	}

	rr := send(Bundle(info), http.MethodGet, "/bundle", "", nil)
	assertStatusCode(t, rr, http.StatusOK)
	assertBody(t, rr, literal(`{"bundleIdentifier":"com.nothingonline.nightscouter","supportedSchemes":["nightscouter"]}`+"\n"))

	rr = send(Bundle(nil), http.MethodGet, "/bundle", "", nil)
	assertStatusCode(t, rr, http.StatusOK)
	assertBody(t, rr, literal(`{"bundleIdentifier":null,"supportedSchemes":null}`+"\n"))
}

func TestHealth(t *testing.T) {
	rr := send(http.HandlerFunc(HandleHealthReady), http.MethodGet, "/health/ready", "", nil)
	assertStatusCode(t, rr, http.StatusOK)

	rr = send(Liveness(func() (interface{}, error) {
		return map[string]int{"sites": 2}, nil
	}), http.MethodGet, "/health/liveness", "", nil)
	assertStatusCode(t, rr, http.StatusOK)
	assertBody(t, rr, literal(`{"sites":2}`+"\n"))

	rr = send(Liveness(func() (interface{}, error) {
		return nil, errors.New("backend unreachable")
	}), http.MethodGet, "/health/liveness", "", nil)
	assertStatusCode(t, rr, http.StatusInternalServerError)
	assertBody(t, rr, literal("Error\n"))
}

func TestDebug(t *testing.T) {
	router := mux.NewRouter()
	router.Handle("/{apiVersion}/debug", Debug("https://github.com/nothingonline/nightscouter-settings", "abc123", "today"))

	rr := send(router, http.MethodGet, "/v1/debug", "", http.Header{"X-Test": []string{"yes"}})
	assertStatusCode(t, rr, http.StatusOK)

	body := rr.Body.String()
	for _, want := range []string{
		"url: GET /v1/debug\n",
		"  X-Test: yes\n",
		"ver: https://github.com/nothingonline/nightscouter-settings/commit/abc123\n",
		"built on: today\n",
		"api version called: v1",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected body to contain %q, got %q", want, body)
		}
	}
}
