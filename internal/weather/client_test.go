package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/agrosense/irrigation-server/pkg/config"
)

func newTestClient(baseURL string) *Client {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewClient(&config.WeatherConfig{
		BaseURL:  baseURL,
		Location: "Coimbatore",
		Timeout:  time.Second,
	}, log)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Coimbatore", r.URL.Query().Get("location"))
		w.Write([]byte(`{"temperature":31.5,"feelsLike":34,"humidity":62,"condition":"Partly cloudy","windSpeed":12,"precipitation":0.2}`))
	}))
	defer srv.Close()

	snapshot := newTestClient(srv.URL).Fetch(context.Background())

	assert.Equal(t, 31.5, snapshot.Temperature)
	assert.Equal(t, "Partly cloudy", snapshot.Condition)
	// Location filled from config when the provider omits it.
	assert.Equal(t, "Coimbatore", snapshot.Location)
}

func TestFetch_ServerErrorDegradesToDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	snapshot := newTestClient(srv.URL).Fetch(context.Background())

	assert.Equal(t, DefaultSnapshot("Coimbatore"), snapshot)
}

func TestFetch_UnreachableDegradesToDefaults(t *testing.T) {
	snapshot := newTestClient("http://127.0.0.1:1").Fetch(context.Background())

	assert.Equal(t, "Unknown", snapshot.Condition)
	assert.Equal(t, 25.0, snapshot.Temperature)
}
