package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hemanthl7/auto-trade-bot/internal/config"
	"github.com/hemanthl7/auto-trade-bot/internal/database"
	"github.com/hemanthl7/auto-trade-bot/internal/queue"
	"github.com/hemanthl7/auto-trade-bot/internal/services"
	"github.com/hemanthl7/auto-trade-bot/internal/tickets"
)

func newTestRouter(t *testing.T) (*gin.Engine, *miniredis.Miniredis) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	require.NoError(t, database.InitDatabase("file::memory:?cache=shared"))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	cfg := &config.Config{
		Auth: config.AuthConfig{WebhookKey: "K"},
		Queue: config.QueueConfig{
			Name:         "trade-commands",
			GroupID:      "trades",
			StaleAfterMs: 10000,
			MaxPolls:     16,
		},
		Tickets: config.TicketsConfig{Enabled: true},
	}

	dispatchQueue := queue.NewAdapter(rdb, cfg.Queue.Name, cfg.Queue.GroupID, cfg.Queue.DedupWindow())
	ticketRegistry := tickets.NewRegistry(rdb, cfg.Tickets.Enabled)
	relayService := services.NewRelayService(dispatchQueue, ticketRegistry, cfg)

	handler := NewRelayHandler(relayService)
	handler.SetConfig(cfg)

	r := gin.New()
	r.POST("/webhook", handler.HandleWebhook)
	r.POST("/receive", handler.HandleReceive)
	r.POST("/ticket", handler.SaveTicket)
	r.DELETE("/ticket", handler.DeleteTicket)
	r.GET("/signals", handler.GetSignals)
	return r, mr
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

const validSignal = `{
	"authKey": "K",
	"symbol": "EURUSD",
	"operation": "buy",
	"action": "open",
	"price": 1.2345,
	"volume": 0.02,
	"time": "111"
}`

func TestHandleWebhook(t *testing.T) {
	t.Run("Accepted signal", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := doRequest(r, http.MethodPost, "/webhook", validSignal)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Executed Successfully")
		assert.Contains(t, w.Body.String(), "EURUSD")
	})

	t.Run("Wrong auth key returns empty success", func(t *testing.T) {
		r, _ := newTestRouter(t)

		bad := strings.Replace(validSignal, `"K"`, `"wrong"`, 1)
		w := doRequest(r, http.MethodPost, "/webhook", bad)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "{}", w.Body.String())

		// Nothing was enqueued.
		w = doRequest(r, http.MethodPost, "/receive", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "{}", w.Body.String())
	})

	t.Run("Invalid body rejected", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := doRequest(r, http.MethodPost, "/webhook", "not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleReceive(t *testing.T) {
	t.Run("Empty queue", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := doRequest(r, http.MethodPost, "/receive", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, "{}", w.Body.String())
	})

	t.Run("Webhook then receive round trip", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := doRequest(r, http.MethodPost, "/webhook", validSignal)
		require.Equal(t, http.StatusOK, w.Code)

		w = doRequest(r, http.MethodPost, "/receive", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "TRADE|OPEN|OP_BUYLIMIT|EURUSD|1.2345|0|0|auto trade|0.02|12345|0", w.Body.String())

		// Consumed: a second poll finds nothing.
		w = doRequest(r, http.MethodPost, "/receive", "")
		assert.JSONEq(t, "{}", w.Body.String())
	})

	t.Run("Close command rewritten with registered ticket", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := doRequest(r, http.MethodPost, "/ticket", `{"_symbol":"EURUSD","_ticket":"777"}`)
		require.Equal(t, http.StatusOK, w.Code)

		closeSignal := `{
			"authKey": "K",
			"symbol": "EURUSD",
			"operation": "sell_market",
			"action": "close",
			"price": 1.2300,
			"volume": 0.01,
			"time": "222"
		}`
		w = doRequest(r, http.MethodPost, "/webhook", closeSignal)
		require.Equal(t, http.StatusOK, w.Code)

		w = doRequest(r, http.MethodPost, "/receive", "")
		assert.Equal(t, "TRADE|CLOSE_PARTIAL|OP_SELL|EURUSD|1.2300|0|0|auto trade|0.01|12345|777", w.Body.String())
	})
}

func TestTicketEndpoints(t *testing.T) {
	t.Run("Register and unregister", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := doRequest(r, http.MethodPost, "/ticket", `{"_symbol":"EURUSD","_ticket":"777"}`)
		assert.Equal(t, http.StatusOK, w.Code)

		w = doRequest(r, http.MethodDelete, "/ticket", `{"_ticket":"777"}`)
		assert.Equal(t, http.StatusOK, w.Code)

		// With the ticket gone, a close keeps its encoded default.
		closeSignal := strings.Replace(validSignal, `"open"`, `"close"`, 1)
		w = doRequest(r, http.MethodPost, "/webhook", closeSignal)
		require.Equal(t, http.StatusOK, w.Code)

		w = doRequest(r, http.MethodPost, "/receive", "")
		assert.True(t, strings.HasSuffix(w.Body.String(), "|12345|0"), "body: %s", w.Body.String())
	})

	t.Run("NUL-padded payload accepted", func(t *testing.T) {
		r, _ := newTestRouter(t)

		padded := "{\"_symbol\":\"EURUSD\",\"_ticket\":\"777\"}\x00\x00\x00"
		w := doRequest(r, http.MethodPost, "/ticket", padded)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("Malformed payload rejected", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := doRequest(r, http.MethodPost, "/ticket", "not json")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetSignals(t *testing.T) {
	t.Run("Accepted signal shows up", func(t *testing.T) {
		r, _ := newTestRouter(t)

		w := doRequest(r, http.MethodPost, "/webhook", validSignal)
		require.Equal(t, http.StatusOK, w.Code)

		// The audit record is written off the request path.
		assert.Eventually(t, func() bool {
			w := doRequest(r, http.MethodGet, "/signals?symbol=EURUSD", "")
			return w.Code == http.StatusOK && strings.Contains(w.Body.String(), "EURUSD")
		}, 2*time.Second, 20*time.Millisecond)
	})

	t.Run("Broker failure recorded as failed", func(t *testing.T) {
		r, mr := newTestRouter(t)
		mr.Close()

		failing := strings.Replace(validSignal, "EURUSD", "USDJPY", 1)
		w := doRequest(r, http.MethodPost, "/webhook", failing)
		assert.Equal(t, http.StatusInternalServerError, w.Code)

		assert.Eventually(t, func() bool {
			w := doRequest(r, http.MethodGet, "/signals?symbol=USDJPY", "")
			return w.Code == http.StatusOK && strings.Contains(w.Body.String(), `"failed"`)
		}, 2*time.Second, 20*time.Millisecond)
	})
}
