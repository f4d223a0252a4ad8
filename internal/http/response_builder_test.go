package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cashflow/internal/core"
	"cashflow/internal/viewsync"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		BodyString("test").
		Write(w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", w.Body.String())
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerFormReset(viewsync.FormDefaults{Date: "2024-03-01", Type: core.Expense}).
		TriggerSuccessNotification("Test message").
		Write(w)

	trigger := w.Header().Get("HX-Trigger")
	require.NotEmpty(t, trigger, "HX-Trigger header not set")

	for _, part := range []string{
		`"form:reset"`,
		`"t_date":"2024-03-01"`,
		`"t_type":"expense"`,
		`"show-notification"`,
		`"type":"success"`,
		`"duration":3000`,
	} {
		assert.Contains(t, trigger, part)
	}
}

func TestHTMXResponseBuilder_Banners(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewHTMXResponse().TriggerBanners(nil).Write(w)
		assert.Empty(t, w.Header().Get("HX-Trigger"))
	})

	t.Run("single", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewHTMXResponse().TriggerBanners([]viewsync.Banner{
			{Kind: viewsync.BannerError, Message: "Erro ao remover lançamento.", Duration: 8 * time.Second},
		}).Write(w)

		var got map[string]notification
		require.NoError(t, json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &got))
		assert.Equal(t,
			notification{Type: NotificationError, Message: "Erro ao remover lançamento.", Duration: 8000},
			got[EventNotification])
	})

	t.Run("several keep order", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewHTMXResponse().TriggerBanners([]viewsync.Banner{
			{Kind: viewsync.BannerError, Message: "first", Duration: 8 * time.Second},
			{Kind: viewsync.BannerSuccess, Message: "second", Duration: 3 * time.Second},
		}).Write(w)

		var got map[string]struct {
			Items []notification `json:"items"`
		}
		require.NoError(t, json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &got))
		items := got[EventNotification].Items
		require.Len(t, items, 2)
		assert.Equal(t, "first", items[0].Message)
		assert.Equal(t, NotificationSuccess, items[1].Type)
	})
}

func TestHTMXResponseBuilder_CustomHeader(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Header("X-Custom", "value").
		Status(http.StatusCreated).
		Write(w)

	assert.Equal(t, "value", w.Header().Get("X-Custom"))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		builder    *HTMXResponseBuilder
		wantStatus int
		wantBody   string
	}{
		{
			name:       "bad request",
			builder:    BadRequestError("Invalid input"),
			wantStatus: http.StatusBadRequest,
			wantBody:   `<div class="error">Invalid input</div>`,
		},
		{
			name:       "internal server error",
			builder:    InternalServerError("Something broke"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `<div class="error">Something broke</div>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestErrorResponse_EscapesHTML(t *testing.T) {
	w := httptest.NewRecorder()

	BadRequestError("<script>alert('xss')</script>").Write(w)

	body := w.Body.String()
	assert.NotContains(t, body, "<script>")
	assert.Contains(t, body, "&lt;script&gt;")
}

func TestMethodNotAllowedError(t *testing.T) {
	w := httptest.NewRecorder()

	MethodNotAllowedError("GET, POST").Write(w)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "GET, POST", w.Header().Get("Allow"))
}

func TestNotificationTypes(t *testing.T) {
	tests := []struct {
		notifType NotificationType
		want      string
	}{
		{NotificationSuccess, "success"},
		{NotificationError, "error"},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		NewHTMXResponse().
			TriggerNotification(tt.notifType, "test", 1000).
			Write(w)

		assert.Contains(t, w.Header().Get("HX-Trigger"), `"type":"`+tt.want+`"`)
	}
}
