package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	notificationRespond "MediaHub/internal/modules/notification/application/dto/respond"
	"MediaHub/internal/modules/notification/application/service"
	"MediaHub/pkg/xerr"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNotifier struct {
	events []service.NotifyEvent
}

func (n *stubNotifier) Notify(ctx context.Context, ev service.NotifyEvent) (*service.NotifyResult, error) {
	n.events = append(n.events, ev)
	return &service.NotifyResult{RecipientUserId: ev.RecipientUserId}, nil
}

type stubBroadcast struct {
	params []service.BroadcastParams
}

func (b *stubBroadcast) Send(ctx context.Context, p service.BroadcastParams) (*notificationRespond.BatchSendRespond, error) {
	b.params = append(b.params, p)
	return &notificationRespond.BatchSendRespond{}, nil
}

func post(t *testing.T, path string, handle gin.HandlerFunc, body string) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST(path, handle)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var env struct {
		Code int `json:"code"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env.Code
}

func TestNotify_KeepsLargeIntegersInData(t *testing.T) {
	n := &stubNotifier{}
	h := NewNotificationHandler(nil, n, nil)

	code := post(t, "/internal/notification/notify", h.Notify,
		`{"recipient_user_id":7,"type":"liveStream","title":"t","body":"b","data":{"order_id":9007199254740993}}`)
	require.Equal(t, xerr.OK, code)
	require.Len(t, n.events, 1)
	assert.Equal(t, json.Number("9007199254740993"), n.events[0].Data["order_id"])
	assert.Equal(t, int64(7), n.events[0].RecipientUserId)
}

func TestNotify_ValidatesRequiredFields(t *testing.T) {
	n := &stubNotifier{}
	h := NewNotificationHandler(nil, n, nil)

	assert.Equal(t, xerr.BadRequest, post(t, "/internal/notification/notify", h.Notify, `{"type":"liveStream","title":"t"}`))
	assert.Equal(t, xerr.BadRequest, post(t, "/internal/notification/notify", h.Notify, `{bad`))
	assert.Empty(t, n.events)
}

func TestSendBatch_KeepsLargeIntegersInData(t *testing.T) {
	b := &stubBroadcast{}
	h := NewNotificationHandler(nil, nil, b)

	code := post(t, "/internal/notification/sendBatch", h.SendBatch,
		`{"title":"t","body":"b","tokens":["a"],"data":{"campaign":12345678901234567}}`)
	require.Equal(t, xerr.OK, code)
	require.Len(t, b.params, 1)
	assert.Equal(t, json.Number("12345678901234567"), b.params[0].Data["campaign"])
}
