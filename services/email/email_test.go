package emailsvc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/mail"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coding7860/sparkminds-backend/core"
)

type nopLogger struct{ errors []string }

func (l *nopLogger) Debug(string, ...interface{})       {}
func (l *nopLogger) Info(string, ...interface{})        {}
func (l *nopLogger) Warn(string, ...interface{})        {}
func (l *nopLogger) Error(msg string, _ ...interface{}) { l.errors = append(l.errors, msg) }
func (l *nopLogger) Fatal(string, ...interface{})       {}

func testConf() *core.Config {
	return &core.Config{
		AppName:          "SparkMinds",
		DefaultFromEmail: "noreply@sparkminds.test",
		FrontendBaseURL:  "http://frontend.test",
		TestMode:         true,
	}
}

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	ResetSentMessages()
	svc := NewService(testConf(), &nopLogger{})

	svc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: "Jane", Address: "jane@example.com"}},
			Subject:      "Password Reset",
			TemplateName: "password_reset",
			TemplateData: map[string]string{"Name": "Jane", "UID": "Mg", "Token": "abc-123"},
		},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "dropped"},
	)

	require.Len(t, SentMessages, 1)
	msg := SentMessages[0]
	assert.Contains(t, msg.TextContent, "Hello Jane")
	assert.Contains(t, msg.TextContent, "http://frontend.test/password-reset/Mg/abc-123")
	assert.NotEmpty(t, msg.HTMLContent)
}

func TestConsoleService_Format(t *testing.T) {
	svc := newConsoleService(testConf(), &nopLogger{})
	body, err := svc.format(core.EmailMessage{
		To:          []mail.Address{{Address: "jane@example.com"}},
		Subject:     "Hi",
		TextContent: "plain",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "Subject: [SparkMinds] Hi\r\n")
	assert.Contains(t, body, "To: <jane@example.com>\r\n")
	assert.Contains(t, body, "plain")
	assert.NotContains(t, body, "text/html")
}

func TestSendgridService_Send(t *testing.T) {
	conf := testConf()
	conf.SendgridApiKey = "SG.key"

	tests := []struct {
		name       string
		status     int
		wantErrors int
	}{
		{name: "accepted", status: http.StatusAccepted},
		{name: "rejected", status: http.StatusBadRequest, wantErrors: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := &nopLogger{}
			svc := NewSendgridService(conf, logger)

			var got rest.Request
			sendgridAPIFunc = func(req rest.Request) (*rest.Response, error) {
				got = req
				return &rest.Response{StatusCode: tt.status}, nil
			}
			defer func() { sendgridAPIFunc = origSendgridAPI }()

			svc.send(core.EmailMessage{
				To:          []mail.Address{{Name: "Jane", Address: "jane@example.com"}},
				Subject:     "Hi",
				TextContent: "plain",
			})

			assert.Equal(t, rest.Method(http.MethodPost), got.Method)
			assert.Equal(t, "Bearer SG.key", got.Headers["Authorization"])
			var payload map[string]interface{}
			require.NoError(t, json.NewDecoder(bytes.NewReader(got.Body)).Decode(&payload))
			assert.Len(t, payload["content"], 1)
			assert.Len(t, logger.errors, tt.wantErrors)
		})
	}
}

var origSendgridAPI = sendgridAPIFunc
