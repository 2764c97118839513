package restyutil

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestFormatHeadersRedactsCredentials(t *testing.T) {
	headers := http.Header{}
	headers.Set("Cookie", "JSESSIONID=secret")
	headers.Set("Accept", "text/html")

	out := formatHeaders(headers)
	require.Equal(t, "Accept: text/html\nCookie: <redacted>", out)
}

func TestRedactForm(t *testing.T) {
	out := redactForm("username=20300000000&password=hunter2&lt=LT-1")
	require.Equal(t, "lt=LT-1&password=%3Credacted%3E&username=20300000000", out)
}

func TestRedactUrl(t *testing.T) {
	require.Equal(
		t,
		"https://api2.pushdeer.com/message/push?pushkey=%3Credacted%3E&text=hi",
		redactUrl("https://api2.pushdeer.com/message/push?pushkey=PDU1abc&text=hi"),
	)
	require.Equal(
		t,
		"http://www.pushplus.plus/send?content=a&template=txt&token=%3Credacted%3E",
		redactUrl("http://www.pushplus.plus/send?token=abc&content=a&template=txt"),
	)
	// untouched when there is nothing to hide
	require.Equal(t, "https://my.fudan.edu.cn/list?b=2&a=1", redactUrl("https://my.fudan.edu.cn/list?b=2&a=1"))
}

func TestInstrumentClientDumpsMessages(t *testing.T) {
	var logs bytes.Buffer
	previous := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
	defer slog.SetDefault(previous)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	}))
	defer server.Close()

	dir := filepath.Join(t.TempDir(), "dumps")
	output, err := NewFilesystemOutput(dir)
	if err != nil {
		t.Fatal(err)
	}

	client := resty.New()
	InstrumentClient(client, nil, output)

	res, err := client.R().
		SetFormData(map[string]string{"start": "0", "password": "hunter2"}).
		Post(server.URL + "/data?pushkey=secret-token")
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, http.StatusTeapot, res.StatusCode())

	dump, err := os.ReadFile(filepath.Join(dir, "1.txt"))
	if err != nil {
		t.Fatal(err)
	}
	require.True(t, strings.HasPrefix(string(dump), "---- REQUEST ----"))
	require.Contains(t, string(dump), "start=0")
	require.Contains(t, string(dump), "short and stout")
	require.NotContains(t, string(dump), "hunter2")
	require.NotContains(t, string(dump), "secret-token")
	require.Contains(t, logs.String(), "request finished")
	require.NotContains(t, logs.String(), "secret-token")
}
