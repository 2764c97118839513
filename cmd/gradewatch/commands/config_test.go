package commands

import (
	"gradewatch/lib/notify"
	"gradewatch/lib/testutil"
	"path/filepath"
	"testing"

	"github.com/go-resty/resty/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{"STD_ID", "PASSWORD", "TOKEN", "PUSH_CHANNEL", "SHOW_DATA_IN_TITLE"}


func TestLoadConfigDefaults(t *testing.T) {
	testutil.ClearEnv(t, envKeys...)
	dir := t.TempDir()

	cfg, err := LoadConfig(filepath.Join(dir, "gradewatch.json5"), filepath.Join(dir, ".env"))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
	require.ErrorIs(t, cfg.Validate(), ErrMissingCredentials)
}

func TestLoadConfigLayers(t *testing.T) {
	testutil.ClearEnv(t, envKeys...)
	dir := t.TempDir()
	configFile := filepath.Join(dir, "gradewatch.json5")
	dotenv := filepath.Join(dir, ".env")

	testutil.WriteFile(t, configFile, `{
		student_id: "from-file",
		password: "file-password",
		push_channel: 1,
		page: { length: 20 },
	}`)
	testutil.WriteFile(t, dotenv, "TOKEN=dotenv-token\nSTD_ID=from-dotenv\n")
	t.Setenv("STD_ID", "from-env")
	t.Setenv("SHOW_DATA_IN_TITLE", "TRUE")

	cfg, err := LoadConfig(configFile, dotenv)
	if err != nil {
		t.Fatal(err)
	}

	require.Equal(t, "from-env", cfg.StudentId)
	require.Equal(t, "file-password", cfg.Password)
	require.Equal(t, "dotenv-token", cfg.Token)
	require.NotNil(t, cfg.PushChannel)
	require.Equal(t, notify.ChannelPushplus, *cfg.PushChannel)
	require.True(t, cfg.ShowDataInTitle)
	require.Equal(t, PageConfig{Start: 0, Length: 20}, cfg.Page)
	require.Equal(t, DefaultConfig().Portal, cfg.Portal)
	require.Equal(t, "record.json", cfg.SnapshotPath)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigInvalidEnv(t *testing.T) {
	testutil.ClearEnv(t, envKeys...)
	dir := t.TempDir()
	t.Setenv("PUSH_CHANNEL", "pushdeer")
	t.Setenv("SHOW_DATA_IN_TITLE", "sometimes")

	cfg, err := LoadConfig(filepath.Join(dir, "gradewatch.json5"), "")
	if err != nil {
		t.Fatal(err)
	}
	require.Nil(t, cfg.PushChannel)
	require.False(t, cfg.ShowDataInTitle)
}

func TestLoadConfigEnvChannel(t *testing.T) {
	testutil.ClearEnv(t, envKeys...)
	t.Setenv("PUSH_CHANNEL", " 0 ")
	t.Setenv("SHOW_DATA_IN_TITLE", "false")

	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "gradewatch.json5"), "")
	if err != nil {
		t.Fatal(err)
	}
	require.NotNil(t, cfg.PushChannel)
	require.Equal(t, notify.ChannelPushdeer, *cfg.PushChannel)
	require.False(t, cfg.ShowDataInTitle)
}

func TestNewDispatcher(t *testing.T) {
	client := resty.New()
	channel := func(i int) *int { return &i }

	cfg := DefaultConfig()
	require.Nil(t, newDispatcher(cfg, client))

	cfg.PushChannel = channel(notify.ChannelPushdeer)
	require.Nil(t, newDispatcher(cfg, client))

	cfg.Token = "token"
	dispatcher := newDispatcher(cfg, client)
	require.NotNil(t, dispatcher)
	selected, err := dispatcher.(notify.Dispatcher).Channel()
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "pushdeer", selected.Name())

	// email doesn't need a token
	cfg.Token = ""
	cfg.PushChannel = channel(notify.ChannelEmail)
	dispatcher = newDispatcher(cfg, client)
	require.NotNil(t, dispatcher)
	selected, err = dispatcher.(notify.Dispatcher).Channel()
	if err != nil {
		t.Fatal(err)
	}
	require.Equal(t, "email", selected.Name())

	// out of range indexes are reported when dispatching
	cfg.PushChannel = channel(7)
	dispatcher = newDispatcher(cfg, client)
	_, err = dispatcher.(notify.Dispatcher).Channel()
	require.ErrorIs(t, err, notify.ErrUnknownChannel)
}
