package sigkv

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cv "github.com/glycerine/goconvey/convey"
)

func dirExists(name string) bool {
	fi, err := os.Stat(name)
	if err != nil {
		return false
	}
	return fi.IsDir()
}

func writeFile(path, content string) {
	panicOn(os.WriteFile(path, []byte(content), 0600))
}

func Test701_config_defaults(t *testing.T) {

	cv.Convey("an empty config finishes to the documented defaults", t, func() {
		c := NewConfig()
		panicOn(c.FinishConfig())
		cv.So(c.ListenAddr, cv.ShouldEqual, DefaultListenAddr)
		cv.So(c.WSPath, cv.ShouldEqual, DefaultWSPath)
		cv.So(c.MetricsPath, cv.ShouldEqual, DefaultMetricsPath)
		cv.So(c.LogLevel, cv.ShouldEqual, "info")
		cv.So(c.LogFormat, cv.ShouldEqual, "console")
		cv.So(c.PrefixScheme, cv.ShouldEqual, string(PrefixDigest))
		cv.So(c.MaxMessageBytes, cv.ShouldEqual, int64(0))
		cv.So(c.DBPath, cv.ShouldEqual, "")
		cv.So(c.MetricsEnabled(), cv.ShouldBeTrue)
	})
}

func Test702_config_from_toml_file(t *testing.T) {

	cv.Convey("LoadConfig reads every key, and flags override what the file said", t, func() {
		path := filepath.Join(t.TempDir(), "sigkv.toml")
		writeFile(path, `
listen_addr = "0.0.0.0:9999"
ws_path = "kv"
db_path = "/tmp/x.db"
log_level = "debug"
log_format = "json"
prefix_scheme = "base58"
max_message_bytes = 65536
metrics_path = "-"
`)
		c, err := LoadConfig(path)
		panicOn(err)

		fs := flag.NewFlagSet("t", flag.ContinueOnError)
		c.SetFlags(fs)
		panicOn(fs.Parse([]string{"-addr", "127.0.0.1:7000"}))
		panicOn(c.FinishConfig())

		cv.So(c.ListenAddr, cv.ShouldEqual, "127.0.0.1:7000")
		cv.So(c.WSPath, cv.ShouldEqual, "/kv")
		cv.So(c.DBPath, cv.ShouldEqual, "/tmp/x.db")
		cv.So(c.LogLevel, cv.ShouldEqual, "debug")
		cv.So(c.LogFormat, cv.ShouldEqual, "json")
		cv.So(c.PrefixScheme, cv.ShouldEqual, "base58")
		cv.So(c.MaxMessageBytes, cv.ShouldEqual, int64(65536))
		cv.So(c.MetricsEnabled(), cv.ShouldBeFalse)
	})
}

func Test703_config_rejects_bad_input(t *testing.T) {

	cv.Convey("unknown keys and out of range values are errors", t, func() {
		path := filepath.Join(t.TempDir(), "bad.toml")
		writeFile(path, `listen_adr = "typo:1"`)
		_, err := LoadConfig(path)
		cv.So(err, cv.ShouldNotBeNil)
		cv.So(strings.Contains(err.Error(), "listen_adr"), cv.ShouldBeTrue)

		writeFile(path, `max_message_bytes = "lots"`)
		_, err = LoadConfig(path)
		cv.So(err, cv.ShouldNotBeNil)

		_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
		cv.So(err, cv.ShouldNotBeNil)

		bad := []*Config{
			{MaxMessageBytes: -1},
			{PrefixScheme: "md5"},
			{LogFormat: "xml"},
			{LogLevel: "chatty"},
			{WSPath: "/metrics"},
		}
		for _, c := range bad {
			cv.So(c.FinishConfig(), cv.ShouldNotBeNil)
		}
	})
}

func Test704_config_dir_from_env(t *testing.T) {

	cv.Convey("GetConfigDir prefers XDG_CONFIG_HOME and creates the directory", t, func() {
		tmp := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", tmp)
		dir := GetConfigDir()
		cv.So(dir, cv.ShouldEqual, tmp+sep+"sigkv")
		cv.So(dirExists(dir), cv.ShouldBeTrue)
		cv.So(DefaultDBPath(), cv.ShouldEqual, dir+sep+DefaultDBName)
	})
}
