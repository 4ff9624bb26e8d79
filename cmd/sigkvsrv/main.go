package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/glycerine/ipaddr"
	"github.com/glycerine/sigkv"
)

func main() {

	sigkv.Exit1IfVersionReq()

	fmt.Printf("%v", sigkv.GetCodeVersion("sigkvsrv"))

	fs := flag.NewFlagSet("sigkvsrv", flag.ExitOnError)
	var configPath = fs.String("config", "", "path to a TOML config file; flags override its settings")
	var help = fs.Bool("h", false, "show this help")

	cfg := sigkv.NewConfig()
	cfg.SetFlags(fs)
	fs.Parse(os.Args[1:])

	if *help {
		fmt.Fprintf(os.Stderr, "sigkvsrv help:\n")
		fs.PrintDefaults()
		return
	}
	if *configPath != "" {
		fileCfg, err := sigkv.LoadConfig(*configPath)
		stopOn(err)

		// flags given explicitly win over the file.
		over := flag.NewFlagSet("override", flag.ContinueOnError)
		fileCfg.SetFlags(over)
		fs.Visit(func(f *flag.Flag) {
			if g := over.Lookup(f.Name); g != nil {
				stopOn(g.Value.Set(f.Value.String()))
			}
		})
		cfg = fileCfg
	}
	if cfg.DBPath == "" {
		cfg.DBPath = sigkv.DefaultDBPath()
	}
	stopOn(cfg.FinishConfig())

	log, err := sigkv.NewLogger("sigkvsrv", cfg.LogLevel, cfg.LogFormat)
	stopOn(err)

	store, err := sigkv.OpenBoltStore(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db", cfg.DBPath).Msg("open store")
	}
	defer store.Close()
	log.Info().Str("db", cfg.DBPath).Msg("store open")

	srv, err := sigkv.NewServer(cfg, store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("new server")
	}
	addr, err := srv.Start()
	if err != nil {
		log.Fatal().Err(err).Msg("start")
	}

	if host, port, err := net.SplitHostPort(addr.String()); err == nil {
		if ip := net.ParseIP(host); ip != nil && ip.IsUnspecified() {
			log.Info().Msgf("reachable at ws://%v:%v%v", ipaddr.GetExternalIP(), port, cfg.WSPath)
		}
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("shutting down")
	srv.Close()
}

// abort the program with error code 1 after printing msg to Stderr.
func stopOn(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "sigkvsrv error: %v\n", err)
	os.Exit(1)
}
