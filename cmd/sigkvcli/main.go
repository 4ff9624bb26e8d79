package main

// sigkvcli signs and stores, or fetches, one record.

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	tdigest "github.com/caio/go-tdigest"
	"github.com/glycerine/sigkv"
	gjson "github.com/goccy/go-json"
	"golang.org/x/term"
)

type CliConfig struct {
	URL      string // -url server websocket address
	KeyPath  string // -key path to our signing key
	KeyGen   bool   // -keygen make a key if none, print the public key
	PutHash  string // -put hash component of the identifier
	Data     string // -data payload for -put
	GetIdent string // -get full identifier to fetch
	Scheme   string // -prefix server prefix scheme, for -keygen output
	Timeout  time.Duration
	N        int // -n repeat the -put or -get this many times
	Verbose  bool
	Help     bool
}

func (c *CliConfig) SetFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.URL, "url", "ws://"+sigkv.DefaultListenAddr+"/", "server websocket url")
	fs.StringVar(&c.KeyPath, "key", "", "path to signing key (default <config dir>/client.key)")
	fs.BoolVar(&c.KeyGen, "keygen", false, "create the signing key if needed and print its public key")
	fs.StringVar(&c.PutHash, "put", "", "store -data under this hash, signed with our key")
	fs.StringVar(&c.Data, "data", "", "data to store with -put")
	fs.StringVar(&c.GetIdent, "get", "", "fetch the record with this full identifier")
	fs.StringVar(&c.Scheme, "prefix", "digest", "the server's prefix scheme: digest or base58")
	fs.DurationVar(&c.Timeout, "t", 10*time.Second, "timeout per request")
	fs.IntVar(&c.N, "n", 1, "number of times to repeat -put or -get; latency quantiles are printed when > 1")
	fs.BoolVar(&c.Verbose, "v", false, "trace every message sent and received to stderr")
	fs.BoolVar(&c.Help, "h", false, "show this help")
}

func (c *CliConfig) FinishConfig(fs *flag.FlagSet) (err error) {
	if c.KeyPath == "" {
		c.KeyPath = sigkv.DefaultKeyPath()
	}
	n := 0
	if c.KeyGen {
		n++
	}
	if c.PutHash != "" {
		n++
	}
	if c.GetIdent != "" {
		n++
	}
	if n != 1 {
		return fmt.Errorf("need exactly one of -keygen, -put, -get")
	}
	if c.N < 1 {
		return fmt.Errorf("-n must be at least 1")
	}
	return
}

func main() {
	sigkv.Exit1IfVersionReq()

	cmdCfg := &CliConfig{}
	fs := flag.NewFlagSet("sigkvcli", flag.ExitOnError)
	cmdCfg.SetFlags(fs)
	fs.Parse(os.Args[1:])

	if cmdCfg.Help {
		fmt.Fprintf(os.Stderr, "sigkvcli help:\n")
		fs.PrintDefaults()
		return
	}
	err := cmdCfg.FinishConfig(fs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sigkvcli error: %v\n", err)
		fs.PrintDefaults()
		os.Exit(1)
	}
	sigkv.SetVerbose(cmdCfg.Verbose)
	scheme, err := sigkv.ParsePrefixScheme(cmdCfg.Scheme)
	stopOn(err)

	if cmdCfg.KeyGen {
		key, wasNew, err := sigkv.LoadOrCreateKey(cmdCfg.KeyPath)
		stopOn(err)
		if wasNew {
			fmt.Fprintf(os.Stderr, "created new key in '%v'\n", cmdCfg.KeyPath)
		}
		prefix, err := sigkv.NewDeriver(scheme).Prefix(key.PublicKey())
		stopOn(err)
		fmt.Printf("public key: %v\nprefix: %v\n", key.PublicKeyHex(), prefix)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), cmdCfg.Timeout)
	cli, err := sigkv.Dial(ctx, "sigkvcli", cmdCfg.URL)
	cancel()
	stopOn(err)
	defer cli.Close()

	var key *sigkv.SigningKey
	if cmdCfg.PutHash != "" {
		key, err = sigkv.LoadKey(cmdCfg.KeyPath)
		if err != nil {
			stopOn(fmt.Errorf("could not load key (try -keygen first): %w", err))
		}
	}

	// compression 100 keeps good accuracy at the tails.
	td, err := tdigest.New(tdigest.Compression(100))
	stopOn(err)

	var resp *sigkv.Response
	for i := 0; i < cmdCfg.N; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), cmdCfg.Timeout)
		t0 := time.Now()
		if key != nil {
			resp, err = cli.Put(ctx, key, cmdCfg.PutHash, cmdCfg.Data)
		} else {
			resp, err = cli.Get(ctx, cmdCfg.GetIdent)
		}
		cancel()
		stopOn(err)
		stopOn(td.Add(float64(time.Since(t0))))
	}
	if cmdCfg.N > 1 {
		fmt.Fprintf(os.Stderr, "%v calls: q50='%v' q99='%v' q999='%v'\n", cmdCfg.N,
			time.Duration(td.Quantile(0.50)),
			time.Duration(td.Quantile(0.99)),
			time.Duration(td.Quantile(0.999)))
	}

	var by []byte
	if term.IsTerminal(int(os.Stdout.Fd())) {
		by, err = gjson.MarshalIndent(resp, "", "  ")
	} else {
		by, err = resp.Bytes()
	}
	stopOn(err)
	fmt.Printf("%s\n", by)
	if resp.IsErr() {
		os.Exit(2)
	}
}

func stopOn(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "sigkvcli error: %v\n", err)
	os.Exit(1)
}
