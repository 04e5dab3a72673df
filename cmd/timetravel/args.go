package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

type command string

const (
	cmdExtract   command = "extract"
	cmdTransform command = "transform"
	cmdWatch     command = "watch"
)

type args struct {
	command   command
	operation string
	blocks    []string
	dataDir   string
	logLevel  string
	chain     string
}

func ParseArgs() (args, error) {
	flag.Usage = func() {
		fmt.Printf("staking-timetravel - offline NPoS election and ledger analysis.\n\n")
		fmt.Printf("Usage: %s [options] extract|transform|watch\n\n", os.Args[0])
		fmt.Printf("  extract    fetch chain states from the indexer into the snapshot store\n")
		fmt.Printf("  transform  run an operation over stored chain states\n")
		fmt.Printf("  watch      run an operation against the chain head on a schedule\n\n")
		flag.PrintDefaults()
	}
	operation := flag.String("op", "election-analysis", "Operation: min-active-stake, election-analysis or staking-ledger-checks")
	blocks := flag.String("blocks", "", "Comma separated block hashes, the chain head when empty")
	dataDir := flag.String("data-dir", "data", "Directory holding the config files")
	logLevel := flag.String("log-level", "info", "debug, info, warn or error")
	chain := flag.String("chain", "", "Runtime profile, overrides the analysis config")

	flag.Parse()

	if flag.NArg() != 1 {
		return args{}, fmt.Errorf("expected exactly one command, got %d", flag.NArg())
	}
	cmd := command(flag.Arg(0))
	switch cmd {
	case cmdExtract, cmdTransform, cmdWatch:
	default:
		return args{}, fmt.Errorf("unknown command %q", cmd)
	}

	var hashes []string
	for _, h := range strings.Split(*blocks, ",") {
		if h = strings.TrimSpace(h); h != "" {
			hashes = append(hashes, h)
		}
	}
	if cmd == cmdTransform && len(hashes) == 0 {
		return args{}, fmt.Errorf("transform needs -blocks")
	}

	return args{
		cmd,
		*operation,
		hashes,
		*dataDir,
		*logLevel,
		*chain,
	}, nil
}
