package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/campingtree/socket-file-transfer/constants"
	"github.com/campingtree/socket-file-transfer/fileio"
	"github.com/campingtree/socket-file-transfer/networking"
	"github.com/campingtree/socket-file-transfer/sender/comms"

	"github.com/akamensky/argparse"
)

func main() {
	args := argparse.NewParser("sender", constants.Title)

	addr := args.String("a", "address", &argparse.Options{Required: true, Help: "Target host address"})
	dscp := args.Int("d", "dscp", &argparse.Options{Required: false, Help: "DSCP field for QoS",
		Default: constants.DEFAULT_DSCP})
	files := args.StringList("f", "file", &argparse.Options{Required: true, Help: "File to send. Repeat for multiple files"})
	mptcp := args.Flag("m", "mptcp", &argparse.Options{Help: "Enable Multipath TCP"})
	port := args.Int("p", "port", &argparse.Options{Required: false, Help: "Target port",
		Default: constants.DEFAULT_PORT})
	timed := args.Flag("t", "timeout", &argparse.Options{Help: "Negotiate socket deadlines for the session"})
	wait := args.Int("w", "wait", &argparse.Options{Required: false, Help: "Deadline in seconds when timeouts are negotiated",
		Default: constants.DEFAULT_TIMEOUT_SECS})

	err := args.Parse(os.Args)

	if err != nil {
		fmt.Print(args.Usage(err))
		os.Exit(1)
	}

	// The whole batch must pass preflight before any protocol bytes move.
	if err := fileio.CheckBatch(*files); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}

	var timeout time.Duration
	if *timed {
		timeout = time.Duration(*wait) * time.Second
	}

	target := *addr + ":" + strconv.Itoa(*port)

	sender := new(comms.Sender)

	// Connect to host.
	if err := sender.Connect(target, *dscp, *mptcp); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
	defer sender.Close()
	fmt.Println("Connected to", target)

	if err := sender.Announce(len(*files), timeout); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
	fmt.Println("Capabilities acknowledged")

	for _, file := range *files {
		begin := time.Now()
		if err := sender.SendFile(file); err != nil {
			fmt.Println(err.Error())
			if errors.Is(err, networking.ErrIntegrityMismatch) {
				os.Exit(2)
			}
			os.Exit(1)
		}
		fmt.Println("Transferred", file, "in", time.Since(begin))
	}

	// End of batch is the half-close, not an explicit zero size record.
	if err := sender.Finish(); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
	fmt.Println("All files sent. Disconnecting.")
}
