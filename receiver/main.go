package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/campingtree/socket-file-transfer/constants"
	"github.com/campingtree/socket-file-transfer/receiver/controller"

	"github.com/akamensky/argparse"
)

func main() {
	args := argparse.NewParser("receiver", constants.Title)

	dscp := args.Int("d", "dscp", &argparse.Options{Required: false, Help: "DSCP field for QoS",
		Default: constants.DEFAULT_DSCP})
	bind := args.String("l", "listen", &argparse.Options{Required: false, Help: "Listen on address",
		Default: "0.0.0.0"})
	mptcp := args.Flag("m", "mptcp", &argparse.Options{Help: "Enable Multipath TCP"})
	port := args.Int("p", "port", &argparse.Options{Required: false, Help: "Listening port",
		Default: constants.DEFAULT_PORT})
	path := args.String("r", "root", &argparse.Options{Required: true, Help: "Root path for storing files"})
	wait := args.Int("w", "wait", &argparse.Options{Required: false, Help: "Deadline in seconds when the peer negotiates timeouts",
		Default: constants.DEFAULT_TIMEOUT_SECS})

	err := args.Parse(os.Args)

	if err != nil {
		fmt.Print(args.Usage(err))
		os.Exit(1)
	}

	bindTo := *bind + ":" + strconv.Itoa(*port)

	recv := new(controller.Receiver)

	if err := recv.Listen(*path, bindTo, *mptcp); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
	defer recv.Close()
	fmt.Println("Listening on", recv.Addr().String())

	// One inbound connection per invocation.
	if err := recv.Accept(*dscp); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
	fmt.Println("New connection from:", recv.Remote().String())

	caps, err := recv.Negotiate(time.Duration(*wait) * time.Second)
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
	fmt.Println("Negotiated capabilities:", caps)

	count, err := recv.ReceiveAll()
	if err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}

	fmt.Println("Received", count, "file(s)")
	fmt.Println("Client disconnected")
}
