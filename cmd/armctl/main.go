// Command armctl sends one command line to a running armlink daemon's
// command input socket and prints the acknowledgement.
//
//	armctl -addr tcp:localhost:19000 "ops,1,set_pos,home;"
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/banshee-data/armlink/internal/armio"
)

var (
	addr    = flag.String("addr", "tcp:localhost:19000", "daemon command input address")
	timeout = flag.Duration("timeout", 30*time.Second, "how long to wait for the acknowledgement")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] \"<origin>,<id>,<name>[,fields];\"\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}

	line := strings.TrimSpace(flag.Arg(0))
	if !strings.HasSuffix(line, ";") {
		line += ";"
	}

	port, err := armio.Open(*addr, armio.PortOptions{})
	if err != nil {
		log.Fatalf("connecting to %s: %v", *addr, err)
	}
	defer port.Close()

	if err := armio.NewChannel(port).WriteLine(line); err != nil {
		log.Fatalf("sending command: %v", err)
	}

	ack := make(chan string, 1)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(port)
		if scanner.Scan() {
			ack <- scanner.Text()
			return
		}
		if err := scanner.Err(); err != nil {
			readErr <- err
			return
		}
		readErr <- fmt.Errorf("connection closed before acknowledgement")
	}()

	select {
	case a := <-ack:
		fmt.Println(a)
		if !strings.HasSuffix(strings.TrimSpace(a), ",0;") {
			os.Exit(1)
		}
	case err := <-readErr:
		log.Fatalf("reading acknowledgement: %v", err)
	case <-time.After(*timeout):
		log.Fatalf("no acknowledgement within %v", *timeout)
	}
}
