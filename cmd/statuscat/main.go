// Command statuscat subscribes to an armlink daemon's status broadcast and
// prints each record as a CSV line: timestamp, engine code, six joint
// angles.
//
//	statuscat -addr localhost:19001 -units deg
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"time"

	"github.com/banshee-data/armlink/internal/arm"
	"github.com/banshee-data/armlink/internal/units"
)

var (
	addr     = flag.String("addr", "localhost:19001", "daemon status broadcast address")
	unitName = flag.String("units", units.Radians, "angle units: rad or deg")
)

func main() {
	flag.Parse()
	if !units.IsValid(*unitName) {
		log.Fatalf("unknown units %q", *unitName)
	}

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		log.Fatalf("connecting to %s: %v", *addr, err)
	}
	defer conn.Close()

	buf := make([]byte, arm.BroadcastRecordSize)
	for {
		if _, err := io.ReadFull(conn, buf); err != nil {
			if err == io.EOF {
				return
			}
			log.Fatalf("reading broadcast: %v", err)
		}
		code, joints, err := arm.DecodeBroadcast(buf)
		if err != nil {
			log.Fatalf("decoding broadcast: %v", err)
		}

		fmt.Printf("%s,%d", time.Now().UTC().Format(time.RFC3339Nano), code)
		for _, rad := range joints {
			fmt.Printf(",%.6f", units.ConvertAngle(rad, *unitName))
		}
		fmt.Println()
	}
}
