// Command chipprobed drives one memory-chip fixture over a serial link: it
// opens the configured board, brings up its GPIO/SPI drivers, and runs the
// cooperative serial protocol engine until the process is killed.
package main

import (
	"flag"
	"log"
	"time"

	"go.bug.st/serial"

	"chipprobe/fixture"
	"chipprobe/serialengine"
)

func main() {
	device := flag.String("device", "/dev/ttyUSB0", "serial device path")
	baud := flag.Int("baud", 115200, "serial baud rate")
	configPath := flag.String("config", "", "board config JSON path (default: built-in)")
	ackTimeout := flag.Duration("ack-timeout", time.Second, "per-byte read timeout mid-command")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("chipprobed: %v", err)
	}

	if err := fixture.Init(); err != nil {
		log.Fatalf("chipprobed: %v", err)
	}

	port, err := serial.Open(*device, &serial.Mode{BaudRate: *baud})
	if err != nil {
		log.Fatalf("chipprobed: open %s: %v", *device, err)
	}
	defer port.Close()

	stream := serialengine.NewPortStream(port, 2*time.Millisecond, *ackTimeout)

	engine, err := fixture.BuildEngine(cfg, stream)
	if err != nil {
		log.Fatalf("chipprobed: %v", err)
	}

	log.Printf("chipprobed: ready on %s (board %s)", *device, cfg.Board)
	for {
		engine.Update()
	}
}

func loadConfig(path string) (fixture.Config, error) {
	if path == "" {
		return fixture.DefaultConfig()
	}
	return fixture.LoadConfig(path)
}
