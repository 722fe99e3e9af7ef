// Command rover connects to a robot controller over serial and logs its
// analog and digital pin readings to a sqlite telemetry database until
// interrupted.
package main

import (
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	roverlink "github.com/banshee-data/roverlink"
	"github.com/banshee-data/roverlink/internal/telemetry"
)

var (
	portPath      = flag.String("port", "", "Serial port of the robot controller (e.g. /dev/ttyACM0)")
	boardName     = flag.String("board", "uno", "Controller board: uno, nano, or promini")
	dbFile        = flag.String("db", "rover_telemetry.db", "Telemetry database file")
	migrationsDir = flag.String("migrations", "migrations", "Schema migrations directory")
	interval      = flag.Duration("interval", 5*time.Second, "Delay between pin sweeps")
	verbose       = flag.Bool("verbose", false, "Log every serial exchange")
)

func boardFromName(name string) (roverlink.Board, bool) {
	switch name {
	case "uno":
		return roverlink.ArduinoUno(), true
	case "nano":
		return roverlink.ArduinoNano(), true
	case "promini":
		return roverlink.ArduinoProMini(), true
	}
	return roverlink.Board{}, false
}

func main() {
	flag.Parse()

	if *portPath == "" {
		log.Fatal("no serial port given; use -port")
	}
	board, ok := boardFromName(*boardName)
	if !ok {
		log.Fatalf("unknown board %q; use uno, nano, or promini", *boardName)
	}

	store, err := telemetry.Open(*dbFile)
	if err != nil {
		log.Fatalf("failed to open telemetry database: %v", err)
	}
	defer store.Close()

	if err := store.MigrateUp(*migrationsDir); err != nil {
		log.Fatalf("failed to migrate telemetry database: %v", err)
	}
	log.Printf("telemetry session %s -> %s", store.SessionID(), *dbFile)

	robot := roverlink.NewSession(roverlink.Config{
		Port:    *portPath,
		Board:   board,
		Verbose: *verbose,
	})

	if err := robot.Connect(); err != nil {
		var fatal *roverlink.FatalError
		if errors.As(err, &fatal) {
			log.Fatalf("cannot use this robot: %v", fatal)
		}
		log.Fatalf("failed to connect: %v", err)
	}
	log.Printf("connected to %s (firmware %s)", *portPath, robot.Firmware())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-sig:
			log.Printf("shutting down")
			if err := robot.Close(); err != nil {
				log.Printf("failed to close robot: %v", err)
			}
			return
		case <-ticker.C:
			sweep(robot, store)
		}
	}
}

// sweep refreshes both pin pools and records every free pin's value. Failed
// refreshes are logged and skipped; the next tick retries.
func sweep(robot *roverlink.Session, store *telemetry.Store) {
	if err := robot.RefreshAnalogPins(); err != nil {
		log.Printf("analog refresh failed: %v", err)
	} else {
		for _, pin := range robot.AvailableAnalogPins() {
			value, err := robot.AnalogPin(pin)
			if err != nil {
				continue
			}
			if err := store.RecordReading("analog", pin, value); err != nil {
				log.Printf("failed to record analog pin %d: %v", pin, err)
			}
		}
	}

	if err := robot.RefreshDigitalPins(); err != nil {
		log.Printf("digital refresh failed: %v", err)
		return
	}
	for _, pin := range robot.AvailableDigitalPins() {
		value, err := robot.DigitalPin(pin)
		if err != nil {
			continue
		}
		if err := store.RecordReading("digital", pin, value); err != nil {
			log.Printf("failed to record digital pin %d: %v", pin, err)
		}
	}
}
