// Command rovershell is an interactive console for driving a robot by hand:
// connect to a controller, attach motors and servos, run them, and read
// sensors, with every command typed at a prompt.
package main

import (
	"flag"
	"fmt"
	"log"
	"strconv"

	"github.com/abiosoft/ishell"

	roverlink "github.com/banshee-data/roverlink"
)

const (
	shellKey          = "$state"
	unconnectedPrompt = "[none] > "
)

type state struct {
	Robot *roverlink.Session
	Port  string
}

func stateFrom(c *ishell.Context) *state {
	return c.Get(shellKey).(*state)
}

// mustBeConnected wraps a command func that requires a live connection.
func mustBeConnected(fn func(c *ishell.Context)) func(c *ishell.Context) {
	return func(c *ishell.Context) {
		st := stateFrom(c)
		if st.Robot == nil || !st.Robot.Connected() {
			c.Err(fmt.Errorf("not connected"))
			return
		}
		fn(c)
	}
}

func parseInts(raw []string, want int) ([]int, error) {
	if len(raw) != want {
		return nil, fmt.Errorf("expected %d arguments, got %d", want, len(raw))
	}
	args := make([]int, want)
	for i, r := range raw {
		v, err := strconv.Atoi(r)
		if err != nil {
			return nil, fmt.Errorf("argument %q is not an integer", r)
		}
		args[i] = v
	}
	return args, nil
}

var verbose = flag.Bool("verbose", false, "Log every serial exchange")

func main() {
	flag.Parse()

	sh := ishell.New()
	sh.Println("rovershell: type 'help' for commands")
	sh.SetPrompt(unconnectedPrompt)
	st := &state{}
	sh.Set(shellKey, st)

	sh.AddCmd(&ishell.Cmd{
		Name: "connect",
		Help: "connect <port> : open the robot on a serial port",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("usage: connect <port>"))
				return
			}
			st := stateFrom(c)
			if st.Robot != nil && st.Robot.Connected() {
				c.Err(fmt.Errorf("already connected to %s", st.Port))
				return
			}
			robot := roverlink.NewSession(roverlink.Config{
				Port:    c.Args[0],
				Verbose: *verbose,
			})
			if err := robot.Connect(); err != nil {
				c.Err(err)
				return
			}
			st.Robot = robot
			st.Port = c.Args[0]
			c.SetPrompt(fmt.Sprintf("[%s] > ", st.Port))
			c.Printf("connected, firmware %s\n", robot.Firmware())
		},
	})

	sh.AddCmd(&ishell.Cmd{
		Name: "disconnect",
		Help: "park servos, stop motors, and close the port",
		Func: mustBeConnected(func(c *ishell.Context) {
			st := stateFrom(c)
			if err := st.Robot.Close(); err != nil {
				c.Err(err)
			}
			st.Robot = nil
			c.SetPrompt(unconnectedPrompt)
		}),
	})

	sh.AddCmd(&ishell.Cmd{
		Name: "attach",
		Help: "attach motor|servo <n> <pin>, or attach gps",
		Func: mustBeConnected(func(c *ishell.Context) {
			st := stateFrom(c)
			if len(c.Args) == 1 && c.Args[0] == "gps" {
				if err := st.Robot.AttachGPS(); err != nil {
					c.Err(err)
				}
				return
			}
			if len(c.Args) != 3 {
				c.Err(fmt.Errorf("usage: attach motor|servo <n> <pin>"))
				return
			}
			args, err := parseInts(c.Args[1:], 2)
			if err != nil {
				c.Err(err)
				return
			}
			switch c.Args[0] {
			case "motor":
				err = st.Robot.AttachMotor(roverlink.Motor(args[0]), args[1])
			case "servo":
				err = st.Robot.AttachServo(roverlink.Servo(args[0]), args[1])
			default:
				err = fmt.Errorf("unknown attachment %q", c.Args[0])
			}
			if err != nil {
				c.Err(err)
			}
		}),
	})

	sh.AddCmd(&ishell.Cmd{
		Name: "run",
		Help: "run <motor> <speed> <ms> : run one motor (blocks for ms unless 0)",
		Func: mustBeConnected(func(c *ishell.Context) {
			args, err := parseInts(c.Args, 3)
			if err != nil {
				c.Err(err)
				return
			}
			if err := stateFrom(c).Robot.RunMotor(roverlink.Motor(args[0]), args[1], args[2]); err != nil {
				c.Err(err)
			}
		}),
	})

	sh.AddCmd(&ishell.Cmd{
		Name: "servo",
		Help: "servo <n> <angle> : move a servo to an angle 0-180",
		Func: mustBeConnected(func(c *ishell.Context) {
			args, err := parseInts(c.Args, 2)
			if err != nil {
				c.Err(err)
				return
			}
			if err := stateFrom(c).Robot.MoveServo(roverlink.Servo(args[0]), args[1]); err != nil {
				c.Err(err)
			}
		}),
	})

	sh.AddCmd(&ishell.Cmd{
		Name: "ping",
		Help: "ping <pin> : read an ultrasonic distance in cm",
		Func: mustBeConnected(func(c *ishell.Context) {
			args, err := parseInts(c.Args, 1)
			if err != nil {
				c.Err(err)
				return
			}
			dist, err := stateFrom(c).Robot.Ping(args[0])
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("%d cm\n", dist)
		}),
	})

	sh.AddCmd(&ishell.Cmd{
		Name: "read",
		Help: "read analog|digital <pin> : read a cached pin value (refreshes first)",
		Func: mustBeConnected(func(c *ishell.Context) {
			if len(c.Args) != 2 {
				c.Err(fmt.Errorf("usage: read analog|digital <pin>"))
				return
			}
			pin, err := strconv.Atoi(c.Args[1])
			if err != nil {
				c.Err(fmt.Errorf("pin %q is not an integer", c.Args[1]))
				return
			}
			st := stateFrom(c)
			var value int
			switch c.Args[0] {
			case "analog":
				if err = st.Robot.RefreshAnalogPins(); err == nil {
					value, err = st.Robot.AnalogPin(pin)
				}
			case "digital":
				if err = st.Robot.RefreshDigitalPins(); err == nil {
					value, err = st.Robot.DigitalPin(pin)
				}
			default:
				err = fmt.Errorf("unknown pin kind %q", c.Args[0])
			}
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("%d\n", value)
		}),
	})

	sh.AddCmd(&ishell.Cmd{
		Name: "gps",
		Help: "read the GPS fix (attach gps first)",
		Func: mustBeConnected(func(c *ishell.Context) {
			coords, err := stateFrom(c).Robot.GPSCoordinates()
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("lat %v° %v' lon %v° %v'\n", coords[0], coords[1], coords[2], coords[3])
		}),
	})

	sh.AddCmd(&ishell.Cmd{
		Name: "version",
		Help: "print the host API version and connected firmware version",
		Func: func(c *ishell.Context) {
			c.Printf("api %s\n", roverlink.APIVersion())
			st := stateFrom(c)
			if st.Robot != nil && st.Robot.Connected() {
				c.Printf("firmware %s\n", st.Robot.Firmware())
			}
		},
	})

	sh.Run()

	if st.Robot != nil && st.Robot.Connected() {
		if err := st.Robot.Close(); err != nil {
			log.Printf("failed to close robot: %v", err)
		}
	}
}
