package roverlink

// Board describes the pin layout of a controller board. A board is a data
// value injected at session construction: supporting new hardware means
// writing a new Board literal, not a new type.
type Board struct {
	Name string

	// DigitalPins and AnalogPins list the pins that are initially free.
	// Order matters: bulk pin reads report values in this order, and the
	// caches are indexed by position in these lists.
	DigitalPins []int
	AnalogPins  []int
}

// ArduinoUno returns the pin layout of the Arduino Uno reference board.
// Pins 0 and 1 are the hardware serial link and are never free.
func ArduinoUno() Board {
	return Board{
		Name:        "Arduino Uno",
		DigitalPins: []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13},
		AnalogPins:  []int{0, 1, 2, 3, 4, 5},
	}
}

// ArduinoNano returns the pin layout of the Arduino Nano.
func ArduinoNano() Board {
	return Board{
		Name:        "Arduino Nano",
		DigitalPins: []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13},
		AnalogPins:  []int{0, 1, 2, 3, 4, 5, 6, 7},
	}
}

// ArduinoProMini returns the pin layout of the Arduino Pro Mini. Same
// digital pins as the Uno, two extra analog inputs.
func ArduinoProMini() Board {
	return Board{
		Name:        "Arduino Pro Mini",
		DigitalPins: []int{2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13},
		AnalogPins:  []int{0, 1, 2, 3, 4, 5, 6, 7},
	}
}

func (b Board) empty() bool {
	return len(b.DigitalPins) == 0 && len(b.AnalogPins) == 0
}
