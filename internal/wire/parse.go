package wire

import (
	"fmt"
	"strconv"
	"strings"
)

// ProtocolError describes a reply that does not match the shape or content
// expected for a command family. The offending response is carried verbatim
// for diagnosis, with its tokens for verbose dumps.
type ProtocolError struct {
	Command  string
	Response string
	Tokens   []string
	Reason   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s (response %q)", e.Command, e.Reason, e.Response)
}

// Fields splits a reply on runs of whitespace. An empty reply yields no
// tokens.
func Fields(response string) []string {
	return strings.Fields(response)
}

// Expect tokenizes response and validates that it has exactly arity tokens.
func Expect(command, response string, arity int) ([]string, error) {
	tokens := Fields(response)
	if len(tokens) != arity {
		return nil, &ProtocolError{
			Command:  command,
			Response: response,
			Tokens:   tokens,
			Reason:   fmt.Sprintf("invalid response length %d, expected %d", len(tokens), arity),
		}
	}
	return tokens, nil
}

// AtLeast tokenizes response and validates that it has at least min tokens.
// Bulk pin reads use this: the reply carries one value per free pin plus the
// leading tag, and a short reply means the controller answered a different
// pin set than the host believes is free.
func AtLeast(command, response string, min int) ([]string, error) {
	tokens := Fields(response)
	if len(tokens) < min {
		return nil, &ProtocolError{
			Command:  command,
			Response: response,
			Tokens:   tokens,
			Reason:   fmt.Sprintf("invalid response length %d, expected at least %d", len(tokens), min),
		}
	}
	return tokens, nil
}

// Int parses a single token as an integer.
func Int(command, response, token string) (int, error) {
	v, err := strconv.Atoi(token)
	if err != nil {
		return 0, &ProtocolError{
			Command:  command,
			Response: response,
			Reason:   fmt.Sprintf("token %q is not an integer", token),
		}
	}
	return v, nil
}

// Ints parses every token as an integer.
func Ints(command, response string, tokens []string) ([]int, error) {
	values := make([]int, len(tokens))
	for i, token := range tokens {
		v, err := Int(command, response, token)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return values, nil
}

// Floats parses every token as a float.
func Floats(command, response string, tokens []string) ([]float64, error) {
	values := make([]float64, len(tokens))
	for i, token := range tokens {
		v, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return nil, &ProtocolError{
				Command:  command,
				Response: response,
				Reason:   fmt.Sprintf("token %q is not a number", token),
			}
		}
		values[i] = v
	}
	return values, nil
}
