package arm

import (
	"fmt"
	"strconv"
	"strings"
)

// Result codes carried in command acknowledgements.
const (
	CodeOK             = 0
	CodeFormatError    = 1
	CodeUnknownCommand = 2
	CodeInvalidState   = 3
	CodeForceAborted   = 4
	CodeCancelled      = 5
)

// Result is a handler outcome: a code plus an optional diagnostic. It is a
// value, not an error — protocol-level failures are reported to the command
// source and the daemon carries on.
type Result struct {
	Code    int
	Message string
}

// OK is the success result.
var OK = Result{Code: CodeOK}

func (r Result) String() string {
	if r.Message == "" {
		return strconv.Itoa(r.Code)
	}
	return fmt.Sprintf("%d,%q", r.Code, r.Message)
}

// Header carries the fields common to every command: the originating
// identifier, the sender-chosen numeric id echoed in the acknowledgement,
// and the command name.
type Header struct {
	Origin string
	ID     uint32
	Name   string
}

func (h Header) serialise() string {
	return fmt.Sprintf("%s,%d,%s", h.Origin, h.ID, h.Name)
}

// Command is the closed set of parsed command variants.
type Command interface {
	Header() Header
	// Serialise renders the command back into its wire form, used as the
	// prefix of the acknowledgement line.
	Serialise() string
}

// MoveCam points the camera mount: pan and tilt in degrees, height in
// metres above the arm base.
type MoveCam struct {
	Head         Header
	Pan, Tilt    float64
	HeightMetres float64
}

func (c MoveCam) Header() Header { return c.Head }
func (c MoveCam) Serialise() string {
	return fmt.Sprintf("%s,%s,%s,%s", c.Head.serialise(),
		formatFloat(c.Pan), formatFloat(c.Tilt), formatFloat(c.HeightMetres))
}

// SetPosition moves the arm to a named pose.
type SetPosition struct {
	Head Header
	Pose string
}

func (c SetPosition) Header() Header    { return c.Head }
func (c SetPosition) Serialise() string { return c.Head.serialise() + "," + c.Pose }

// Named poses accepted by set_pos.
const (
	PoseHome    = "home"
	PoseGiraffe = "giraffe"
)

// SetHome sends the arm to the configured home pose.
type SetHome struct {
	Head Header
}

func (c SetHome) Header() Header    { return c.Head }
func (c SetHome) Serialise() string { return c.Head.serialise() }

// Power switches arm power on or off.
type Power struct {
	Head Header
	On   bool
}

func (c Power) Header() Header { return c.Head }
func (c Power) Serialise() string {
	state := "off"
	if c.On {
		state = "on"
	}
	return c.Head.serialise() + "," + state
}

// Brakes engages the brakes, stopping all motion.
type Brakes struct {
	Head Header
}

func (c Brakes) Header() Header    { return c.Head }
func (c Brakes) Serialise() string { return c.Head.serialise() }

// AutoInit starts the automatic initialisation sequence.
type AutoInit struct {
	Head Header
}

func (c AutoInit) Header() Header    { return c.Head }
func (c AutoInit) Serialise() string { return c.Head.serialise() }

// AutoInitForce starts the automatic initialisation sequence with a
// per-command force limit in newtons.
type AutoInitForce struct {
	Head       Header
	ForceLimit float64
}

func (c AutoInitForce) Header() Header { return c.Head }
func (c AutoInitForce) Serialise() string {
	return c.Head.serialise() + "," + formatFloat(c.ForceLimit)
}

// JointMove nudges a single joint by a signed angle in degrees, used during
// manual initialisation.
type JointMove struct {
	Head     Header
	Joint    int
	DeltaDeg float64
}

func (c JointMove) Header() Header { return c.Head }
func (c JointMove) Serialise() string {
	return fmt.Sprintf("%s,%d,%s", c.Head.serialise(), c.Joint, formatFloat(c.DeltaDeg))
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// ProtocolError is a recoverable parse failure. It renders as the error
// acknowledgement line echoing the original input.
type ProtocolError struct {
	Line    string
	Code    int
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Line, e.Message)
}

// Ack renders the structured error acknowledgement.
func (e *ProtocolError) Ack() string {
	return fmt.Sprintf("%s,%d,%q;", e.Line, e.Code, e.Message)
}

// variantSpec describes one command variant: its arity and the field
// name/type lists echoed in format-error diagnostics.
type variantSpec struct {
	arity  int
	fields string
	types  string
	parse  func(h Header, args []string) (Command, error)
}

var variants = map[string]variantSpec{
	"move_cam": {
		arity:  6,
		fields: "origin,id,name,pan,tilt,height",
		types:  "s,ui,s,d,d,d",
		parse: func(h Header, args []string) (Command, error) {
			pan, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return nil, fmt.Errorf("pan: %w", err)
			}
			tilt, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return nil, fmt.Errorf("tilt: %w", err)
			}
			height, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return nil, fmt.Errorf("height: %w", err)
			}
			return MoveCam{Head: h, Pan: pan, Tilt: tilt, HeightMetres: height}, nil
		},
	},
	"set_pos": {
		arity:  4,
		fields: "origin,id,name,pose",
		types:  "s,ui,s,s",
		parse: func(h Header, args []string) (Command, error) {
			pose := strings.ToLower(args[0])
			if pose != PoseHome && pose != PoseGiraffe {
				return nil, fmt.Errorf("pose must be %q or %q, got %q", PoseHome, PoseGiraffe, args[0])
			}
			return SetPosition{Head: h, Pose: pose}, nil
		},
	},
	"set_home": {
		arity:  3,
		fields: "origin,id,name",
		types:  "s,ui,s",
		parse: func(h Header, args []string) (Command, error) {
			return SetHome{Head: h}, nil
		},
	},
	"power": {
		arity:  4,
		fields: "origin,id,name,state",
		types:  "s,ui,s,s",
		parse: func(h Header, args []string) (Command, error) {
			switch strings.ToLower(args[0]) {
			case "on":
				return Power{Head: h, On: true}, nil
			case "off":
				return Power{Head: h, On: false}, nil
			}
			return nil, fmt.Errorf("state must be on or off, got %q", args[0])
		},
	},
	"brakes": {
		arity:  3,
		fields: "origin,id,name",
		types:  "s,ui,s",
		parse: func(h Header, args []string) (Command, error) {
			return Brakes{Head: h}, nil
		},
	},
	"auto_init": {
		arity:  3,
		fields: "origin,id,name",
		types:  "s,ui,s",
		parse: func(h Header, args []string) (Command, error) {
			return AutoInit{Head: h}, nil
		},
	},
	"initj": {
		arity:  5,
		fields: "origin,id,name,joint,delta",
		types:  "s,ui,s,i,d",
		parse: func(h Header, args []string) (Command, error) {
			joint, err := strconv.Atoi(args[0])
			if err != nil {
				return nil, fmt.Errorf("joint: %w", err)
			}
			if joint < 0 || joint >= JointCount {
				return nil, fmt.Errorf("joint %d out of range [0, %d)", joint, JointCount)
			}
			delta, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return nil, fmt.Errorf("delta: %w", err)
			}
			return JointMove{Head: h, Joint: joint, DeltaDeg: delta}, nil
		},
	},
}

// autoInitForceSpec is the larger-arity auto_init variant carrying a force
// limit. Disambiguation between the two is purely by field count, with this
// one tried first. An explicit variant tag would be more robust if a third
// variant ever shares the arity; the wire protocol predates this daemon.
var autoInitForceSpec = variantSpec{
	arity:  4,
	fields: "origin,id,name,force_limit",
	types:  "s,ui,s,d",
	parse: func(h Header, args []string) (Command, error) {
		limit, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return nil, fmt.Errorf("force_limit: %w", err)
		}
		if limit <= 0 {
			return nil, fmt.Errorf("force_limit must be positive, got %v", limit)
		}
		return AutoInitForce{Head: h, ForceLimit: limit}, nil
	},
}

// ParseCommand parses one textual command line into its variant. The
// returned *ProtocolError is a recoverable protocol failure; it is never
// wrapped in the fatal error channel.
func ParseCommand(line string) (Command, *ProtocolError) {
	trimmed := strings.TrimSuffix(strings.TrimSpace(line), ";")
	fields := strings.Split(trimmed, ",")
	if len(fields) < 3 {
		return nil, &ProtocolError{
			Line:    trimmed,
			Code:    CodeFormatError,
			Message: "command format error, expected at least origin,id,name",
		}
	}

	name := strings.ToLower(strings.TrimSpace(fields[2]))
	if name == "stop" {
		// stop is an alias for brakes on the wire
		name = "brakes"
	}

	spec, ok := variants[name]
	if !ok {
		return nil, &ProtocolError{
			Line:    trimmed,
			Code:    CodeUnknownCommand,
			Message: fmt.Sprintf("unknown command found: '%s'", fields[2]),
		}
	}

	// auto_init with a trailing force limit is a distinct variant selected
	// by field count, larger arity first.
	if name == "auto_init" && len(fields) == autoInitForceSpec.arity {
		spec = autoInitForceSpec
	}

	if len(fields) != spec.arity {
		return nil, formatError(trimmed, spec)
	}

	id, err := strconv.ParseUint(strings.TrimSpace(fields[1]), 10, 32)
	if err != nil {
		return nil, formatError(trimmed, spec)
	}

	h := Header{
		Origin: strings.TrimSpace(fields[0]),
		ID:     uint32(id),
		Name:   name,
	}
	cmd, err := spec.parse(h, fields[3:])
	if err != nil {
		return nil, formatError(trimmed, spec)
	}
	return cmd, nil
}

func formatError(line string, spec variantSpec) *ProtocolError {
	return &ProtocolError{
		Line: line,
		Code: CodeFormatError,
		Message: fmt.Sprintf("command format error, wrong field/s or field type/s, fields: %s - types: %s",
			spec.fields, spec.types),
	}
}
