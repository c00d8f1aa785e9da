package arm

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/banshee-data/armlink/internal/armio"
	"github.com/banshee-data/armlink/internal/config"
	"github.com/banshee-data/armlink/internal/monitoring"
	"github.com/banshee-data/armlink/internal/timeutil"
)

// Broadcaster fans a status record out to subscribers. armio.Publisher is
// the production implementation; a nil Broadcaster disables broadcasting.
type Broadcaster interface {
	Publish(record []byte)
}

// HistoryRecorder persists the daemon's activity. Implemented by the sqlite
// history store; nil disables recording.
type HistoryRecorder interface {
	EventRecorder
	RecordCommand(line string)
	RecordAck(ack string)
	RecordStatus(st *Status)
}

// statusSampleInterval spaces history status snapshots, which would
// otherwise arrive every tick.
const statusSampleInterval = time.Second

// Loop is the top-level driver. One tick, strictly ordered: check feedback
// health, poll status and evaluate the home monitor, pull one input line
// into the queue, dispatch the oldest queued command, step the motion
// engine, transmit its decision, publish the broadcast record, sleep.
type Loop struct {
	cfg    *config.ArmConfig
	clock  timeutil.Clock
	writer DirectiveWriter
	reader *StatusReader
	source *armio.LineSource
	acks   io.Writer

	dispatcher *Dispatcher
	home       *HomeMonitor
	engine     Engine
	inputs     *MotionInputs

	broadcast Broadcaster
	history   HistoryRecorder
	board     *StatusBoard

	queue      []queuedCommand
	inject     chan queuedCommand
	lastSample time.Time

	shutdownOnce sync.Once
}

// queuedCommand is one pending command line. Lines from the command source
// have a nil reply and their acks go to the ack sink; injected lines carry
// a reply channel back to the injector.
type queuedCommand struct {
	line  string
	reply chan string
}

// LoopDeps carries the collaborators for NewLoop; every field except
// Broadcast and History is required.
type LoopDeps struct {
	Config     *config.ArmConfig
	Clock      timeutil.Clock
	Writer     DirectiveWriter
	Reader     *StatusReader
	Source     *armio.LineSource
	Acks       io.Writer
	Dispatcher *Dispatcher
	Home       *HomeMonitor
	Engine     Engine
	Inputs     *MotionInputs
	Broadcast  Broadcaster
	History    HistoryRecorder
	Board      *StatusBoard
}

// NewLoop assembles the control loop.
func NewLoop(deps LoopDeps) *Loop {
	return &Loop{
		cfg:        deps.Config,
		clock:      deps.Clock,
		writer:     deps.Writer,
		reader:     deps.Reader,
		source:     deps.Source,
		acks:       deps.Acks,
		dispatcher: deps.Dispatcher,
		home:       deps.Home,
		engine:     deps.Engine,
		inputs:     deps.Inputs,
		broadcast:  deps.Broadcast,
		history:    deps.History,
		board:      deps.Board,
		inject:     make(chan queuedCommand, 8),
	}
}

// InjectCommand hands a command line to the loop and waits for its
// acknowledgement, used by the HTTP API. The line joins the same queue as
// the command source and is processed one per tick in arrival order.
func (l *Loop) InjectCommand(ctx context.Context, line string) (string, error) {
	qc := queuedCommand{line: line, reply: make(chan string, 1)}
	select {
	case l.inject <- qc:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	select {
	case ack := <-qc.reply:
		return ack, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Run ticks until the context is cancelled, the command input ends, or a
// fatal fault occurs. The arm-safing sequence (stop, power off) runs on
// every exit path, exactly once.
func (l *Loop) Run(ctx context.Context) error {
	defer l.SafeShutdown()

	for {
		if ctx.Err() != nil {
			monitoring.Logf("shutdown signal received")
			l.recordEvent("shutdown", "signal")
			return nil
		}
		done, err := l.tick(ctx)
		if err != nil {
			l.recordEvent("fatal", err.Error())
			return err
		}
		if done {
			monitoring.Logf("command input closed, exiting")
			l.recordEvent("shutdown", "input closed")
			return nil
		}
		l.clock.Sleep(l.cfg.SleepInterval())
	}
}

func (l *Loop) tick(ctx context.Context) (done bool, err error) {
	// Input read errors are fatal; a closed input is a normal shutdown.
	if serr := l.source.Err(); serr != nil {
		return false, fmt.Errorf("command input: %w", serr)
	}

	if perr := l.reader.Poll(); perr != nil {
		return false, fmt.Errorf("status poll: %w", perr)
	}
	if l.board != nil {
		l.board.Set(*l.reader.Status())
	}
	if herr := l.home.Evaluate(l.reader.Status()); herr != nil {
		// Marker file IO is not worth killing the arm over.
		monitoring.Logf("home monitor: %v", herr)
	}

	sourceIdle := false
	if line, ok := l.source.TryLine(); ok {
		l.queue = append(l.queue, queuedCommand{line: line})
		if l.history != nil {
			l.history.RecordCommand(line)
		}
	} else {
		sourceIdle = true
	}
	select {
	case qc := <-l.inject:
		l.queue = append(l.queue, qc)
		if l.history != nil {
			l.history.RecordCommand(qc.line)
		}
	default:
	}
	if sourceIdle && l.source.Done() && len(l.queue) == 0 {
		return true, nil
	}

	if len(l.queue) > 0 {
		qc := l.queue[0]
		l.queue = l.queue[1:]
		ack, derr := l.dispatcher.Dispatch(ctx, qc.line)
		if derr != nil {
			return false, derr
		}
		if qc.reply != nil {
			qc.reply <- ack
		} else if _, werr := fmt.Fprintln(l.acks, ack); werr != nil {
			return false, fmt.Errorf("writing acknowledgement: %w", werr)
		}
		if l.history != nil {
			l.history.RecordAck(ack)
		}
	}

	code, target := l.engine.Step(l.inputs, l.reader.Status())
	switch {
	case code > 0:
		directive := MoveDirective(target, l.cfg.Acceleration(), l.cfg.Velocity())
		monitoring.Debugf("engine move: %s", debugDegrees(target))
		if werr := l.writer.WriteLine(directive); werr != nil {
			return false, fmt.Errorf("transmitting motion: %w", werr)
		}
	case code < 0:
		monitoring.Logf("motion suppressed (engine code %d)", code)
	}

	if l.broadcast != nil {
		l.broadcast.Publish(EncodeBroadcast(code, l.reader.Status().Joints))
	}
	l.sampleStatus()
	return false, nil
}

func (l *Loop) sampleStatus() {
	if l.history == nil {
		return
	}
	now := l.clock.Now()
	if !l.lastSample.IsZero() && now.Sub(l.lastSample) < statusSampleInterval {
		return
	}
	l.lastSample = now
	l.history.RecordStatus(l.reader.Status())
}

func (l *Loop) recordEvent(kind, detail string) {
	if l.history != nil {
		l.history.RecordEvent(kind, detail)
	}
}

// SafeShutdown decelerates all joints and powers the arm off. Safe to call
// more than once; only the first call writes. Write failures are logged,
// not returned: there is nothing further to do with a dead channel at
// shutdown.
func (l *Loop) SafeShutdown() {
	l.shutdownOnce.Do(func() {
		if err := l.writer.WriteLine(StopDirective); err != nil {
			monitoring.Logf("shutdown stop directive: %v", err)
		}
		if err := l.writer.WriteLine(PowerOffDirective); err != nil {
			monitoring.Logf("shutdown power off directive: %v", err)
		}
		monitoring.Logf("arm stopped and powered off")
	})
}
