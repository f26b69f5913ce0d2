package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/forexbot/forexbot/internal/models"
	"github.com/qmuntal/stateless"
	"github.com/tmaxmax/go-sse"
)

type sessionState string

type sessionTrigger string

const (
	stateStreaming sessionState = "streaming"
	stateDone      sessionState = "done"
	stateFailed    sessionState = "failed"

	triggerFinish sessionTrigger = "finish"
	triggerFail   sessionTrigger = "fail"
)

var errSessionClosed = errors.New("stream session already terminated")

// streamSession binds one upstream stream to one SSE response. Content frames are only accepted while
// streaming, and the first of finish or fail writes the single terminal frame; any later terminal
// trigger is rejected by the state machine.
type streamSession struct {
	sse *sse.Session
	fsm *stateless.StateMachine
}

func newStreamSession(sess *sse.Session) *streamSession {
	s := &streamSession{
		sse: sess,
		fsm: stateless.NewStateMachine(stateStreaming),
	}

	s.fsm.Configure(stateStreaming).
		Permit(triggerFinish, stateDone).
		Permit(triggerFail, stateFailed)

	s.fsm.Configure(stateDone).
		OnEntry(func(context.Context, ...any) error {
			return s.send(models.Frame{Done: true})
		})

	s.fsm.Configure(stateFailed).
		OnEntry(func(_ context.Context, args ...any) error {
			msg, _ := args[0].(string)
			return s.send(models.Frame{Error: msg})
		})

	return s
}

func (s *streamSession) state() sessionState {
	return s.fsm.MustState().(sessionState)
}

// content writes one fragment frame and flushes it.
func (s *streamSession) content(fragment string) error {
	if s.state() != stateStreaming {
		return errSessionClosed
	}
	return s.send(models.Frame{Content: fragment})
}

// finish writes the done frame.
func (s *streamSession) finish() error {
	if err := s.fsm.Fire(triggerFinish); err != nil {
		return fmt.Errorf("error finishing stream: %w", err)
	}
	return nil
}

// fail writes an error frame carrying msg.
func (s *streamSession) fail(msg string) error {
	if err := s.fsm.Fire(triggerFail, msg); err != nil {
		return fmt.Errorf("error failing stream: %w", err)
	}
	return nil
}

func (s *streamSession) send(f models.Frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("error marshaling frame: %w", err)
	}

	msg := &sse.Message{}
	msg.AppendData(string(data))

	if err := s.sse.Send(msg); err != nil {
		return fmt.Errorf("error sending frame: %w", err)
	}
	if err := s.sse.Flush(); err != nil {
		return fmt.Errorf("error flushing frame: %w", err)
	}
	return nil
}
