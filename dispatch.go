package sigkv

import (
	"time"

	"github.com/rs/zerolog"
)

// Handle runs one inbound payload through decode, dispatch
// and encode, and returns the bytes to send back. send is
// false for events we do not recognize: those get no
// reply at all. A payload that is not a valid Request
// gets an error reply and never ends the connection.
func (s *Server) Handle(payload []byte) (reply []byte, send bool) {
	return s.handle(payload, s.log)
}

func (s *Server) handle(payload []byte, log zerolog.Logger) (reply []byte, send bool) {
	t0 := time.Now()

	var resp *Response
	event := EventInvalid
	outcome := outcomeOK

	req, err := DecodeRequest(payload)
	if err != nil {
		log.Warn().Err(err).Msg("bad request")
		resp = errorResponse(err.Error())
		outcome = outcomeBadRequest
	} else {
		event = ParseEvent(req.Event)
		resp = s.dispatch(event, req, log)
		if resp == nil {
			recordRequest(event.String(), outcomeIgnored, time.Since(t0))
			return nil, false
		}
		if resp.IsErr() {
			outcome = outcomeError
		}
	}

	reply, err = resp.Bytes()
	if err != nil {
		// not expected: Response holds only strings and a uint64.
		log.Error().Err(err).Msg("encode response")
		recordRequest(event.String(), outcomeError, time.Since(t0))
		return nil, false
	}
	recordRequest(event.String(), outcome, time.Since(t0))
	return reply, true
}

// dispatch routes on the event alone and keeps no state
// between messages. A nil Response means send nothing.
func (s *Server) dispatch(event Event, req *Request, log zerolog.Logger) *Response {
	switch event {
	case EventGet:
		return s.handleGet(req, log)
	case EventPut:
		return s.handlePut(req, log)
	}
	log.Warn().Str("event", req.Event).Msg("Invalid Event")
	return nil
}
