package sigkv

import (
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/glycerine/sigkv/hash"
)

// Error texts seen by clients. These are part of the
// wire contract; clients match on them.
const (
	MsgMissingIdentifier = "Missing identifier in message"
	MsgMissingPutFields  = "Missing identifier or data in message"
	MsgVerifyFailed      = "Failed to verify data"
	MsgNotFound          = "404"
	MsgStoredNotUTF8     = "stored record is not valid utf-8"
)

// handleGet looks up the full derived identifier.
func (s *Server) handleGet(req *Request, log zerolog.Logger) *Response {
	if req.Identifier == nil {
		log.Warn().Str("event", "GET").Msg(MsgMissingIdentifier)
		return errorResponse(MsgMissingIdentifier)
	}
	key := *req.Identifier
	log = log.With().Str("event", "GET").Str("identifier", key).Logger()

	val, found, err := s.store.Get([]byte(key))
	if err != nil {
		log.Error().Err(err).Msg("store get")
		return errorResponse(err.Error())
	}
	if !found {
		log.Warn().Msg("not found")
		return errorResponse(MsgNotFound)
	}
	if !utf8.Valid(val) {
		log.Error().Msg(MsgStoredNotUTF8)
		return errorResponse(MsgStoredNotUTF8)
	}
	rec, err := DecodeRecord(val)
	if err != nil {
		log.Error().Err(err).Msg("stored record does not parse")
		return errorResponse(err.Error())
	}
	log.Info().Msg("get")
	return dataResponse(rec)
}

// handlePut verifies, derives the identifier, and upserts.
// Nothing is written unless the signature verifies.
func (s *Server) handlePut(req *Request, log zerolog.Logger) *Response {
	if req.Identifier == nil || req.Data == nil || req.PublicKey == nil || req.Signature == nil {
		log.Warn().Str("event", "PUT").Msg(MsgMissingPutFields)
		return errorResponse(MsgMissingPutFields)
	}
	log = log.With().Str("event", "PUT").Logger()
	data := *req.Data

	pub, sig, ok := verifyLogged(log, *req.PublicKey, []byte(data), *req.Signature)
	if !ok {
		log.Warn().Msg(MsgVerifyFailed)
		return errorResponse(MsgVerifyFailed)
	}

	identifier, pub58, sig58, err := s.deriver.Derive(pub, sig, *req.Identifier)
	if err != nil {
		log.Error().Err(err).Msg("derive identifier")
		return errorResponse(err.Error())
	}
	log = log.With().Str("identifier", identifier).Logger()
	log.Debug().Str("public_key", pub58).Msg("base58 public key")

	rec := &Record{
		Identifier: identifier,
		Data:       data,
		PublicKey:  pub58,
		Signature:  sig58,
		Timestamp:  s.timestamp(),
	}
	by, err := rec.Bytes()
	if err != nil {
		log.Error().Err(err).Msg("serialize record")
		return errorResponse(err.Error())
	}
	if err := s.store.Put([]byte(identifier), by); err != nil {
		log.Error().Err(err).Msg("store put")
		return errorResponse(err.Error())
	}
	log.Info().Int("size", len(data)).Str("record_digest", hash.Blake3OfBytesString(by)).Msg("put")
	return dataResponse(rec)
}

// timestamp is server time in Unix seconds.
func (s *Server) timestamp() uint64 {
	sec := s.now().Unix()
	if sec < 0 {
		return 0
	}
	return uint64(sec)
}
