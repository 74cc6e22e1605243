package api

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fxamacker/cbor/v2"
	"github.com/go-chi/chi/v5"
	"github.com/ssargent/boconv/pkg/codec"
	"github.com/ssargent/boconv/pkg/frame"
	"github.com/ssargent/boconv/pkg/metrics"
	"github.com/ssargent/boconv/pkg/query"
	"github.com/ssargent/boconv/pkg/record"
	"github.com/ssargent/boconv/pkg/schema"
	"github.com/ssargent/boconv/pkg/storage"
	"github.com/ssargent/boconv/pkg/store"
	"go.uber.org/zap"
)

// StatsProvider reports the size of the object store
type StatsProvider interface {
	Stats() *store.LogStats
}

// Server holds the API server state
type Server struct {
	objects Objects
	records *record.Codec
	queries query.QueryEngine
	stats   StatsProvider
	config  ServerConfig
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// NewServer creates a new API server. stats may be nil.
func NewServer(objects Objects, stats StatsProvider, config ServerConfig, m *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxRecordSize <= 0 {
		config.MaxRecordSize = 1 << 20
	}
	return &Server{
		objects: objects,
		records: objects.Records(),
		queries: query.NewScanEngine(objects),
		stats:   stats,
		config:  config,
		metrics: m,
		logger:  logger,
	}
}

// DescribeTypes lists every registered record type with its fields
func DescribeTypes(types *schema.Registry) []TypeInfo {
	names := types.Names()
	out := make([]TypeInfo, 0, len(names))
	for _, name := range names {
		s, _ := types.Lookup(name)
		out = append(out, describe(types, name, s))
	}
	return out
}

func describe(types *schema.Registry, name string, s *schema.Schema) TypeInfo {
	codecs := types.Codecs()
	info := TypeInfo{Name: name}
	for _, f := range s.Fields() {
		fi := FieldInfo{
			Tag:      fmt.Sprintf("0x%02x", f.Tag),
			Name:     f.Name,
			Kind:     codecs.Name(f.Kind),
			Width:    f.Width,
			Required: f.Required,
		}
		if f.IsArray() {
			fi.Elem = codecs.Name(f.Elem)
		}
		if f.Child != nil {
			fi.Record = f.Child.Name
		}
		info.Fields = append(info.Fields, fi)
	}
	return info
}

// statusFor maps storage and codec errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, frame.ErrTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, store.ErrInvalidID),
		errors.Is(err, query.ErrInvalidQuery),
		errors.Is(err, query.ErrNotComparable),
		errors.Is(err, storage.ErrTypeMismatch),
		errors.Is(err, codec.ErrUnknownTag),
		errors.Is(err, codec.ErrMalformedLength),
		errors.Is(err, codec.ErrInvalidValue),
		errors.Is(err, codec.ErrIncompatible):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// recordType resolves the {type} path parameter
func (s *Server) recordType(w http.ResponseWriter, r *http.Request) (string, bool) {
	name := chi.URLParam(r, "type")
	if _, ok := s.records.Types().Lookup(name); !ok {
		sendError(w, r, fmt.Sprintf("Unknown record type %q", name), http.StatusNotFound)
		return "", false
	}
	return name, true
}

// readBody reads at most MaxRecordSize bytes of the request body
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxRecordSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			sendError(w, r, fmt.Sprintf("Body exceeds %d bytes", s.config.MaxRecordSize), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		sendError(w, r, "Failed to read request body", http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

// contentType returns the media type of the request body
func contentType(r *http.Request) string {
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

// encodeBody turns a JSON or CBOR document into an encoded record of typeName
func (s *Server) encodeBody(typeName, mediaType string, body []byte) ([]byte, error) {
	v, err := s.records.Types().New(typeName)
	if err != nil {
		return nil, err
	}
	switch mediaType {
	case ContentTypeCBOR:
		err = cbor.Unmarshal(body, v)
	default:
		err = json.Unmarshal(body, v)
	}
	if err != nil {
		return nil, errors.Wrapf(codec.ErrInvalidValue, "parse %s body: %v", typeName, err)
	}
	return s.records.Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.metrics != nil {
		s.metrics.RecordHealthCheck(true)
	}
	sendSuccess(w, r, map[string]string{"status": "healthy"})
}

func (s *Server) handleTypes(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, r, DescribeTypes(s.records.Types()))
}

func (s *Server) handleType(w http.ResponseWriter, r *http.Request) {
	name, ok := s.recordType(w, r)
	if !ok {
		return
	}
	sch, _ := s.records.Types().Lookup(name)
	sendSuccess(w, r, describe(s.records.Types(), name, sch))
}

// handleListObjects lists the ids of a type. With ?field=&op=&value= it
// returns the matching objects instead.
func (s *Server) handleListObjects(w http.ResponseWriter, r *http.Request) {
	name, ok := s.recordType(w, r)
	if !ok {
		return
	}

	if field := r.URL.Query().Get("field"); field != "" {
		op := r.URL.Query().Get("op")
		if op == "" {
			op = query.OpEqual
		}
		it, err := s.queries.ExecuteQuery(r.Context(), name, query.FieldQuery{
			Field:    field,
			Operator: op,
			Value:    r.URL.Query().Get("value"),
		})
		if err != nil {
			sendError(w, r, fmt.Sprintf("Query failed: %v", err), statusFor(err))
			return
		}
		results := query.Collect(it)
		resp := make([]ObjectResponse, 0, len(results))
		for _, res := range results {
			resp = append(resp, ObjectResponse{ID: res.ID.String(), Type: res.Type, Object: res.Object})
		}
		sendSuccess(w, r, resp)
		return
	}

	ids, err := s.objects.List(name)
	if err != nil {
		sendError(w, r, fmt.Sprintf("Failed to list objects: %v", err), statusFor(err))
		return
	}
	resp := ListResponse{Type: name, IDs: make([]string, 0, len(ids))}
	for _, id := range ids {
		resp.IDs = append(resp.IDs, id.String())
	}
	sendSuccess(w, r, resp)
}

// handleCreateObject stores a record. A binary body must already be an
// encoded record of the path type; JSON and CBOR bodies are encoded first.
func (s *Server) handleCreateObject(w http.ResponseWriter, r *http.Request) {
	name, ok := s.recordType(w, r)
	if !ok {
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	data := body
	if mt := contentType(r); mt == ContentTypeJSON || mt == ContentTypeCBOR {
		var err error
		if data, err = s.encodeBody(name, mt, body); err != nil {
			sendError(w, r, err.Error(), statusFor(err))
			return
		}
	}

	id, err := s.objects.PutRaw(name, data)
	if err != nil {
		sendError(w, r, fmt.Sprintf("Failed to store %s: %v", name, err), statusFor(err))
		return
	}
	s.logger.Debug("object stored", zap.String("type", name), zap.Stringer("id", id), zap.Int("size", len(data)))
	sendCreated(w, r, ObjectResponse{ID: id.String(), Type: name, Size: len(data)})
}

// handleGetObject returns a stored object as JSON, CBOR or its raw encoding,
// following the Accept header
func (s *Server) handleGetObject(w http.ResponseWriter, r *http.Request) {
	name, ok := s.recordType(w, r)
	if !ok {
		return
	}
	id, err := store.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, r, "Invalid object id", http.StatusBadRequest)
		return
	}

	stored, data, err := s.objects.Raw(id)
	if err == nil && stored != name {
		err = errors.Wrapf(storage.ErrNotFound, "%s is a %s", id, stored)
	}
	if err != nil {
		sendError(w, r, err.Error(), statusFor(err))
		return
	}

	if accepts(r, ContentTypeBinary) {
		sendBinary(w, name, data)
		return
	}

	v, err := s.records.DecodeNamed(name, data)
	if err != nil {
		sendError(w, r, fmt.Sprintf("Stored object does not decode: %v", err), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, r, ObjectResponse{ID: id.String(), Type: name, Size: len(data), Object: v})
}

func (s *Server) handleDeleteObject(w http.ResponseWriter, r *http.Request) {
	name, ok := s.recordType(w, r)
	if !ok {
		return
	}
	id, err := store.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		sendError(w, r, "Invalid object id", http.StatusBadRequest)
		return
	}

	stored, _, err := s.objects.Raw(id)
	if err == nil && stored != name {
		err = errors.Wrapf(storage.ErrNotFound, "%s is a %s", id, stored)
	}
	if err == nil {
		err = s.objects.Delete(id)
	}
	if err != nil {
		sendError(w, r, err.Error(), statusFor(err))
		return
	}
	sendSuccess(w, r, map[string]string{"id": id.String(), "status": "deleted"})
}

// handleEncode converts a JSON or CBOR document to its binary record form
func (s *Server) handleEncode(w http.ResponseWriter, r *http.Request) {
	name, ok := s.recordType(w, r)
	if !ok {
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}
	data, err := s.encodeBody(name, contentType(r), body)
	if err != nil {
		sendError(w, r, err.Error(), statusFor(err))
		return
	}
	sendBinary(w, name, data)
}

// handleDecode converts a binary record to JSON or CBOR. With ?explain=true
// the response lists the tag/payload units instead.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	name, ok := s.recordType(w, r)
	if !ok {
		return
	}
	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	if r.URL.Query().Get("explain") == "true" {
		sch, _ := s.records.Types().Lookup(name)
		dumps, err := s.records.Inspect(body, sch.Type)
		if err != nil {
			sendError(w, r, err.Error(), statusFor(err))
			return
		}
		sendSuccess(w, r, dumps)
		return
	}

	v, err := s.records.DecodeNamed(name, body)
	if err != nil {
		sendError(w, r, err.Error(), statusFor(err))
		return
	}
	sendSuccess(w, r, ObjectResponse{Type: name, Size: len(body), Object: v})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.stats == nil {
		sendError(w, r, "Statistics are not available for this storage engine", http.StatusNotImplemented)
		return
	}
	sendSuccess(w, r, s.stats.Stats())
}

// startMetricsUpdater refreshes the store gauges until done is closed
func (s *Server) startMetricsUpdater(done <-chan struct{}, interval time.Duration) {
	if s.stats == nil || s.metrics == nil {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		st := s.stats.Stats()
		s.metrics.UpdateStoreStats(st.Objects, st.DataSize)
		select {
		case <-done:
			return
		case <-ticker.C:
		}
	}
}
