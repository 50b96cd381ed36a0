package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"mrk/internal/domain/reconciliation"
	"mrk/internal/domain/statement"
	"mrk/internal/shared/logger"
)

var (
	statementMeter       = otel.Meter("mrk/statements")
	statementImported, _ = statementMeter.Int64Counter("statement.transactions.imported",
		metric.WithDescription("Statement transactions processed by outcome"),
	)
	statementUploads, _ = statementMeter.Int64Counter("statement.uploads.total",
		metric.WithDescription("Statement uploads by source"),
	)
)

// uploadFormField is the multipart field carrying the statement file.
const uploadFormField = "file"

// StatementService is the reconciliation API the handler drives.
type StatementService interface {
	Import(ctx context.Context, raw []byte) (*reconciliation.ImportResult, error)
	Save(ctx context.Context, rows []statement.UploadRow) (*reconciliation.UploadResult, error)
	List(ctx context.Context, filter reconciliation.ListFilter) (*reconciliation.ListResult, error)
	Associate(ctx context.Context, id int64, projectCode string) error
	AutoMatch(ctx context.Context) (int, error)
	ValidatePending(ctx context.Context) (*reconciliation.ValidationSummary, error)
}

type StatementHandler struct {
	service  StatementService
	maxBytes int64
}

func NewStatementHandler(service StatementService, maxBytes int64) *StatementHandler {
	return &StatementHandler{service: service, maxBytes: maxBytes}
}

// PreviewResponse shows what an upload would store, without storing it.
type PreviewResponse struct {
	Document *statement.Document   `json:"document"`
	Rows     []statement.UploadRow `json:"rows"`
}

type AssociateRequest struct {
	ProjectID string `json:"projectId"`
}

type AutoMatchResponse struct {
	MatchedCount int `json:"matchedCount"`
}

// HandlePreview parses an uploaded statement and returns the document and
// the rows with their running balance.
func (h *StatementHandler) HandlePreview(w http.ResponseWriter, r *http.Request) {
	raw, ok := h.readStatementFile(w, r)
	if !ok {
		return
	}

	text, err := statement.DecodeLatin1(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Statement could not be decoded")
		return
	}

	doc := statement.Parse(text)
	writeJSON(w, http.StatusOK, PreviewResponse{
		Document: doc,
		Rows:     statement.BuildUpload(doc),
	})
}

// HandleUpload stores a statement. A multipart request carries the raw file;
// a JSON request carries rows already built by a preview.
func (h *StatementHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		h.uploadFile(w, r)
		return
	}
	h.uploadRows(w, r)
}

func (h *StatementHandler) uploadFile(w http.ResponseWriter, r *http.Request) {
	raw, ok := h.readStatementFile(w, r)
	if !ok {
		return
	}

	res, err := h.service.Import(r.Context(), raw)
	if err != nil {
		if errors.Is(err, statement.ErrEmptyStatement) {
			writeError(w, http.StatusUnprocessableEntity, "Statement has no transactions")
			return
		}
		writeInternalError(w, r, "Failed to import statement", err)
		return
	}

	recordUpload(r.Context(), "file", res.UploadResult)
	writeJSON(w, http.StatusOK, res)
}

func (h *StatementHandler) uploadRows(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	var rows []statement.UploadRow
	if !decodeJSON(w, r, &rows) {
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusBadRequest, "No transactions to upload")
		return
	}

	res, err := h.service.Save(r.Context(), rows)
	if err != nil {
		writeInternalError(w, r, "Failed to save transactions", err)
		return
	}

	recordUpload(r.Context(), "rows", *res)
	writeJSON(w, http.StatusOK, res)
}

// readStatementFile extracts the uploaded file, enforcing the size limit.
func (h *StatementHandler) readStatementFile(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	file, header, err := r.FormFile(uploadFormField)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "Statement file too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "A statement file is required in the \"file\" field")
		return nil, false
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeInternalError(w, r, "Failed to read statement file", err)
		return nil, false
	}
	if len(raw) == 0 {
		writeError(w, http.StatusBadRequest, "Statement file is empty")
		return nil, false
	}

	l := logger.FromContext(r.Context())
	l.Debug().Str("filename", header.Filename).Int("bytes", len(raw)).Msg("statement file received")
	return raw, true
}

func recordUpload(ctx context.Context, source string, res reconciliation.UploadResult) {
	statementUploads.Add(ctx, 1, metric.WithAttributes(attribute.String("source", source)))
	statementImported.Add(ctx, int64(res.NewRecords), metric.WithAttributes(attribute.String("outcome", "new")))
	statementImported.Add(ctx, int64(res.AlreadyExists), metric.WithAttributes(attribute.String("outcome", "duplicate")))
	statementImported.Add(ctx, int64(res.Rejected), metric.WithAttributes(attribute.String("outcome", "rejected")))
}

// HandleListTransactions returns one page of stored transactions with the
// aggregate stats of the whole filtered set.
func (h *StatementHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	filter, err := parseTransactionFilter(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.service.List(r.Context(), filter)
	if err != nil {
		if isFilterError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeInternalError(w, r, "Failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func isFilterError(err error) bool {
	return errors.Is(err, reconciliation.ErrInvalidStatus) ||
		errors.Is(err, reconciliation.ErrInvalidType) ||
		errors.Is(err, reconciliation.ErrInvalidRange)
}

func parseTransactionFilter(r *http.Request) (reconciliation.ListFilter, error) {
	var (
		filter reconciliation.ListFilter
		err    error
	)

	if filter.Skip, err = queryInt(r, "skip", 0); err != nil {
		return filter, err
	}
	if filter.Limit, err = queryInt(r, "limit", reconciliation.DefaultListLimit); err != nil {
		return filter, err
	}
	if filter.StartDate, err = queryDate(r, "start_date"); err != nil {
		return filter, err
	}
	if filter.EndDate, err = queryDate(r, "end_date"); err != nil {
		return filter, err
	}
	if filter.MinAmount, err = queryFloatPtr(r, "min_amount"); err != nil {
		return filter, err
	}
	if filter.MaxAmount, err = queryFloatPtr(r, "max_amount"); err != nil {
		return filter, err
	}

	filter.ProjectID = queryString(r, "project_id")
	filter.Search = queryString(r, "search")
	filter.Direction = reconciliation.Direction(strings.ToUpper(queryString(r, "trn_type")))
	filter.Status = reconciliation.ValidationStatus(strings.ToUpper(queryString(r, "validation_status")))
	return filter, nil
}

// queryDate accepts YYYY-MM-DD or a full RFC 3339 timestamp.
func queryDate(r *http.Request, key string) (*time.Time, error) {
	raw := queryString(r, key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{reconciliation.PostedDateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s must be a date (YYYY-MM-DD)", key)
}

// HandleAssociate links a transaction to a project.
func (h *StatementHandler) HandleAssociate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid transaction id")
		return
	}

	var req AssociateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.service.Associate(r.Context(), id, req.ProjectID); err != nil {
		switch {
		case errors.Is(err, reconciliation.ErrInvalidProject):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, reconciliation.ErrTransactionNotFound):
			writeError(w, http.StatusNotFound, "Transaction not found")
		default:
			writeInternalError(w, r, "Failed to associate transaction", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Transaction associated"})
}

// HandleAutoMatch assigns projects to unassociated transactions by memo.
func (h *StatementHandler) HandleAutoMatch(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.AutoMatch(r.Context())
	if err != nil {
		writeInternalError(w, r, "Failed to auto-match transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, AutoMatchResponse{MatchedCount: count})
}

// HandleValidate checks pending transactions against realized movements.
func (h *StatementHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.ValidatePending(r.Context())
	if err != nil {
		writeInternalError(w, r, "Failed to validate transactions", err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}
