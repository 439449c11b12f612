package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-study-sync/internal/config"
	"github.com/MKhiriev/go-study-sync/internal/logger"
	"github.com/MKhiriev/go-study-sync/internal/utils"
	"github.com/MKhiriev/go-study-sync/models"
	"github.com/go-resty/resty/v2"
	"github.com/jonboulle/clockwork"
)

const (
	documentsPath = "/api/collections/{collection}/documents"
	documentPath  = "/api/collections/{collection}/documents/{id}"
	batchPath     = "/api/batch"
)

type httpDocumentStore struct {
	client *utils.HTTPClient
	hasher *utils.Hasher
	token  string

	clock  clockwork.Clock
	logger *logger.Logger
}

// NewHTTPDocumentStore constructs an HTTP/REST implementation of
// [DocumentStore]. It normalises the base URL from adapterCfg.HTTPAddress,
// applies the request timeout, and prepares the HMAC signer used for the
// HashSHA256 header of write requests when appCfg.HashKey is set.
//
// The bearer token may be given raw or as "Bearer <token>". Expired JWTs are
// detected with clock before any request is sent.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as a
// valid URL.
func NewHTTPDocumentStore(adapterCfg config.ClientAdapter, appCfg config.ClientApp, clock clockwork.Clock, logger *logger.Logger) (DocumentStore, error) {
	client, err := utils.NewHTTPClient(adapterCfg.HTTPAddress, adapterCfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	return &httpDocumentStore{
		client: client,
		hasher: utils.NewHasher(appCfg.HashKey),
		token:  utils.StripBearer(adapterCfg.Token),
		clock:  clock,
		logger: logger.WithComponent("http_document_store"),
	}, nil
}

// Get implements [DocumentStore] via GET /api/collections/{collection}/documents/{id}.
func (h *httpDocumentStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	req, err := h.request(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := h.execute(ctx, "get document", req.SetPathParams(map[string]string{
		"collection": collection,
		"id":         id,
	}), http.MethodGet, documentPath)
	if err != nil {
		return nil, err
	}

	return json.RawMessage(resp.Body()), nil
}

// List implements [DocumentStore] via GET /api/collections/{collection}/documents.
func (h *httpDocumentStore) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	req, err := h.request(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := h.execute(ctx, "list documents", req.SetPathParam("collection", collection), http.MethodGet, documentsPath)
	if err != nil {
		return nil, err
	}

	return decodeDocuments(resp)
}

// Set implements [DocumentStore] via PUT /api/collections/{collection}/documents/{id}.
func (h *httpDocumentStore) Set(ctx context.Context, collection, id string, doc json.RawMessage) error {
	req, err := h.request(ctx)
	if err != nil {
		return err
	}
	if err = h.signedBody(req, doc); err != nil {
		return err
	}

	_, err = h.execute(ctx, "set document", req.SetPathParams(map[string]string{
		"collection": collection,
		"id":         id,
	}), http.MethodPut, documentPath)
	return err
}

// Merge implements [DocumentStore] via PATCH /api/collections/{collection}/documents/{id}.
func (h *httpDocumentStore) Merge(ctx context.Context, collection, id string, fields models.Fields) error {
	req, err := h.request(ctx)
	if err != nil {
		return err
	}
	if err = h.signedBody(req, fields); err != nil {
		return err
	}

	_, err = h.execute(ctx, "merge document", req.SetPathParams(map[string]string{
		"collection": collection,
		"id":         id,
	}), http.MethodPatch, documentPath)
	return err
}

// Delete implements [DocumentStore] via DELETE /api/collections/{collection}/documents/{id}.
func (h *httpDocumentStore) Delete(ctx context.Context, collection, id string) error {
	req, err := h.request(ctx)
	if err != nil {
		return err
	}

	_, err = h.execute(ctx, "delete document", req.SetPathParams(map[string]string{
		"collection": collection,
		"id":         id,
	}), http.MethodDelete, documentPath)
	return err
}

// Query implements [DocumentStore] via
// GET /api/collections/{collection}/documents?field=...&value=... where value
// is JSON-encoded so that its type survives the query string.
func (h *httpDocumentStore) Query(ctx context.Context, collection, field string, value any) ([]json.RawMessage, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode query value: %w", err)
	}

	req, err := h.request(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := h.execute(ctx, "query documents", req.
		SetPathParam("collection", collection).
		SetQueryParam("field", field).
		SetQueryParam("value", string(encoded)), http.MethodGet, documentsPath)
	if err != nil {
		return nil, err
	}

	return decodeDocuments(resp)
}

// Batch implements [DocumentStore] via POST /api/batch.
func (h *httpDocumentStore) Batch(ctx context.Context, writes []Write) error {
	if len(writes) == 0 {
		return nil
	}

	req, err := h.request(ctx)
	if err != nil {
		return err
	}
	if err = h.signedBody(req, writes); err != nil {
		return err
	}

	_, err = h.execute(ctx, "batch write", req, http.MethodPost, batchPath)
	return err
}

func (h *httpDocumentStore) request(ctx context.Context) (*resty.Request, error) {
	req := h.client.R().SetContext(ctx)
	if h.token == "" {
		return req, nil
	}

	// opaque tokens cannot be inspected and are sent as-is
	if expired, err := utils.TokenExpired(h.token, h.clock.Now()); err == nil && expired {
		return nil, NewStoreError(CodeUnauthenticated, "token expired", nil)
	}

	return req.SetAuthToken(h.token), nil
}

func (h *httpDocumentStore) signedBody(req *resty.Request, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode request body: %w", err)
	}

	req.SetHeader("Content-Type", "application/json").SetBody(body)
	if h.hasher.Enabled() {
		req.SetHeader(utils.HashHeader, h.hasher.Sign(body))
	}
	return nil
}

func (h *httpDocumentStore) execute(ctx context.Context, op string, req *resty.Request, method, url string) (*resty.Response, error) {
	resp, err := req.Execute(method, url)
	if err != nil {
		h.logger.Debug().Err(err).Str("func", "httpDocumentStore.execute").Str("op", op).Msg("request failed")
		return nil, mapTransportError(ctx, op, err)
	}
	if err = mapHTTPError(resp); err != nil {
		h.logger.Debug().Err(err).Str("func", "httpDocumentStore.execute").Str("op", op).
			Int("status", resp.StatusCode()).Msg("store returned an error")
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return resp, nil
}

func decodeDocuments(resp *resty.Response) ([]json.RawMessage, error) {
	var docs []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &docs); err != nil {
		return nil, fmt.Errorf("decode documents response: %w", err)
	}
	return docs, nil
}
