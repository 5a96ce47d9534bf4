package handler

import (
	"encoding/json"
	"net/http"

	"github.com/pedro-enroma/tourmageddon-saas-sub001/internal/model"
)

// DataResponse wraps a successful response with optional HATEOAS links
type DataResponse struct {
	Data  interface{}       `json:"data"`
	Links map[string]string `json:"_links,omitempty"`
}

// CollectionResponse wraps a list response
type CollectionResponse struct {
	Data  interface{}       `json:"data"`
	Meta  *CollectionMeta   `json:"meta,omitempty"`
	Links map[string]string `json:"_links,omitempty"`
}

// CollectionMeta describes a per-date collection
type CollectionMeta struct {
	ServiceDate string `json:"service_date,omitempty"`
	Count       int    `json:"count"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteData writes a successful data response
func WriteData(w http.ResponseWriter, status int, data interface{}, links map[string]string) {
	WriteJSON(w, status, DataResponse{
		Data:  data,
		Links: links,
	})
}

// WriteCollection writes a list response with its metadata
func WriteCollection(w http.ResponseWriter, status int, data interface{}, meta *CollectionMeta, links map[string]string) {
	WriteJSON(w, status, CollectionResponse{
		Data:  data,
		Meta:  meta,
		Links: links,
	})
}

// WriteError writes an error response using RFC 9457 Problem Details
func WriteError(w http.ResponseWriter, err *model.ProblemDetails) {
	err.WriteJSON(w)
}

// DecodeJSON decodes a JSON request body into the given struct
func DecodeJSON(r *http.Request, v interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(v)
}

// WriteNoContent writes a 204 No Content response
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
