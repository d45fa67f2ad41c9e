package models

import (
	"encoding/json"

	"github.com/patric-chuzhbe/userfront/internal/user"
)

// Envelope is the wrapper every upstream API response uses.
type Envelope[T any] struct {
	Code    int    `json:"code"`
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// RawEnvelope keeps the data field undecoded so it can be checked for
// presence before being decoded into a typed value.
type RawEnvelope = Envelope[json.RawMessage]

type UpdateUserRequest struct {
	ID int `json:"id"`
	user.Patch
}

type DeleteUserRequest struct {
	ID int `json:"id"`
}

type UserList []user.User

const (
	CodeOK = 0

	// CodeFailed is used by the local facade for every failed request;
	// the HTTP status carries the detail.
	CodeFailed = 1
)

type StatusResponse struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type LocaleRequest struct {
	Locale string `json:"locale"`
}

type LocaleResponse struct {
	Locale    string   `json:"locale"`
	Supported []string `json:"supported"`
}

// UpstreamErrorData is the data of a facade error caused by the remote API.
type UpstreamErrorData struct {
	Status int    `json:"status,omitempty"`
	Body   string `json:"body,omitempty"`
}
