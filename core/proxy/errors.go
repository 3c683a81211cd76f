package proxy

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/relabs-tech/feishu-proxy/core/feishu"
	"github.com/relabs-tech/feishu-proxy/core/logger"
	"github.com/relabs-tech/feishu-proxy/core/schema"
	"github.com/relabs-tech/feishu-proxy/core/storage"
)

const contentTypeJSON = "application/json; charset=utf-8"

// ClientError is a request the caller has to fix
type ClientError struct {
	Message string
}

func (e *ClientError) Error() string {
	return e.Message
}

type errorResponse struct {
	Error   string          `json:"error"`
	Details json.RawMessage `json:"details,omitempty"`
}

// writeError converts err into a status code and a JSON body {error, details?}
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	rlog := logger.FromContext(r.Context())

	var (
		clientErr *ClientError
		authErr   *feishu.AuthenticationError
		upErr     *feishu.UpstreamError
		confErr   *storage.ConfigurationError
		uploadErr *storage.UploadError
		keyErr    *storage.InvalidKeyError
		response  errorResponse
	)
	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &clientErr):
		status = http.StatusBadRequest
		response.Error = clientErr.Message
		rlog.Infoln("rejected request:", err)
	case errors.As(err, &keyErr):
		status = http.StatusBadRequest
		response.Error = keyErr.Error()
		rlog.Infoln("rejected upload:", err)
	case errors.As(err, &authErr):
		response.Error = authErr.Message
		rlog.WithField("status", authErr.StatusCode).Errorln(authErr.Message)
	case errors.As(err, &upErr):
		response.Error = upErr.Message
		response.Details = upErr.Details
		rlog.Errorln(upErr.String())
	case errors.As(err, &confErr):
		response.Error = confErr.Message
		rlog.Errorln(confErr.Message)
	case errors.As(err, &uploadErr):
		response.Error = uploadErr.Message
		rlog.WithField("status", uploadErr.StatusCode).Errorln(uploadErr.Message)
	default:
		response.Error = "internal server error"
		rlog.WithError(err).Errorln("unexpected error")
	}

	body, _ := json.Marshal(response)
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	w.Write(body)
}

func writeJSON(w http.ResponseWriter, r *http.Request, response interface{}) {
	body, err := json.MarshalWithOption(response, json.DisableHTMLEscape())
	if err != nil {
		writeError(w, r, fmt.Errorf("cannot marshal response: %w", err))
		return
	}
	writeRaw(w, body)
}

// writeRaw relays an upstream body unchanged
func writeRaw(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// decodeRequest reads the JSON body into target and validates it against the
// request schema of the operation. An empty body is treated as {}.
func (p *Proxy) decodeRequest(w http.ResponseWriter, r *http.Request, schemaName, missingMessage string, target interface{}) error {
	var body []byte
	var err error
	if r.Body != nil {
		body, err = io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &ClientError{Message: "request body too large"}
		}
		return fmt.Errorf("cannot read request body: %w", err)
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		body = []byte("{}")
	}

	if err := json.Unmarshal(body, target); err != nil {
		return &ClientError{Message: "invalid JSON body"}
	}

	if err := p.validator.Validate(body, schemaName); err != nil {
		var verr *schema.ValidationError
		if errors.As(err, &verr) {
			logger.FromContext(r.Context()).Debugln("request validation failed:", verr.Error())
			return &ClientError{Message: missingMessage}
		}
		return err
	}
	return nil
}
