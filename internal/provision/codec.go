package provision

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	apiErrors "github.com/David-Antunes/gone-topo/api/Errors"
)

func encodeBody(body any) (io.Reader, error) {
	if body == nil {
		return nil, nil
	}
	msgBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(msgBody), nil
}

func decodeBody(res *http.Response, out any) error {
	if out == nil {
		_, err := io.Copy(io.Discard, res.Body)
		return err
	}
	d := json.NewDecoder(res.Body)
	return d.Decode(out)
}

// statusError reads the server's error body. Servers that answer with
// something other than JSON keep the raw text as the message.
func statusError(op string, res *http.Response) *StatusError {
	raw, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	resp := apiErrors.Error{}
	msg := string(bytes.TrimSpace(raw))
	if err := json.Unmarshal(raw, &resp); err == nil && resp.Message != "" {
		msg = resp.Message
	}
	if msg == "" {
		msg = http.StatusText(res.StatusCode)
	}
	return &StatusError{
		Op:      op,
		Status:  res.StatusCode,
		Message: msg,
	}
}
