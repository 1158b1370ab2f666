package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"

	"github.com/rotisserie/eris"

	"github.com/sells-group/painpoint-cli/internal/pipeline"
)

// maxInputBytes bounds a single input document.
const maxInputBytes = 64 << 20

// readRequest reads a request from path, or from stdin when path is "-".
func readRequest(path string, stdin io.Reader) (pipeline.Request, error) {
	if path == "-" || path == "" {
		return decodeRequest(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return pipeline.Request{}, eris.Wrapf(err, "open input %s", path)
	}
	defer f.Close() //nolint:errcheck

	req, err := decodeRequest(f)
	if err != nil {
		return pipeline.Request{}, eris.Wrapf(err, "read input %s", path)
	}
	return req, nil
}

// decodeRequest accepts either a bare JSON array of records or an object
// with topic, records and errors fields.
func decodeRequest(r io.Reader) (pipeline.Request, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxInputBytes+1))
	if err != nil {
		return pipeline.Request{}, eris.Wrap(err, "read input")
	}
	if len(data) > maxInputBytes {
		return pipeline.Request{}, eris.Errorf("input exceeds %d bytes", maxInputBytes)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return pipeline.Request{}, eris.New("input is empty")
	}

	var req pipeline.Request
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &req.Records); err != nil {
			return pipeline.Request{}, eris.Wrap(err, "decode records array")
		}
	case '{':
		if err := json.Unmarshal(data, &req); err != nil {
			return pipeline.Request{}, eris.Wrap(err, "decode request object")
		}
		if req.Records == nil {
			return pipeline.Request{}, eris.New(`input object needs a "records" array`)
		}
	default:
		return pipeline.Request{}, eris.New("input must be a JSON array or object")
	}
	return req, nil
}
