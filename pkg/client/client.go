// Package client submits scenes to a running dswe server.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"github.com/project-spencer/dswe/internal/log"
	"github.com/project-spencer/dswe/pkg/model"
)

// MakeReq gob encodes s, posts it to endpoint and returns the rows the server
// answered with as raw JSON objects.
func MakeReq(ctx context.Context, s *model.Scene, endpoint string) ([]json.RawMessage, error) {
	var b bytes.Buffer

	if err := s.Encode(&b); err != nil {
		return nil, errors.Wrap(err, "could not encode scene")
	}

	return post(ctx, endpoint, "application/octet-stream", bytes.NewReader(b.Bytes()), s.ID)
}

// MakeZipReq posts a zipped Collection 2 bundle as is.
func MakeZipReq(ctx context.Context, bundle []byte, endpoint string) ([]json.RawMessage, error) {
	return post(ctx, endpoint, "application/zip", bytes.NewReader(bundle), "bundle")
}

func post(ctx context.Context, endpoint, contentType string, body *bytes.Reader, id string) ([]json.RawMessage, error) {
	r, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, errors.Wrap(err, "could not create request")
	}

	r.Header.Set("Content-Type", contentType)

	t1 := time.Now()
	log.Debugf("sending scene %s (%d bytes)", id, body.Len())

	resp, err := http.DefaultClient.Do(r)
	if err != nil {
		return nil, errors.Wrapf(err, "could not send scene %s", id)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var rows []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, errors.Wrap(err, "could not decode rows")
	}

	log.Infof("sent scene %s in %s, got %d rows", id, time.Since(t1), len(rows))

	return rows, nil
}
