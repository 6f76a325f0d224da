// Package client provides methods to do http GET / POST requests
// with JSON results.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	resty "github.com/go-resty/resty/v2"
)

const defaultTimeout = 60 // seconds

// ErrNotFound the remote replied 404
var ErrNotFound = errors.New("remote not found")

var httpClient = resty.New().
	SetTimeout(defaultTimeout * time.Second).
	SetHeader("Content-Type", "application/json")

// SetTimeout adjust the request timeout in seconds
func SetTimeout(seconds int) {
	if seconds > 0 {
		httpClient.SetTimeout(time.Duration(seconds) * time.Second)
	}
}

// RPCGet http get request with a JSON result
func RPCGet(result interface{}, url string) error {
	resp, err := httpClient.R().Get(url)
	if err != nil {
		return err
	}
	return parseResponse(result, resp)
}

// RPCPost http post request with a JSON body and result
func RPCPost(result interface{}, url string, body interface{}) error {
	resp, err := httpClient.R().SetBody(body).Post(url)
	if err != nil {
		return err
	}
	return parseResponse(result, resp)
}

func parseResponse(result interface{}, resp *resty.Response) error {
	if resp.StatusCode() == http.StatusNotFound {
		return ErrNotFound
	}
	if !resp.IsSuccess() {
		return fmt.Errorf("wrong response status %v. message: %v", resp.StatusCode(), string(resp.Body()))
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return fmt.Errorf("unmarshal response failed: %w", err)
	}
	return nil
}
