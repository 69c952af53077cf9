package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shelfmates/bookshelf/cli/config"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

// apiGet fetches path from the configured server and decodes the JSON body into out.
func apiGet(path string, out interface{}) (int, error) {
	return apiSend(http.MethodGet, path, nil, out)
}

// apiSend issues method against path with an optional JSON body. Non-2xx
// responses are turned into errors carrying the server's error message.
func apiSend(method, path string, body, out interface{}) (int, error) {
	serverURL, err := config.GetServerURL()
	if err != nil {
		printError("Configuration not initialized")
		fmt.Println("Run: bookshelf init <username>")
		return 0, err
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, serverURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("server connection error: %w", err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp map[string]string
		json.Unmarshal(data, &errResp)
		if errResp["error"] != "" {
			return resp.StatusCode, fmt.Errorf("%s", errResp["error"])
		}
		return resp.StatusCode, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
