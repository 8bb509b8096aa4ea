package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"

	clr "github.com/fatih/color"
)

var baseURL = "http://localhost:8000/api"

const sessionID = "systemcheck"

// Pretty print JSON helper
func prettyPrint(body []byte) {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		fmt.Println(string(body))
		return
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Println(string(body))
		return
	}
	fmt.Println(string(b))
}

func sendJSON(method, url string, body interface{}) (*http.Response, []byte, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		bodyReader = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, baseURL+url, bodyReader)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", sessionID)

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

func uploadFrame(url string, frame []byte, fields map[string]string) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "frame.png")
	if err != nil {
		return nil, nil, err
	}
	part.Write(frame)
	for k, v := range fields {
		w.WriteField(k, v)
	}
	w.Close()

	req, err := http.NewRequest("POST", baseURL+url, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("X-Session-ID", sessionID)

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	return resp, respBody, err
}

// testFrame draws a ramp so repeated runs produce a stable fingerprint.
func testFrame(seed uint8) []byte {
	img := image.NewGray(image.Rect(0, 0, 320, 180))
	for y := 0; y < 180; y++ {
		for x := 0; x < 320; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(int(seed) + 255 - x%256)})
		}
	}
	var buf bytes.Buffer
	png.Encode(&buf, img)
	return buf.Bytes()
}

func main() {
	if len(os.Args) > 1 {
		baseURL = os.Args[1] + "/api"
	}
	clr.Cyan("🚀 Screen-to-Song system check (%s)\n", baseURL)

	// 1. Health
	clr.Yellow("\n1. Health")
	resp, body, err := sendJSON("GET", "/health", nil)
	if err != nil {
		clr.Red("Failed: %v", err)
		os.Exit(1)
	}
	clr.Green("Status: %s", resp.Status)
	prettyPrint(body)

	// 2. Analyze a frame (first frame always classifies)
	clr.Yellow("\n2. Analyze frame")
	resp, body, err = uploadFrame("/frame/v1/analyze", testFrame(0), nil)
	if err != nil {
		clr.Red("Failed: %v", err)
		os.Exit(1)
	}
	clr.Green("Status: %s", resp.Status)
	prettyPrint(body)

	// 3. Same frame again (must be served from cache)
	clr.Yellow("\n3. Analyze same frame again (expect cached=true)")
	resp, body, err = uploadFrame("/frame/v1/analyze", testFrame(0), nil)
	if err != nil {
		clr.Red("Failed: %v", err)
		os.Exit(1)
	}
	clr.Green("Status: %s", resp.Status)
	prettyPrint(body)

	// 4. Generate lyrics twice (second prompt should avoid the first lines)
	clr.Yellow("\n4. Generate lyrics x2")
	for i := 0; i < 2; i++ {
		resp, body, err = sendJSON("POST", "/lyrics/v1/generate", map[string]string{"genre": "lo-fi"})
		if err != nil {
			clr.Red("Failed: %v", err)
			os.Exit(1)
		}
		clr.Green("Status: %s", resp.Status)
		prettyPrint(body)
	}

	// 5. History + export
	clr.Yellow("\n5. History")
	_, body, err = sendJSON("GET", "/lyrics/v1/history?limit=5", nil)
	if err != nil {
		clr.Red("Failed: %v", err)
		os.Exit(1)
	}
	prettyPrint(body)

	clr.Yellow("\n6. Export")
	_, body, err = sendJSON("GET", "/lyrics/v1/export", nil)
	if err != nil {
		clr.Red("Failed: %v", err)
		os.Exit(1)
	}
	fmt.Println(string(body))

	// 7. Clear session
	clr.Yellow("\n7. Clear session")
	resp, body, err = sendJSON("POST", "/session/v1/clear", nil)
	if err != nil {
		clr.Red("Failed: %v", err)
		os.Exit(1)
	}
	clr.Green("Status: %s", resp.Status)
	prettyPrint(body)

	clr.Cyan("\n✅ System check complete")
	clr.White("Optional: POST %s/render/v1/sing to test audio (needs ELEVENLABS_API_KEY + ffmpeg)", baseURL)
}
