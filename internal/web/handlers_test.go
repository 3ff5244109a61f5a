package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/chaz8081/turntable-remote/internal/rig"
	"github.com/gorilla/websocket"
)

// fakeRemote validates with the real parsers and records accepted values.
type fakeRemote struct {
	mu      sync.Mutex
	snap    rig.Snapshot
	set     map[string]string
	stopped bool
	canScan bool
	obs     *rig.Broadcaster
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		snap: rig.Snapshot{State: rig.DefaultState(), Phase: rig.PhaseReady},
		set:  make(map[string]string),
		obs:  rig.NewBroadcaster(8),
	}
}

func (f *fakeRemote) Snapshot() rig.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeRemote) Subscribe() (<-chan rig.Snapshot, func()) {
	return f.obs.Subscribe(f.Snapshot())
}

func (f *fakeRemote) record(name, value string, err error) error {
	if f.stopped {
		return rig.ErrStopped
	}
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.set[name] = value
	f.mu.Unlock()
	return nil
}

func (f *fakeRemote) SetMode(text string) error {
	_, err := rig.ParseMode(text)
	return f.record("mode", text, err)
}

func (f *fakeRemote) SetNumOfPhoto(text string) error {
	_, err := rig.ParseNumOfPhoto(text)
	return f.record("numOfPhoto", text, err)
}

func (f *fakeRemote) SetAngle(text string) error {
	_, err := rig.ParseAngle(text)
	return f.record("angle", text, err)
}

func (f *fakeRemote) SetTimeInterval(text string) error {
	_, err := rig.ParseTimeInterval(text)
	return f.record("timeInterval", text, err)
}

func (f *fakeRemote) ToggleCameraState() (rig.CameraState, error) {
	if f.stopped {
		return "", rig.ErrStopped
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snap.State.CameraState == rig.Idle {
		f.snap.State.CameraState = rig.Shooting
	} else {
		f.snap.State.CameraState = rig.Idle
	}
	return f.snap.State.CameraState, nil
}

func (f *fakeRemote) Rescan() bool { return f.canScan }

func newTestServer(t *testing.T, remote Remote) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer("", remote).Mux())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandleState(t *testing.T) {
	srv := newTestServer(t, newFakeRemote())

	resp, err := http.Get(srv.URL + "/state")
	if err != nil {
		t.Fatalf("GET /state: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["phase"] != "ready" {
		t.Errorf("phase = %v, want ready", body["phase"])
	}
	state := body["state"].(map[string]any)
	if state["mode"] != "fixed_angle" || state["numOfPhoto"] != float64(5) {
		t.Errorf("state = %v", state)
	}
}

func TestSetters(t *testing.T) {
	remote := newFakeRemote()
	srv := newTestServer(t, remote)

	tests := []struct {
		path       string
		body       string
		wantStatus int
		wantResult string
	}{
		{"/num-of-photo", `{"value":"12"}`, http.StatusOK, "Success"},
		{"/num-of-photo", `{"value":"0"}`, http.StatusUnprocessableEntity, "Invalid value"},
		{"/num-of-photo", `{"value":"twelve"}`, http.StatusUnprocessableEntity, "Value error"},
		{"/angle", `{"value":"50"}`, http.StatusUnprocessableEntity, "Invalid value"},
		{"/angle", `{"value":"15"}`, http.StatusOK, "Success"},
		{"/time-interval", `{"value":"2.5"}`, http.StatusOK, "Success"},
		{"/time-interval", `{"value":"NaN"}`, http.StatusUnprocessableEntity, "Value error"},
		{"/mode", `{"value":"fixed_time_interval"}`, http.StatusOK, "Success"},
		{"/mode", `{"value":"orbit"}`, http.StatusUnprocessableEntity, "Value error"},
	}

	for _, tt := range tests {
		t.Run(tt.path+" "+tt.body, func(t *testing.T) {
			resp := post(t, srv.URL+tt.path, tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			var got SetResponse
			if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Result != tt.wantResult {
				t.Errorf("result = %q, want %q", got.Result, tt.wantResult)
			}
			if (got.Error != "") != (tt.wantResult != "Success") {
				t.Errorf("error = %q for result %q", got.Error, got.Result)
			}
		})
	}

	if remote.set["numOfPhoto"] != "12" || remote.set["angle"] != "15" || remote.set["mode"] != "fixed_time_interval" {
		t.Errorf("accepted values = %v", remote.set)
	}
}

func TestSetterBadRequest(t *testing.T) {
	srv := newTestServer(t, newFakeRemote())

	resp := post(t, srv.URL+"/angle", `{"value":`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	resp, err := http.Get(srv.URL + "/angle")
	if err != nil {
		t.Fatalf("GET /angle: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("GET status = %d, want 405", resp.StatusCode)
	}
}

func TestSetterStopped(t *testing.T) {
	remote := newFakeRemote()
	remote.stopped = true
	srv := newTestServer(t, remote)

	resp := post(t, srv.URL+"/angle", `{"value":"5"}`)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestHandleToggle(t *testing.T) {
	srv := newTestServer(t, newFakeRemote())

	for _, want := range []string{"shooting", "idle"} {
		resp := post(t, srv.URL+"/camera/toggle", "")
		var body map[string]string
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if body["cameraState"] != want {
			t.Errorf("cameraState = %q, want %q", body["cameraState"], want)
		}
	}
}

func TestHandleRescan(t *testing.T) {
	remote := newFakeRemote()
	srv := newTestServer(t, remote)

	if resp := post(t, srv.URL+"/rescan", ""); resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
	remote.canScan = true
	if resp := post(t, srv.URL+"/rescan", ""); resp.StatusCode != http.StatusAccepted {
		t.Errorf("status = %d, want 202", resp.StatusCode)
	}
}

func TestHandleStream(t *testing.T) {
	remote := newFakeRemote()
	srv := newTestServer(t, remote)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/state/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var first rig.Snapshot
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if first.Phase != rig.PhaseReady || first.State.NumOfPhoto != 5 {
		t.Errorf("initial = %+v", first)
	}

	// The initial snapshot comes from the subscription, so it is live now.
	next := first
	next.IsWaiting = true
	next.SignalStrength = -81
	remote.obs.Publish(next)

	var got rig.Snapshot
	if err := conn.ReadJSON(&got); err != nil {
		t.Fatalf("read update: %v", err)
	}
	if !got.IsWaiting || got.SignalStrength != -81 {
		t.Errorf("update = %+v", got)
	}
}
