package api

import (
	"encoding/base64"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"shimwrapper-dashboard/runner"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsMessage struct {
	Type     string `json:"type"`
	Data     string `json:"data,omitempty"`
	RunID    string `json:"runId,omitempty"`
	ExitCode *int   `json:"exitCode,omitempty"`
}

// handleRunWS streams the output of the current run: first everything
// retained so far, then live chunks, then an "exit" message. A newer
// connection displaces this one.
func (h *handler) handleRunWS(w http.ResponseWriter, r *http.Request) {
	var run *runner.Run
	if h.runner != nil {
		run = h.runner.Current()
	}
	if id := r.URL.Query().Get("id"); id != "" && h.runner != nil {
		run, _ = h.runner.Get(id)
	}
	if run == nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	// gorilla/websocket forbids concurrent writers.
	var writeMu sync.Mutex
	writeMsg := func(msg wsMessage) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(msg)
	}

	outChan := make(chan []byte, 256)
	kick := run.SetClient(outChan)
	defer run.ClearClient(outChan)

	if snap := run.Output(); len(snap) > 0 {
		if err := writeMsg(outputMsg(run.ID, snap)); err != nil {
			return
		}
	}

	// Pump live output until ClearClient closes outChan. Once the run has
	// exited, flush what is queued and finish with an "exit" message.
	go func() {
		for {
			select {
			case data, ok := <-outChan:
				if !ok {
					return
				}
				if err := writeMsg(outputMsg(run.ID, data)); err != nil {
					return
				}
			case <-run.Done():
			drain:
				for {
					select {
					case data, ok := <-outChan:
						if !ok {
							return
						}
						if err := writeMsg(outputMsg(run.ID, data)); err != nil {
							return
						}
					default:
						break drain
					}
				}
				writeMsg(wsMessage{Type: "exit", RunID: run.ID, ExitCode: run.Info().ExitCode}) //nolint:errcheck
				conn.Close()
				return
			}
		}
	}()

	// Watch for displacement and close the connection so ReadMessage below
	// unblocks immediately.
	connDone := make(chan struct{})
	go func() {
		select {
		case <-kick:
			// Displaced: close without "exit" so the client knows the run
			// may still be going.
			conn.Close()
		case <-connDone:
		}
	}()
	defer close(connDone)

	// Client messages carry nothing; reading detects the disconnect.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// handleEventsWS forwards every bus event to the client as JSON.
func (h *handler) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade", zap.Error(err))
		return
	}
	defer conn.Close()

	ch, cancel := h.bus.Subscribe()
	defer cancel()

	go func() {
		// Reading detects the disconnect; closing the conn ends the writer.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	for ev := range ch {
		if err := conn.WriteJSON(ev); err != nil {
			return
		}
	}
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func outputMsg(runID string, data []byte) wsMessage {
	return wsMessage{
		Type:  "output",
		RunID: runID,
		Data:  base64.StdEncoding.EncodeToString(data),
	}
}
