package remote

import (
	"context"
	"errors"
	"fmt"

	"github.com/gorilla/websocket"

	"appctl/internal/api"
	"appctl/pkg/logging"
)

// Stream message types sent by the service on /execute.
const (
	messageProgress = "progress"
	messageResult   = "result"
	messageError    = "error"
)

// streamMessage is one frame of the execution stream.
type streamMessage struct {
	Type    string                `json:"type"`
	Level   api.ProgressLevel     `json:"level,omitempty"`
	Message string                `json:"message,omitempty"`
	Result  api.ExecutionResponse `json:"result,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// Execute opens the /execute websocket, sends the request and forwards
// progress frames until the final result arrives. The call is not retried:
// once the request is sent it may have changed hosts.
func (c *Client) Execute(ctx context.Context, req api.BackendRequest, progress api.ProgressFunc) (api.ExecutionResponse, error) {
	req.DryRun = false
	endpoint := c.endpoint(pathExecute, true)

	conn, resp, err := c.dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("%w (status %d)", err, resp.StatusCode)
		}
		return nil, &api.TransportError{Op: "execute", Err: err}
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() {
		// Unblocks ReadJSON when the caller gives up.
		conn.Close()
	})
	defer stop()

	if err := conn.WriteJSON(req); err != nil {
		return nil, &api.TransportError{Op: "execute", Err: fmt.Errorf("failed to send request: %w", err)}
	}

	frames := 0
	for {
		var msg streamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			} else if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				err = errors.New("stream closed before the final result")
			}
			return nil, &api.TransportError{Op: "execute", Err: err}
		}
		frames++

		switch msg.Type {
		case messageProgress:
			if progress != nil {
				progress(api.ProgressEvent{Level: msg.Level, Message: msg.Message})
			}
		case messageResult:
			logging.Debug("Backend", "Execution finished after %d frames", frames)
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			if msg.Result == nil {
				msg.Result = api.ExecutionResponse{}
			}
			return msg.Result, nil
		case messageError:
			return nil, &api.TransportError{Op: "execute", Err: errors.New(msg.Error)}
		default:
			logging.Warn("Backend", "Ignoring unknown stream frame %q", msg.Type)
		}
	}
}
