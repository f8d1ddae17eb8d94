package echoapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"

	"github.com/trezcool/darasa/core/lesson"
)

type wsWriter interface {
	Write(ctx context.Context, msgType websocket.MessageType, data []byte) error
}

// stream pushes lesson change events to the client as server-sent events until
// the client disconnects.
func (api *lessonApi) stream(ctx echo.Context) error {
	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "text/event-stream")
	res.Header().Set("Cache-Control", "no-cache")
	res.Header().Set(echo.HeaderConnection, "keep-alive")
	res.WriteHeader(http.StatusOK)
	_, _ = res.Write([]byte(":ok\n\n"))
	res.Flush()

	reqCtx := ctx.Request().Context()
	sub := api.feed.Subscribe(reqCtx)

	for {
		select {
		case <-reqCtx.Done():
			return nil
		case evt, ok := <-sub:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			_, _ = res.Write([]byte("data: "))
			_, _ = res.Write(payload)
			_, _ = res.Write([]byte("\n\n"))
			res.Flush()
		}
	}
}

// streamWS is the websocket flavor of stream.
func (api *lessonApi) streamWS(ctx echo.Context) error {
	conn, err := websocket.Accept(ctx.Response(), ctx.Request(), &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		return nil
	}
	defer conn.Close(websocket.StatusInternalError, "closed")

	reqCtx := ctx.Request().Context()
	if err := streamEvents(reqCtx, api.feed, conn); err != nil && reqCtx.Err() == nil {
		_ = conn.Close(websocket.StatusInternalError, "stream error")
		return nil
	}
	_ = conn.Close(websocket.StatusNormalClosure, "done")
	return nil
}

func streamEvents(ctx context.Context, feed *lesson.Feed, writer wsWriter) error {
	sub := feed.Subscribe(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-sub:
			if !ok {
				return nil
			}
			payload, err := json.Marshal(evt)
			if err != nil {
				return err
			}
			if err := writer.Write(ctx, websocket.MessageText, payload); err != nil {
				return err
			}
		}
	}
}
